package neo4j

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rlch/graphsync"
	"github.com/rlch/graphsync/setup"
)

// IndexDef is a schema object definition.
// It is a closed set: KeyConstraint and VectorIndex.
type IndexDef interface {
	indexDef()
}

// KeyConstraint requires FieldNames to exist and be unique together.
type KeyConstraint struct {
	FieldNames []string `yaml:"field_names" json:"field_names"`
}

// VectorIndex indexes a fixed-dimension vector property.
type VectorIndex struct {
	FieldName string `yaml:"field_name" json:"field_name"`
	// Metric is the Neo4j similarity function name.
	Metric    string `yaml:"metric" json:"metric"`
	Dimension int    `yaml:"dimension" json:"dimension"`
}

func (KeyConstraint) indexDef() {}
func (VectorIndex) indexDef()   {}

// ComponentKind distinguishes constraints from indexes; they live in separate Neo4j namespaces.
type ComponentKind string

// Component kinds.
const (
	ComponentKeyConstraint ComponentKind = "key_constraint"
	ComponentVectorIndex   ComponentKind = "vector_index"
)

// ComponentKey identifies a schema object.
type ComponentKey struct {
	Kind ComponentKind
	Name string
}

// ComponentState is a schema object on one element kind.
type ComponentState struct {
	Element ElementKind
	Index   IndexDef
}

// Key returns the object's identity. Names depend only on the element kind,
// label, field names and metric.
func (s ComponentState) Key() ComponentKey {
	prefix := s.Element.abbrev() + "__" + s.Element.Name()

	switch def := s.Index.(type) {
	case KeyConstraint:
		return ComponentKey{Kind: ComponentKeyConstraint, Name: prefix + "__key"}
	case VectorIndex:
		return ComponentKey{
			Kind: ComponentVectorIndex,
			Name: fmt.Sprintf("%s__%s__%s__vidx", prefix, def.FieldName, def.Metric),
		}
	default:
		return ComponentKey{Name: prefix}
	}
}

type componentStateYAML struct {
	Element       elementKindYAML `yaml:"element" json:"element"`
	KeyConstraint *KeyConstraint  `yaml:"key_constraint,omitempty" json:"key_constraint,omitempty"`
	VectorIndex   *VectorIndex    `yaml:"vector_index,omitempty" json:"vector_index,omitempty"`
}

func (s ComponentState) persisted() (componentStateYAML, error) {
	out := componentStateYAML{Element: toElementKindYAML(s.Element)}

	switch def := s.Index.(type) {
	case KeyConstraint:
		out.KeyConstraint = &def
	case VectorIndex:
		out.VectorIndex = &def
	default:
		return out, fmt.Errorf("neo4j: unknown index definition %T", s.Index)
	}

	return out, nil
}

func (y componentStateYAML) state() (ComponentState, error) {
	kind, err := y.Element.kind()
	if err != nil {
		return ComponentState{}, err
	}

	switch {
	case y.KeyConstraint != nil && y.VectorIndex == nil:
		return ComponentState{Element: kind, Index: *y.KeyConstraint}, nil
	case y.VectorIndex != nil && y.KeyConstraint == nil:
		return ComponentState{Element: kind, Index: *y.VectorIndex}, nil
	default:
		return ComponentState{}, fmt.Errorf("neo4j: component on %s needs exactly one index definition", kind)
	}
}

// MarshalYAML implements yaml.Marshaler.
func (s ComponentState) MarshalYAML() (any, error) {
	return s.persisted()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *ComponentState) UnmarshalYAML(node *yaml.Node) error {
	var y componentStateYAML
	if err := node.Decode(&y); err != nil {
		return err
	}

	state, err := y.state()
	if err != nil {
		return err
	}

	*s = state

	return nil
}

// MarshalJSON implements json.Marshaler.
func (s ComponentState) MarshalJSON() ([]byte, error) {
	y, err := s.persisted()
	if err != nil {
		return nil, err
	}

	return json.Marshal(y)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ComponentState) UnmarshalJSON(data []byte) error {
	var y componentStateYAML
	if err := json.Unmarshal(data, &y); err != nil {
		return err
	}

	state, err := y.state()
	if err != nil {
		return err
	}

	*s = state

	return nil
}

// SetupState is the schema an export target needs.
type SetupState struct {
	KeyFieldNames       []string         `yaml:"key_field_names" json:"key_field_names"`
	DependentNodeLabels []string         `yaml:"dependent_node_labels,omitempty" json:"dependent_node_labels,omitempty"`
	Components          []ComponentState `yaml:"components,omitempty" json:"components,omitempty"`
}

// CheckCompatible reports whether data written under existing is still valid under s.
// Only the key fields matter.
func (s *SetupState) CheckCompatible(existing *SetupState) setup.Compatibility {
	if slices.Equal(s.KeyFieldNames, existing.KeyFieldNames) {
		return setup.Compatible
	}

	return setup.NotCompatible
}

// NewSetupState computes the desired schema for a target.
// valueFields are the target's own value properties; for relationships ends
// holds the analyzed endpoints.
func NewSetupState(
	kind ElementKind,
	keyFieldNames []string,
	indexOptions graphsync.IndexOptions,
	valueFields []fieldMapping,
	mapping graphsync.GraphElementMapping,
	ends *endpoints,
) (*SetupState, error) {
	state := &SetupState{
		KeyFieldNames: keyFieldNames,
		Components: []ComponentState{
			{Element: kind, Index: KeyConstraint{FieldNames: keyFieldNames}},
		},
	}

	indexes, err := vectorIndexes(kind, indexOptions.VectorIndexes, valueFields)
	if err != nil {
		return nil, err
	}

	state.Components = append(state.Components, indexes...)

	rel, ok := mapping.(graphsync.RelationshipMapping)
	if !ok {
		return state, nil
	}

	labels := make([]string, 0, len(rel.NodesStorageSpec))
	for label := range rel.NodesStorageSpec {
		labels = append(labels, label)
	}

	sort.Strings(labels)

	state.DependentNodeLabels = labels

	for _, label := range labels {
		opts := rel.NodesStorageSpec[label].IndexOptions
		node := Node{Label: label}

		keyNames := opts.PrimaryKeyFields

		var fields []fieldMapping

		if ends != nil {
			for _, info := range []nodeLabelInfo{ends.Source, ends.Target} {
				if info.Label != label {
					continue
				}

				if keyNames == nil {
					keyNames = mappingNames(info.KeyFields)
				}

				fields = append(fields, info.KeyFields...)
				fields = append(fields, info.ValueFields...)
			}
		}

		if len(keyNames) > 0 {
			state.Components = append(state.Components, ComponentState{
				Element: node,
				Index:   KeyConstraint{FieldNames: keyNames},
			})
		}

		indexes, err := vectorIndexes(node, opts.VectorIndexes, fields)
		if err != nil {
			return nil, err
		}

		state.Components = append(state.Components, indexes...)
	}

	return state, nil
}

func vectorIndexes(kind ElementKind, defs []graphsync.VectorIndexDef, fields []fieldMapping) ([]ComponentState, error) {
	out := make([]ComponentState, 0, len(defs))

	for _, def := range defs {
		i := indexOfField(fields, def.FieldName)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s has no field %q", ErrInvalidIndexField, kind, def.FieldName)
		}

		dim, ok := graphsync.VectorDimension(fields[i].ValueType)
		if !ok {
			return nil, fmt.Errorf("%w: %s field %q is %s, not a fixed-dimension vector",
				ErrInvalidIndexField, kind, def.FieldName, fields[i].ValueType)
		}

		metric, err := def.Metric.Neo4jName()
		if err != nil {
			return nil, fmt.Errorf("%s field %q: %w", kind, def.FieldName, err)
		}

		out = append(out, ComponentState{
			Element: kind,
			Index:   VectorIndex{FieldName: def.FieldName, Metric: metric, Dimension: dim},
		})
	}

	return out, nil
}

// DataClearAction removes data written under an incompatible schema.
type DataClearAction struct {
	CoreKind            ElementKind
	DependentNodeLabels []string
}

func (a *DataClearAction) String() string {
	var b strings.Builder

	b.WriteString("Clear data for ")
	b.WriteString(a.CoreKind.String())

	if len(a.DependentNodeLabels) > 0 {
		deps := make([]string, len(a.DependentNodeLabels))
		for i, label := range a.DependentNodeLabels {
			deps[i] = Node{Label: label}.String()
		}

		b.WriteString("; dependents ")
		b.WriteString(strings.Join(deps, ", "))
	}

	return b.String()
}

// queries returns the statements clearing the data. They must run in auto-commit
// transactions.
func (a *DataClearAction) queries() []Query {
	var orphanOnly string
	if _, ok := a.CoreKind.(Node); ok {
		orphanOnly = "\n  WHERE NOT (e)--()"
	}

	queries := []Query{NewQuery(fmt.Sprintf(`CALL {
  MATCH %s
  WITH e%s
  DELETE e
} IN TRANSACTIONS`, a.CoreKind.Matcher("e"), orphanOnly))}

	for _, label := range a.DependentNodeLabels {
		queries = append(queries, NewQuery(fmt.Sprintf(`CALL {
  MATCH %s
  WHERE NOT (n)--()
  DELETE n
} IN TRANSACTIONS`, Node{Label: label}.Matcher("n"))))
	}

	return queries
}

// setupStatusCheck decides whether existing data must be cleared.
type setupStatusCheck struct {
	key        GraphElement
	graph      func(ctx context.Context) (Graph, error)
	dataClear  *DataClearAction
	changeType setup.ChangeType
}

func newSetupStatusCheck(
	key GraphElement,
	graph func(ctx context.Context) (Graph, error),
	desired *SetupState,
	existing setup.CombinedState[SetupState],
) *setupStatusCheck {
	c := &setupStatusCheck{key: key, graph: graph}

	for _, version := range existing.PossibleVersions() {
		if desired != nil && desired.CheckCompatible(&version) == setup.Compatible {
			continue
		}

		if c.dataClear == nil {
			c.dataClear = &DataClearAction{CoreKind: key.Kind}
		}

		for _, label := range version.DependentNodeLabels {
			if !slices.Contains(c.dataClear.DependentNodeLabels, label) {
				c.dataClear.DependentNodeLabels = append(c.dataClear.DependentNodeLabels, label)
			}
		}
	}

	switch {
	case desired != nil && !existing.IsEmpty():
		if c.dataClear != nil {
			c.changeType = setup.Update
		} else {
			c.changeType = setup.NoChange
		}
	case desired != nil:
		c.changeType = setup.Create
	case !existing.IsEmpty():
		c.changeType = setup.Delete
	default:
		c.changeType = setup.NoChange
	}

	return c
}

func (c *setupStatusCheck) DescribeChanges() []string {
	if c.dataClear == nil {
		return nil
	}

	return []string{c.dataClear.String()}
}

func (c *setupStatusCheck) ChangeType() setup.ChangeType {
	return c.changeType
}

func (c *setupStatusCheck) ApplyChange(ctx context.Context) error {
	if c.dataClear == nil {
		return nil
	}

	graph, err := c.graph(ctx)
	if err != nil {
		return err
	}

	for _, q := range c.dataClear.queries() {
		if err := graph.Run(ctx, q); err != nil {
			return fmt.Errorf("clearing %s: %w", c.key, err)
		}
	}

	return nil
}
