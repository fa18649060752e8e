package neo4j

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rlch/graphsync/setup/components"
)

// componentOperator creates and drops constraints and vector indexes.
type componentOperator struct {
	graph func(ctx context.Context) (Graph, error)
}

var _ components.Operator[ComponentKey, ComponentState] = (*componentOperator)(nil)

func (o *componentOperator) DescribeKey(key ComponentKey) string {
	switch key.Kind {
	case ComponentKeyConstraint:
		return "KEY CONSTRAINT " + key.Name
	case ComponentVectorIndex:
		return "VECTOR INDEX " + key.Name
	default:
		return key.Name
	}
}

func (o *componentOperator) DescribeState(state ComponentState) string {
	desc := o.DescribeKey(state.Key()) + " ON " + state.Element.String()

	switch def := state.Index.(type) {
	case KeyConstraint:
		return fmt.Sprintf("%s (key: %s)", desc, strings.Join(def.FieldNames, ", "))
	case VectorIndex:
		return fmt.Sprintf("%s (field_name: %s, vector_size: %d, metric: %s)",
			desc, def.FieldName, def.Dimension, def.Metric)
	default:
		return desc
	}
}

func (o *componentOperator) IsUpToDate(current, desired ComponentState) bool {
	if current.Element != desired.Element {
		return false
	}

	switch cur := current.Index.(type) {
	case KeyConstraint:
		want, ok := desired.Index.(KeyConstraint)
		return ok && slices.Equal(cur.FieldNames, want.FieldNames)
	case VectorIndex:
		want, ok := desired.Index.(VectorIndex)
		return ok && cur == want
	default:
		return false
	}
}

func (o *componentOperator) Create(ctx context.Context, state ComponentState) error {
	q, err := createComponentCypher(state)
	if err != nil {
		return err
	}

	graph, err := o.graph(ctx)
	if err != nil {
		return err
	}

	return graph.Run(ctx, NewQuery(q))
}

func (o *componentOperator) Delete(ctx context.Context, key ComponentKey) error {
	q, err := dropComponentCypher(key)
	if err != nil {
		return err
	}

	graph, err := o.graph(ctx)
	if err != nil {
		return err
	}

	return graph.Run(ctx, NewQuery(q))
}

const matcherVariable = "e"

func createComponentCypher(state ComponentState) (string, error) {
	name := state.Key().Name
	matcher := state.Element.Matcher(matcherVariable)

	switch def := state.Index.(type) {
	case KeyConstraint:
		var entity string

		switch state.Element.(type) {
		case Node:
			entity = "NODE"
		case Relationship:
			entity = "RELATIONSHIP"
		default:
			return "", fmt.Errorf("%w: %T", ErrUnknownElementKind, state.Element)
		}

		return fmt.Sprintf("CREATE CONSTRAINT %s IF NOT EXISTS FOR %s REQUIRE %s IS %s KEY",
			name, matcher, propertyList(def.FieldNames), entity), nil
	case VectorIndex:
		return fmt.Sprintf(`CREATE VECTOR INDEX %s IF NOT EXISTS
FOR %s ON %s.%s
OPTIONS {
  indexConfig: {
    `+"`vector.dimensions`"+`: %d,
    `+"`vector.similarity_function`"+`: '%s'
  }
}`, name, matcher, matcherVariable, def.FieldName, def.Dimension, def.Metric), nil
	default:
		return "", fmt.Errorf("neo4j: unknown index definition %T", state.Index)
	}
}

func dropComponentCypher(key ComponentKey) (string, error) {
	switch key.Kind {
	case ComponentKeyConstraint:
		return fmt.Sprintf("DROP CONSTRAINT %s IF EXISTS", key.Name), nil
	case ComponentVectorIndex:
		return fmt.Sprintf("DROP INDEX %s IF EXISTS", key.Name), nil
	default:
		return "", fmt.Errorf("neo4j: unknown component kind %q", key.Kind)
	}
}

// propertyList renders e.a for one field and (e.a, e.b) for several.
func propertyList(fields []string) string {
	props := make([]string, len(fields))
	for i, f := range fields {
		props[i] = matcherVariable + "." + f
	}

	if len(props) == 1 {
		return props[0]
	}

	return "(" + strings.Join(props, ", ") + ")"
}
