package graphsync

import (
	"fmt"
)

// AuthEntryReference names a connection registered in an AuthRegistry.
type AuthEntryReference struct {
	Key string `yaml:"key" json:"key"`
}

func (r AuthEntryReference) String() string {
	return r.Key
}

// GraphElementMapping maps a target's rows onto graph elements.
// It is a closed set: NodeMapping and RelationshipMapping.
type GraphElementMapping interface {
	graphElementMapping()
}

// NodeMapping exports each row as a node with the given label.
type NodeMapping struct {
	Label string `yaml:"label"`
}

// RelationshipMapping exports each row as a relationship between two nodes.
// Fields claimed by Source or Target become endpoint node properties;
// the remaining fields become relationship properties.
type RelationshipMapping struct {
	RelType string               `yaml:"rel_type"`
	Source  NodeReferenceMapping `yaml:"source"`
	Target  NodeReferenceMapping `yaml:"target"`

	// NodesStorageSpec configures endpoint labels owned by this relationship.
	NodesStorageSpec map[string]NodeStorageSpec `yaml:"nodes_storage_spec,omitempty"`
}

// NodeReferenceMapping describes one relationship endpoint.
type NodeReferenceMapping struct {
	Label  string               `yaml:"label"`
	Fields []TargetFieldMapping `yaml:"fields"`
}

// TargetFieldMapping maps a row field to a node property.
type TargetFieldMapping struct {
	Source string `yaml:"source"`
	Target string `yaml:"target,omitempty"`
}

// TargetName returns the property name, defaulting to the source field name.
func (m TargetFieldMapping) TargetName() string {
	if m.Target != "" {
		return m.Target
	}

	return m.Source
}

// NodeStorageSpec holds per-label options for endpoint nodes.
type NodeStorageSpec struct {
	IndexOptions IndexOptions `yaml:"index_options"`
}

func (NodeMapping) graphElementMapping()         {}
func (RelationshipMapping) graphElementMapping() {}

// IndexOptions declares primary keys and vector indexes.
type IndexOptions struct {
	// PrimaryKeyFields is nil when no primary key is declared.
	PrimaryKeyFields []string        `yaml:"primary_key_fields,omitempty"`
	VectorIndexes    []VectorIndexDef `yaml:"vector_indexes,omitempty"`
}

// VectorIndexDef declares a vector index on one field.
type VectorIndexDef struct {
	FieldName string                 `yaml:"field_name"`
	Metric    VectorSimilarityMetric `yaml:"metric"`
}

// VectorSimilarityMetric is a vector similarity function.
type VectorSimilarityMetric string

// Similarity metric constants.
const (
	MetricCosine       VectorSimilarityMetric = "cosine"
	MetricL2Distance   VectorSimilarityMetric = "l2"
	MetricInnerProduct VectorSimilarityMetric = "inner_product"
)

// Neo4jName returns the similarity_function name Neo4j understands.
func (m VectorSimilarityMetric) Neo4jName() (string, error) {
	switch m {
	case MetricCosine:
		return "cosine", nil
	case MetricL2Distance:
		return "euclidean", nil
	case MetricInnerProduct:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMetric, m)
	}

	return "", fmt.Errorf("%w: %q", ErrUnsupportedMetric, string(m))
}

// MappingConfig is the YAML form of a GraphElementMapping.
// Exactly one of Node and Relationship must be set.
type MappingConfig struct {
	Node         *NodeMapping         `yaml:"node,omitempty"`
	Relationship *RelationshipMapping `yaml:"relationship,omitempty"`
}

// Mapping returns the configured mapping.
func (c MappingConfig) Mapping() (GraphElementMapping, error) {
	switch {
	case c.Node != nil && c.Relationship != nil:
		return nil, fmt.Errorf("%w: both node and relationship set", ErrInvalidMapping)
	case c.Node != nil:
		if c.Node.Label == "" {
			return nil, fmt.Errorf("%w: node label is empty", ErrInvalidMapping)
		}

		return *c.Node, nil
	case c.Relationship != nil:
		if c.Relationship.RelType == "" {
			return nil, fmt.Errorf("%w: relationship type is empty", ErrInvalidMapping)
		}

		return *c.Relationship, nil
	default:
		return nil, fmt.Errorf("%w: neither node nor relationship set", ErrInvalidMapping)
	}
}
