package neo4j

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rlch/graphsync"
)

// ElementKind is the label of a node or the type of a relationship.
// It is a closed set: Node and Relationship.
type ElementKind interface {
	fmt.Stringer

	// Name returns the label or relationship type.
	Name() string

	// Matcher returns the Cypher pattern binding variable to elements of this kind.
	Matcher(variable string) string

	// abbrev prefixes schema object names: n for nodes, r for relationships.
	abbrev() string
}

// Node is the node label kind.
type Node struct {
	Label string
}

// Relationship is the relationship type kind.
type Relationship struct {
	Type string
}

func (n Node) Name() string         { return n.Label }
func (r Relationship) Name() string { return r.Type }

func (n Node) Matcher(variable string) string {
	return fmt.Sprintf("(%s:%s)", variable, n.Label)
}

func (r Relationship) Matcher(variable string) string {
	return fmt.Sprintf("()-[%s:%s]->()", variable, r.Type)
}

func (n Node) String() string         { return fmt.Sprintf("Node(label:%s)", n.Label) }
func (r Relationship) String() string { return fmt.Sprintf("Relationship(type:%s)", r.Type) }

func (Node) abbrev() string         { return "n" }
func (Relationship) abbrev() string { return "r" }

// kindOf returns the element kind a mapping exports to.
func kindOf(mapping graphsync.GraphElementMapping) (ElementKind, error) {
	switch m := mapping.(type) {
	case graphsync.NodeMapping:
		return Node{Label: m.Label}, nil
	case graphsync.RelationshipMapping:
		return Relationship{Type: m.RelType}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownElementKind, mapping)
	}
}

// elementKindYAML is the persisted form of an ElementKind.
type elementKindYAML struct {
	Node         string `yaml:"node,omitempty" json:"node,omitempty"`
	Relationship string `yaml:"relationship,omitempty" json:"relationship,omitempty"`
}

func toElementKindYAML(k ElementKind) elementKindYAML {
	switch k := k.(type) {
	case Node:
		return elementKindYAML{Node: k.Label}
	case Relationship:
		return elementKindYAML{Relationship: k.Type}
	default:
		return elementKindYAML{}
	}
}

func (y elementKindYAML) kind() (ElementKind, error) {
	switch {
	case y.Node != "" && y.Relationship == "":
		return Node{Label: y.Node}, nil
	case y.Relationship != "" && y.Node == "":
		return Relationship{Type: y.Relationship}, nil
	default:
		return nil, fmt.Errorf("%w: %+v", ErrUnknownElementKind, y)
	}
}

// GraphElement identifies an export target: one element kind on one connection.
type GraphElement struct {
	Connection graphsync.AuthEntryReference
	Kind       ElementKind
}

func (g GraphElement) String() string {
	return g.Connection.Key + "/" + g.Kind.String()
}

type graphElementYAML struct {
	Connection      string `yaml:"connection"`
	elementKindYAML `yaml:",inline"`
}

// MarshalYAML implements yaml.Marshaler.
func (g GraphElement) MarshalYAML() (any, error) {
	if g.Kind == nil {
		return nil, fmt.Errorf("%w: nil", ErrUnknownElementKind)
	}

	return graphElementYAML{Connection: g.Connection.Key, elementKindYAML: toElementKindYAML(g.Kind)}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (g *GraphElement) UnmarshalYAML(node *yaml.Node) error {
	var y graphElementYAML
	if err := node.Decode(&y); err != nil {
		return err
	}

	kind, err := y.kind()
	if err != nil {
		return err
	}

	*g = GraphElement{Connection: graphsync.AuthEntryReference{Key: y.Connection}, Kind: kind}

	return nil
}
