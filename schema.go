package graphsync

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a field declaration.
//
// Basic types are written as strings; struct and collection types as a
// single-key mapping whose value is the list of nested fields:
//
//	- name: embedding
//	  type: vector[384]float32
//	- name: tags
//	  type:
//	    list:
//	      - name: tag
//	        type: str
func (f *FieldSchema) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name string    `yaml:"name"`
		Type yaml.Node `yaml:"type"`
	}

	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Name == "" {
		return fmt.Errorf("line %d: field without name", node.Line)
	}

	t, err := decodeTypeNode(&raw.Type)
	if err != nil {
		return fmt.Errorf("field %q: %w", raw.Name, err)
	}

	f.Name = raw.Name
	f.Type = t

	return nil
}

func decodeTypeNode(n *yaml.Node) (ValueType, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return ParseType(n.Value)
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected exactly one of struct, collection, list, table",
				ErrUnrecognizedType, n.Line)
		}

		var fields []FieldSchema
		if err := n.Content[1].Decode(&fields); err != nil {
			return nil, err
		}

		switch kind := n.Content[0].Value; kind {
		case "struct":
			return StructType{Fields: fields}, nil
		case string(CollectionKindCollection), string(CollectionKindList):
			return CollectionType{Kind: CollectionKind(kind), Row: StructType{Fields: fields}}, nil
		case string(CollectionKindTable):
			if len(fields) == 0 {
				return nil, fmt.Errorf("%w: table needs a key field", ErrUnrecognizedType)
			}

			return CollectionType{Kind: CollectionKindTable, Row: StructType{Fields: fields}}, nil
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnrecognizedType, kind)
		}
	case 0:
		return nil, ErrEmptyTypeString
	default:
		return nil, fmt.Errorf("%w: line %d", ErrUnrecognizedType, n.Line)
	}
}
