package graphsync

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Literal layouts for temporal values.
const (
	DateLayout          = "2006-01-02"
	TimeLayout          = "15:04:05.999999999"
	LocalDateTimeLayout = "2006-01-02T15:04:05.999999999"
)

// DecodeValue decodes a YAML literal against its declared type.
func DecodeValue(n *yaml.Node, t ValueType) (Value, error) {
	if isNull(n) {
		return Null{}, nil
	}

	switch t := t.(type) {
	case BasicType:
		return decodeBasic(n, t)
	case StructType:
		return DecodeRow(n, t.Fields)
	case CollectionType:
		return decodeCollection(n, t)
	default:
		return nil, fmt.Errorf("%w: unknown type %T", ErrInvalidValue, t)
	}
}

// DecodeRow decodes a struct literal: a mapping keyed by field name, or a
// sequence holding the fields positionally. Missing mapping entries are Null.
func DecodeRow(n *yaml.Node, fields []FieldSchema) (StructValue, error) {
	values := make([]Value, len(fields))

	switch n.Kind {
	case yaml.MappingNode:
		byName := make(map[string]*yaml.Node, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			byName[n.Content[i].Value] = n.Content[i+1]
		}

		for i, f := range fields {
			child, ok := byName[f.Name]
			if !ok {
				values[i] = Null{}
				continue
			}

			delete(byName, f.Name)

			v, err := DecodeValue(child, f.Type)
			if err != nil {
				return StructValue{}, fmt.Errorf("field %q: %w", f.Name, err)
			}

			values[i] = v
		}

		for name := range byName {
			return StructValue{}, fmt.Errorf("%w: line %d: unknown field %q", ErrInvalidValue, n.Line, name)
		}
	case yaml.SequenceNode:
		if len(n.Content) != len(fields) {
			return StructValue{}, fmt.Errorf("%w: line %d: expected %d fields, got %d",
				ErrInvalidValue, n.Line, len(fields), len(n.Content))
		}

		for i, f := range fields {
			v, err := DecodeValue(n.Content[i], f.Type)
			if err != nil {
				return StructValue{}, fmt.Errorf("field %q: %w", f.Name, err)
			}

			values[i] = v
		}
	default:
		return StructValue{}, fmt.Errorf("%w: line %d: expected mapping or sequence", ErrInvalidValue, n.Line)
	}

	return StructValue{Fields: values}, nil
}

// DecodeKey decodes a row key. Single-field keys may be written as a bare
// scalar; composite keys use the DecodeRow forms.
func DecodeKey(n *yaml.Node, keyFields []FieldSchema) (KeyValue, error) {
	if len(keyFields) == 1 && n.Kind != yaml.MappingNode {
		v, err := DecodeValue(n, keyFields[0].Type)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", keyFields[0].Name, err)
		}

		return Key(v), nil
	}

	row, err := DecodeRow(n, keyFields)
	if err != nil {
		return nil, fmt.Errorf("key: %w", err)
	}

	return KeyValue(row.Fields), nil
}

func decodeCollection(n *yaml.Node, t CollectionType) (Value, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: line %d: expected sequence for %s", ErrInvalidValue, n.Line, t)
	}

	rows := make([]StructValue, len(n.Content))

	for i, child := range n.Content {
		row, err := DecodeRow(child, t.Row.Fields)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		rows[i] = row
	}

	if t.Kind != CollectionKindTable {
		return CollectionValue{Kind: t.Kind, Rows: rows}, nil
	}

	table := TableValue{Rows: make([]TableRow, len(rows))}
	for i, row := range rows {
		table.Rows[i] = TableRow{
			Key:   Key(row.Fields[0]),
			Value: StructValue{Fields: row.Fields[1:]},
		}
	}

	return table, nil
}

func decodeBasic(n *yaml.Node, t BasicType) (BasicValue, error) {
	if t.Kind == KindVector {
		return decodeVector(n, t)
	}

	if t.Kind == KindJSON {
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, invalid(n, t, err)
		}

		return JSON{V: normalizeJSON(v)}, nil
	}

	if t.Kind == KindRange {
		var r []uint64
		if err := n.Decode(&r); err != nil {
			return nil, invalid(n, t, err)
		}

		if len(r) != 2 {
			return nil, invalid(n, t, nil)
		}

		return Range{Start: r[0], End: r[1]}, nil
	}

	if n.Kind != yaml.ScalarNode {
		return nil, invalid(n, t, nil)
	}

	switch t.Kind {
	case KindStr:
		return Str(n.Value), nil
	case KindBool:
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, invalid(n, t, err)
		}

		return Bool(b), nil
	case KindInt64:
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, invalid(n, t, err)
		}

		return Int64(i), nil
	case KindFloat32:
		var f float32
		if err := n.Decode(&f); err != nil {
			return nil, invalid(n, t, err)
		}

		return Float32(f), nil
	case KindFloat64:
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, invalid(n, t, err)
		}

		return Float64(f), nil
	case KindBytes:
		if n.Tag != "!!str" && n.Tag != "!!binary" {
			return nil, invalid(n, t, nil)
		}

		b, err := base64.StdEncoding.DecodeString(n.Value)
		if err != nil {
			return nil, invalid(n, t, err)
		}

		return Bytes(b), nil
	case KindUUID:
		id, err := uuid.Parse(n.Value)
		if err != nil {
			return nil, invalid(n, t, err)
		}

		return UUID(id), nil
	case KindDate:
		ts, err := time.Parse(DateLayout, n.Value)
		if err != nil {
			return nil, invalid(n, t, err)
		}

		return Date(ts), nil
	case KindTime:
		ts, err := time.Parse(TimeLayout, n.Value)
		if err != nil {
			return nil, invalid(n, t, err)
		}

		return Time(ts), nil
	case KindLocalDateTime:
		ts, err := time.Parse(LocalDateTimeLayout, n.Value)
		if err != nil {
			return nil, invalid(n, t, err)
		}

		return LocalDateTime(ts), nil
	case KindOffsetDateTime:
		ts, err := time.Parse(time.RFC3339Nano, n.Value)
		if err != nil {
			return nil, invalid(n, t, err)
		}

		return OffsetDateTime(ts), nil
	case KindRange, KindJSON, KindVector:
	}

	return nil, invalid(n, t, nil)
}

func decodeVector(n *yaml.Node, t BasicType) (BasicValue, error) {
	if n.Kind != yaml.SequenceNode || t.Elem == nil {
		return nil, invalid(n, t, nil)
	}

	if t.Dimension > 0 && len(n.Content) != t.Dimension {
		return nil, fmt.Errorf("%w: line %d: %s has %d elements", ErrInvalidValue, n.Line, t, len(n.Content))
	}

	vec := make(Vector, len(n.Content))

	for i, child := range n.Content {
		v, err := decodeBasic(child, *t.Elem)
		if err != nil {
			return nil, err
		}

		vec[i] = v
	}

	return vec, nil
}

// normalizeJSON converts YAML-decoded documents into JSON-shaped values:
// map[any]any keys become strings and integers become json.Number.
// Floats stay float64 so 3.0 does not turn into an integer.
func normalizeJSON(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = normalizeJSON(e)
		}

		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = normalizeJSON(e)
		}

		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalizeJSON(e)
		}

		return out
	case int:
		return json.Number(fmt.Sprint(v))
	case uint64:
		return json.Number(fmt.Sprint(v))
	default:
		return v
	}
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func invalid(n *yaml.Node, t BasicType, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: line %d: %q is not a valid %s: %w", ErrInvalidValue, n.Line, n.Value, t, cause)
	}

	return fmt.Errorf("%w: line %d: expected %s", ErrInvalidValue, n.Line, t)
}
