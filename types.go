package graphsync

import (
	"fmt"
	"strconv"
	"strings"
)

// BasicKind identifies a scalar (or vector) value type.
type BasicKind string

// Basic kind constants.
const (
	KindBytes          BasicKind = "bytes"
	KindStr            BasicKind = "str"
	KindBool           BasicKind = "bool"
	KindInt64          BasicKind = "int64"
	KindFloat32        BasicKind = "float32"
	KindFloat64        BasicKind = "float64"
	KindRange          BasicKind = "range"
	KindUUID           BasicKind = "uuid"
	KindDate           BasicKind = "date"
	KindTime           BasicKind = "time"
	KindLocalDateTime  BasicKind = "local_datetime"
	KindOffsetDateTime BasicKind = "offset_datetime"
	KindJSON           BasicKind = "json"
	KindVector         BasicKind = "vector"
)

// CollectionKind distinguishes the three row-container shapes.
type CollectionKind string

// Collection kind constants.
const (
	CollectionKindCollection CollectionKind = "collection"
	CollectionKindList       CollectionKind = "list"
	CollectionKindTable      CollectionKind = "table"
)

// ValueType is the declared schema type of a field.
// It is a closed set: BasicType, StructType and CollectionType.
type ValueType interface {
	fmt.Stringer
	valueType()
}

// BasicType is a scalar type, or a vector of basic elements.
type BasicType struct {
	Kind BasicKind

	// Elem is the element type when Kind is KindVector.
	Elem *BasicType

	// Dimension is the fixed vector length. Zero means unspecified.
	Dimension int
}

// StructType is a positional record of named fields.
type StructType struct {
	Fields []FieldSchema
}

// CollectionType is a list of rows sharing one struct schema.
// For tables, the first row field is the row key.
type CollectionType struct {
	Kind CollectionKind
	Row  StructType
}

// FieldSchema names a field and declares its type.
type FieldSchema struct {
	Name string
	Type ValueType
}

func (BasicType) valueType()      {}
func (StructType) valueType()     {}
func (CollectionType) valueType() {}

// String returns the type in the same syntax ParseType accepts.
func (t BasicType) String() string {
	if t.Kind != KindVector {
		return string(t.Kind)
	}

	elem := "?"
	if t.Elem != nil {
		elem = t.Elem.String()
	}

	if t.Dimension > 0 {
		return "vector[" + strconv.Itoa(t.Dimension) + "]" + elem
	}

	return "vector[]" + elem
}

func (t StructType) String() string {
	return "struct{" + fieldsString(t.Fields) + "}"
}

func (t CollectionType) String() string {
	return string(t.Kind) + "{" + fieldsString(t.Row.Fields) + "}"
}

func fieldsString(fields []FieldSchema) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		typ := "?"
		if f.Type != nil {
			typ = f.Type.String()
		}

		parts[i] = f.Name + " " + typ
	}

	return strings.Join(parts, ", ")
}

// VectorDimension returns the fixed dimension of a vector type.
// The second result is false for non-vector types and vectors without a fixed size.
func VectorDimension(t ValueType) (int, bool) {
	bt, ok := t.(BasicType)
	if !ok || bt.Kind != KindVector || bt.Dimension <= 0 {
		return 0, false
	}

	return bt.Dimension, true
}

// ParseType parses a basic type string.
//
// Examples:
//
//	"str"                 -> BasicType{Kind: KindStr}
//	"vector[384]float32"  -> 384-dimensional float32 vector
//	"vector[]float64"     -> float64 vector of unspecified size
//	"vector[2]vector[]str" -> nested vectors
//
// Struct and collection types are only expressible in YAML (see FieldSchema.UnmarshalYAML).
func ParseType(s string) (BasicType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return BasicType{}, ErrEmptyTypeString
	}

	if rest, ok := strings.CutPrefix(s, "vector["); ok {
		closeIdx := strings.Index(rest, "]")
		if closeIdx == -1 {
			return BasicType{}, fmt.Errorf("%w: %s", ErrInvalidVectorType, s)
		}

		var dim int

		if lenStr := rest[:closeIdx]; lenStr != "" {
			n, err := strconv.Atoi(lenStr)
			if err != nil || n <= 0 {
				return BasicType{}, fmt.Errorf("%w: invalid dimension %q", ErrInvalidVectorType, lenStr)
			}

			dim = n
		}

		elem, err := ParseType(rest[closeIdx+1:])
		if err != nil {
			return BasicType{}, err
		}

		return VectorOf(elem, dim), nil
	}

	kind := BasicKind(s)
	if !isScalarKind(kind) {
		return BasicType{}, fmt.Errorf("%w: %s", ErrUnrecognizedType, s)
	}

	return BasicType{Kind: kind}, nil
}

func isScalarKind(k BasicKind) bool {
	switch k {
	case KindBytes, KindStr, KindBool, KindInt64, KindFloat32, KindFloat64, KindRange,
		KindUUID, KindDate, KindTime, KindLocalDateTime, KindOffsetDateTime, KindJSON:
		return true
	case KindVector:
		return false
	}

	return false
}

// Basic type shorthands.
var (
	TypeStr     = BasicType{Kind: KindStr}
	TypeInt64   = BasicType{Kind: KindInt64}
	TypeFloat32 = BasicType{Kind: KindFloat32}
	TypeFloat64 = BasicType{Kind: KindFloat64}
	TypeBool    = BasicType{Kind: KindBool}
)

// VectorOf creates a vector type. A dim of zero leaves the size unspecified.
func VectorOf(elem BasicType, dim int) BasicType {
	return BasicType{Kind: KindVector, Elem: &elem, Dimension: dim}
}

// Field is shorthand for FieldSchema{Name: name, Type: t}.
func Field(name string, t ValueType) FieldSchema {
	return FieldSchema{Name: name, Type: t}
}
