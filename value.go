package graphsync

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Value is a field value produced by the pipeline.
// It is a closed set: Null, the BasicValue kinds, StructValue, CollectionValue and TableValue.
type Value interface {
	isValue()
}

// BasicValue is a scalar or vector value.
type BasicValue interface {
	Value
	Kind() BasicKind
}

// Null is the absent value.
type Null struct{}

type (
	// Bytes is an opaque byte string.
	Bytes []byte
	// Str is a UTF-8 string.
	Str string
	// Bool is a boolean.
	Bool bool
	// Int64 is a 64-bit signed integer.
	Int64 int64
	// Float32 is a 32-bit float.
	Float32 float32
	// Float64 is a 64-bit float.
	Float64 float64
	// UUID is a 128-bit identifier.
	UUID uuid.UUID
	// Date is a calendar date; only the year, month and day are meaningful.
	Date time.Time
	// Time is a time of day without zone.
	Time time.Time
	// LocalDateTime is a date and time without zone.
	LocalDateTime time.Time
	// OffsetDateTime is a date and time with a fixed zone offset.
	OffsetDateTime time.Time
	// Vector is a list of basic values.
	Vector []BasicValue
)

// Range is a half-open numeric range [Start, End).
type Range struct {
	Start uint64
	End   uint64
}

// JSON holds arbitrary decoded JSON: nil, bool, string, json.Number, float64,
// int64, []any or map[string]any.
type JSON struct {
	V any
}

// StructValue holds field values positionally, in the order of the declared StructType.
type StructValue struct {
	Fields []Value
}

// CollectionValue holds rows of a collection or list.
type CollectionValue struct {
	Kind CollectionKind
	Rows []StructValue
}

// TableRow is one keyed row of a table.
// Value holds the row fields that follow the key.
type TableRow struct {
	Key   KeyValue
	Value StructValue
}

// TableValue holds keyed rows.
type TableValue struct {
	Rows []TableRow
}

func (Null) isValue()            {}
func (Bytes) isValue()           {}
func (Str) isValue()             {}
func (Bool) isValue()            {}
func (Int64) isValue()           {}
func (Float32) isValue()         {}
func (Float64) isValue()         {}
func (Range) isValue()           {}
func (UUID) isValue()            {}
func (Date) isValue()            {}
func (Time) isValue()            {}
func (LocalDateTime) isValue()   {}
func (OffsetDateTime) isValue()  {}
func (JSON) isValue()            {}
func (Vector) isValue()          {}
func (StructValue) isValue()     {}
func (CollectionValue) isValue() {}
func (TableValue) isValue()      {}

func (Bytes) Kind() BasicKind          { return KindBytes }
func (Str) Kind() BasicKind            { return KindStr }
func (Bool) Kind() BasicKind           { return KindBool }
func (Int64) Kind() BasicKind          { return KindInt64 }
func (Float32) Kind() BasicKind        { return KindFloat32 }
func (Float64) Kind() BasicKind        { return KindFloat64 }
func (Range) Kind() BasicKind          { return KindRange }
func (UUID) Kind() BasicKind           { return KindUUID }
func (Date) Kind() BasicKind           { return KindDate }
func (Time) Kind() BasicKind           { return KindTime }
func (LocalDateTime) Kind() BasicKind  { return KindLocalDateTime }
func (OffsetDateTime) Kind() BasicKind { return KindOffsetDateTime }
func (JSON) Kind() BasicKind           { return KindJSON }
func (Vector) Kind() BasicKind         { return KindVector }

// KeyValue is a row key. A single-field key has one part;
// a composite key has one part per key field, in key-field order.
type KeyValue []Value

// Key builds a KeyValue from its parts.
func Key(parts ...Value) KeyValue {
	return KeyValue(parts)
}

// Fields returns the key split into n field values.
func (k KeyValue) Fields(n int) ([]Value, error) {
	if len(k) != n {
		return nil, fmt.Errorf("%w: expected %d key parts, got %d", ErrKeyArity, n, len(k))
	}

	return k, nil
}

// AsValue returns the key as a single value: the sole part for single-field
// keys, a StructValue of the parts otherwise.
func (k KeyValue) AsValue() Value {
	if len(k) == 1 {
		return k[0]
	}

	return StructValue{Fields: append([]Value(nil), k...)}
}

// Row is shorthand for StructValue{Fields: fields}.
func Row(fields ...Value) StructValue {
	return StructValue{Fields: fields}
}
