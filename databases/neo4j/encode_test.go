//nolint:testpackage
package neo4j

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/rlch/graphsync"
)

var temporalComparers = cmp.Options{
	cmp.Comparer(func(a, b dbtype.Date) bool { return time.Time(a).Equal(time.Time(b)) }),
	cmp.Comparer(func(a, b dbtype.LocalTime) bool { return time.Time(a).Equal(time.Time(b)) }),
	cmp.Comparer(func(a, b dbtype.LocalDateTime) bool { return time.Time(a).Equal(time.Time(b)) }),
}

func TestEncodeValue(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	moment := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("", 3600))
	id := uuid.MustParse("2b5c1f3e-8d2a-4f59-9a3c-1d2e3f4a5b6c")

	person := graphsync.StructType{Fields: []graphsync.FieldSchema{
		graphsync.Field("name", graphsync.TypeStr),
		graphsync.Field("age", graphsync.TypeInt64),
	}}

	tests := []struct {
		name  string
		value graphsync.Value
		typ   graphsync.ValueType
		want  any
	}{
		{"null", graphsync.Null{}, graphsync.TypeStr, nil},
		{"bool", graphsync.Bool(true), graphsync.TypeBool, true},
		{"int64", graphsync.Int64(30), graphsync.TypeInt64, int64(30)},
		{"float32 widens", graphsync.Float32(1.5), graphsync.TypeFloat32, float64(1.5)},
		{"float64", graphsync.Float64(2.25), graphsync.TypeFloat64, 2.25},
		{"str", graphsync.Str("Alice"), graphsync.TypeStr, "Alice"},
		{"bytes", graphsync.Bytes("hi"), graphsync.BasicType{Kind: graphsync.KindBytes}, []byte("hi")},
		{"uuid", graphsync.UUID(id), graphsync.BasicType{Kind: graphsync.KindUUID}, id.String()},
		{"date", graphsync.Date(day), graphsync.BasicType{Kind: graphsync.KindDate}, dbtype.Date(day)},
		{"time", graphsync.Time(moment), graphsync.BasicType{Kind: graphsync.KindTime}, dbtype.LocalTime(moment)},
		{
			"local datetime", graphsync.LocalDateTime(moment),
			graphsync.BasicType{Kind: graphsync.KindLocalDateTime}, dbtype.LocalDateTime(moment),
		},
		{"offset datetime", graphsync.OffsetDateTime(moment), graphsync.BasicType{Kind: graphsync.KindOffsetDateTime}, moment},
		{"range", graphsync.Range{Start: 1, End: 5}, graphsync.BasicType{Kind: graphsync.KindRange}, []any{int64(1), int64(5)}},
		{
			"json",
			graphsync.JSON{V: map[string]any{
				"count": json.Number("3"),
				"ratio": 2.5,
				"whole": 3.0,
				"tags":  []any{"a", true, nil},
			}},
			graphsync.BasicType{Kind: graphsync.KindJSON},
			map[string]any{
				"count": int64(3),
				"ratio": 2.5,
				"whole": 3.0,
				"tags":  []any{"a", true, nil},
			},
		},
		{
			"vector",
			graphsync.Vector{graphsync.Float32(1), graphsync.Float32(0.5)},
			graphsync.VectorOf(graphsync.TypeFloat32, 2),
			[]any{float64(1), float64(0.5)},
		},
		{
			"struct",
			graphsync.Row(graphsync.Str("Alice"), graphsync.Int64(30)),
			person,
			map[string]any{"name": "Alice", "age": int64(30)},
		},
		{
			"list",
			graphsync.CollectionValue{Kind: graphsync.CollectionKindList, Rows: []graphsync.StructValue{
				graphsync.Row(graphsync.Str("Bob"), graphsync.Null{}),
			}},
			graphsync.CollectionType{Kind: graphsync.CollectionKindList, Row: person},
			[]any{map[string]any{"name": "Bob", "age": nil}},
		},
		{
			"table prepends key",
			graphsync.TableValue{Rows: []graphsync.TableRow{
				{Key: graphsync.Key(graphsync.Str("Carol")), Value: graphsync.Row(graphsync.Int64(41))},
			}},
			graphsync.CollectionType{Kind: graphsync.CollectionKindTable, Row: person},
			[]any{map[string]any{"name": "Carol", "age": int64(41)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeValue(tt.value, tt.typ)
			if err != nil {
				t.Fatalf("encodeValue() error: %v", err)
			}

			if diff := cmp.Diff(tt.want, got, temporalComparers); diff != "" {
				t.Errorf("encodeValue() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeValue_Errors(t *testing.T) {
	person := graphsync.StructType{Fields: []graphsync.FieldSchema{
		graphsync.Field("name", graphsync.TypeStr),
		graphsync.Field("age", graphsync.TypeInt64),
	}}

	tests := []struct {
		name    string
		value   graphsync.Value
		typ     graphsync.ValueType
		wantErr error
	}{
		{"kind mismatch", graphsync.Str("x"), graphsync.TypeInt64, ErrTypeMismatch},
		{"struct for basic", graphsync.Row(graphsync.Str("x")), graphsync.TypeStr, ErrTypeMismatch},
		{"vector for scalar type", graphsync.Vector{graphsync.Float32(1)}, graphsync.TypeFloat32, ErrTypeMismatch},
		{
			"vector element mismatch",
			graphsync.Vector{graphsync.Str("x")},
			graphsync.VectorOf(graphsync.TypeFloat32, 1),
			ErrTypeMismatch,
		},
		{"struct field count", graphsync.Row(graphsync.Str("x")), person, ErrTypeMismatch},
		{
			"table for list",
			graphsync.TableValue{},
			graphsync.CollectionType{Kind: graphsync.CollectionKindList, Row: person},
			ErrTypeMismatch,
		},
		{"json nan", graphsync.JSON{V: math.NaN()}, graphsync.BasicType{Kind: graphsync.KindJSON}, ErrUnsupportedValue},
		{
			"json unsupported type",
			graphsync.JSON{V: struct{}{}},
			graphsync.BasicType{Kind: graphsync.KindJSON},
			ErrUnsupportedValue,
		},
		{
			"range overflow",
			graphsync.Range{Start: 0, End: math.MaxUint64},
			graphsync.BasicType{Kind: graphsync.KindRange},
			ErrUnsupportedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := encodeValue(tt.value, tt.typ)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("encodeValue() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeJSON_LargeIntegerFallsBackToFloat(t *testing.T) {
	got, err := encodeJSON(json.Number("18446744073709551615"))
	if err != nil {
		t.Fatalf("encodeJSON() error: %v", err)
	}

	if _, ok := got.(float64); !ok {
		t.Errorf("encodeJSON() = %T, want float64", got)
	}
}
