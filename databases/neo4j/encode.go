package neo4j

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/rlch/graphsync"
)

// encodeValue converts v into a driver parameter value according to its declared type.
func encodeValue(v graphsync.Value, t graphsync.ValueType) (any, error) {
	if _, ok := v.(graphsync.Null); ok || v == nil {
		return nil, nil
	}

	switch t := t.(type) {
	case graphsync.BasicType:
		bv, ok := v.(graphsync.BasicValue)
		if !ok {
			return nil, mismatch(v, t)
		}

		return encodeBasic(bv, t)
	case graphsync.StructType:
		sv, ok := v.(graphsync.StructValue)
		if !ok {
			return nil, mismatch(v, t)
		}

		return encodeFields(sv.Fields, t.Fields)
	case graphsync.CollectionType:
		return encodeCollection(v, t)
	default:
		return nil, fmt.Errorf("%w: unknown type %T", ErrTypeMismatch, t)
	}
}

func mismatch(v graphsync.Value, t graphsync.ValueType) error {
	return fmt.Errorf("%w: expected %s, got %T", ErrTypeMismatch, t, v)
}

// encodeFields zips values with their schemas into a property map.
func encodeFields(values []graphsync.Value, fields []graphsync.FieldSchema) (map[string]any, error) {
	if len(values) != len(fields) {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrTypeMismatch, len(fields), len(values))
	}

	out := make(map[string]any, len(fields))

	for i, f := range fields {
		enc, err := encodeValue(values[i], f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}

		out[f.Name] = enc
	}

	return out, nil
}

func encodeCollection(v graphsync.Value, t graphsync.CollectionType) (any, error) {
	switch cv := v.(type) {
	case graphsync.CollectionValue:
		if t.Kind == graphsync.CollectionKindTable {
			return nil, mismatch(v, t)
		}

		out := make([]any, len(cv.Rows))

		for i, row := range cv.Rows {
			enc, err := encodeFields(row.Fields, t.Row.Fields)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}

			out[i] = enc
		}

		return out, nil
	case graphsync.TableValue:
		if t.Kind != graphsync.CollectionKindTable {
			return nil, mismatch(v, t)
		}

		out := make([]any, len(cv.Rows))

		for i, row := range cv.Rows {
			values := make([]graphsync.Value, 0, len(row.Value.Fields)+1)
			values = append(values, row.Key.AsValue())
			values = append(values, row.Value.Fields...)

			enc, err := encodeFields(values, t.Row.Fields)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}

			out[i] = enc
		}

		return out, nil
	default:
		return nil, mismatch(v, t)
	}
}

func encodeBasic(v graphsync.BasicValue, t graphsync.BasicType) (any, error) {
	if v.Kind() != t.Kind {
		return nil, mismatch(v, t)
	}

	switch v := v.(type) {
	case graphsync.Bool:
		return bool(v), nil
	case graphsync.Int64:
		return int64(v), nil
	case graphsync.Float32:
		return float64(v), nil
	case graphsync.Float64:
		return float64(v), nil
	case graphsync.Str:
		return string(v), nil
	case graphsync.Bytes:
		return []byte(v), nil
	case graphsync.UUID:
		return uuid.UUID(v).String(), nil
	case graphsync.Date:
		return dbtype.Date(time.Time(v)), nil
	case graphsync.Time:
		return dbtype.LocalTime(time.Time(v)), nil
	case graphsync.LocalDateTime:
		return dbtype.LocalDateTime(time.Time(v)), nil
	case graphsync.OffsetDateTime:
		return time.Time(v), nil
	case graphsync.Range:
		if v.Start > math.MaxInt64 || v.End > math.MaxInt64 {
			return nil, fmt.Errorf("%w: range %d..%d exceeds int64", ErrUnsupportedValue, v.Start, v.End)
		}

		return []any{int64(v.Start), int64(v.End)}, nil
	case graphsync.JSON:
		return encodeJSON(v.V)
	case graphsync.Vector:
		if t.Elem == nil {
			return nil, mismatch(v, t)
		}

		out := make([]any, len(v))

		for i, elem := range v {
			enc, err := encodeBasic(elem, *t.Elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}

			out[i] = enc
		}

		return out, nil
	default:
		return nil, mismatch(v, t)
	}
}

// encodeJSON converts a decoded JSON document into driver values.
// Integral numbers that fit become int64; other numbers become float64.
func encodeJSON(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case bool, string, int64:
		return v, nil
	case int:
		return int64(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}

		f, err := v.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("%w: json number %s", ErrUnsupportedValue, v)
		}

		return f, nil
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("%w: json number %v", ErrUnsupportedValue, v)
		}

		return v, nil
	case []any:
		out := make([]any, len(v))

		for i, e := range v {
			enc, err := encodeJSON(e)
			if err != nil {
				return nil, err
			}

			out[i] = enc
		}

		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))

		for k, e := range v {
			enc, err := encodeJSON(e)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}

			out[k] = enc
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: json value of type %T", ErrUnsupportedValue, v)
	}
}
