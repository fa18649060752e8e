package neo4j

import "errors"

// Sentinel errors.
var (
	// ErrTypeMismatch is returned when a value does not match its declared type.
	ErrTypeMismatch = errors.New("neo4j: value does not match declared type")

	// ErrUnsupportedValue is returned for values Neo4j cannot store.
	ErrUnsupportedValue = errors.New("neo4j: unsupported value")

	// ErrUnmappedField is returned when an endpoint mapping names fields the row does not have.
	ErrUnmappedField = errors.New("neo4j: fields not found in row")

	// ErrMissingKeyField is returned when a declared primary key is not mapped.
	ErrMissingKeyField = errors.New("neo4j: primary key field not mapped")

	// ErrNoKeyFields is returned when a node label ends up without key fields.
	ErrNoKeyFields = errors.New("neo4j: no key fields")

	// ErrInvalidIndexField is returned when a vector index names an unknown field
	// or a field that is not a fixed-dimension vector.
	ErrInvalidIndexField = errors.New("neo4j: invalid vector index field")

	// ErrUnknownElementKind is returned for element kinds outside Node and Relationship.
	ErrUnknownElementKind = errors.New("neo4j: unknown element kind")
)
