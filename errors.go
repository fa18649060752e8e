package graphsync

import "errors"

// Sentinel errors.
var (
	// ErrConfigNotFound is returned when no .graphsync.yaml is found.
	ErrConfigNotFound = errors.New("graphsync: no .graphsync.yaml found")

	// ErrAuthEntryNotFound is returned when a connection reference is not registered.
	ErrAuthEntryNotFound = errors.New("graphsync: auth entry not found")

	// ErrInvalidMapping is returned when a target mapping is missing or ambiguous.
	ErrInvalidMapping = errors.New("graphsync: invalid mapping")

	// ErrUnknownTarget is returned when a batch names a target that is not configured.
	ErrUnknownTarget = errors.New("graphsync: unknown target")

	// ErrKeyArity is returned when a key has the wrong number of parts.
	ErrKeyArity = errors.New("graphsync: key arity mismatch")

	// ErrUnsupportedMetric is returned for similarity metrics Neo4j cannot index.
	ErrUnsupportedMetric = errors.New("graphsync: unsupported similarity metric")

	// ErrInvalidValue is returned when a literal cannot be decoded against its declared type.
	ErrInvalidValue = errors.New("graphsync: invalid value")
)

// Type parsing errors.
var (
	ErrEmptyTypeString   = errors.New("graphsync: empty type string")
	ErrInvalidVectorType = errors.New("graphsync: invalid vector type")
	ErrUnrecognizedType  = errors.New("graphsync: unrecognized type")
)
