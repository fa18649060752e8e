package runner

import "errors"

// Sentinel errors for the runner package.
var (
	// ErrMaxFailures is returned when the max failure limit is reached.
	ErrMaxFailures = errors.New("runner: max failures reached")

	// ErrNoFactory is returned when no target factory is configured.
	ErrNoFactory = errors.New("runner: no factory configured")

	// ErrDuplicateElement is returned when two targets export to the same graph element.
	ErrDuplicateElement = errors.New("runner: targets share a graph element")

	// Test errors for use in unit tests.
	errTestStop = errors.New("test: stop")
)
