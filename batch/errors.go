package batch

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrBatchNotFound = errors.New("batch file not found")
	ErrParseError    = errors.New("parse error")
	ErrNoBatchFiles  = errors.New("no batch files found")
)

// LoadError describes a failure to load a batch file.
type LoadError struct {
	Path  string
	Line  int
	Cause error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Cause)
	}

	return fmt.Sprintf("%s: %v", e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
