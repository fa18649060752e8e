// Package setup holds the contracts between export targets and the
// reconciliation engine that brings backend schema in line with a desired state.
package setup

import (
	"context"
	"fmt"
)

// ChangeType classifies the change a status check would apply.
type ChangeType int

// Change types, weakest first.
const (
	NoChange ChangeType = iota
	Create
	Update
	Delete
)

func (c ChangeType) String() string {
	switch c {
	case NoChange:
		return "no change"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(c))
	}
}

// Compatibility reports whether existing data survives a state change.
type Compatibility int

// Compatibility values.
const (
	Compatible Compatibility = iota
	NotCompatible
)

func (c Compatibility) String() string {
	if c == Compatible {
		return "compatible"
	}

	return "not compatible"
}

// CombinedState is the existing state of a resource as seen by the engine:
// the last committed version plus any staged versions that may or may not
// have been applied.
type CombinedState[S any] struct {
	Current *S  `yaml:"current,omitempty" json:"current,omitempty"`
	Staging []S `yaml:"staging,omitempty" json:"staging,omitempty"`
}

// Existing returns a CombinedState holding only the committed version s.
func Existing[S any](s S) CombinedState[S] {
	return CombinedState[S]{Current: &s}
}

// PossibleVersions returns every version the backend may currently hold,
// the committed one first.
func (c CombinedState[S]) PossibleVersions() []S {
	versions := make([]S, 0, len(c.Staging)+1)
	if c.Current != nil {
		versions = append(versions, *c.Current)
	}

	return append(versions, c.Staging...)
}

// IsEmpty reports whether nothing is known to exist.
func (c CombinedState[S]) IsEmpty() bool {
	return c.Current == nil && len(c.Staging) == 0
}

// StatusCheck describes and applies the change needed for one resource.
type StatusCheck interface {
	// DescribeChanges returns human-readable descriptions of pending actions.
	DescribeChanges() []string
	// ChangeType classifies the pending change.
	ChangeType() ChangeType
	// ApplyChange performs the pending actions.
	ApplyChange(ctx context.Context) error
}

// Combine merges checks into one that applies them in order.
// The combined change type is NoChange only when every check is NoChange,
// the shared type when all changing checks agree, and Update otherwise.
func Combine(checks ...StatusCheck) StatusCheck {
	return combined(checks)
}

type combined []StatusCheck

func (c combined) DescribeChanges() []string {
	var out []string
	for _, check := range c {
		out = append(out, check.DescribeChanges()...)
	}

	return out
}

func (c combined) ChangeType() ChangeType {
	result := NoChange

	for _, check := range c {
		switch ct := check.ChangeType(); {
		case ct == NoChange:
		case result == NoChange:
			result = ct
		case result != ct:
			return Update
		}
	}

	return result
}

func (c combined) ApplyChange(ctx context.Context) error {
	for _, check := range c {
		if check.ChangeType() == NoChange {
			continue
		}

		if err := check.ApplyChange(ctx); err != nil {
			return err
		}
	}

	return nil
}
