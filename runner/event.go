// Package runner drives setup and apply runs and reports their progress.
package runner

import (
	"time"

	"github.com/rlch/graphsync/setup"
)

// Action represents the type of run event.
type Action string

// Action constants for run events.
const (
	ActionRun       Action = "run"
	ActionPlan      Action = "plan"
	ActionSetup     Action = "setup"
	ActionUnchanged Action = "unchanged"
	ActionApply     Action = "applied"
	ActionError     Action = "error"
)

// IsTerminal returns true if this action ends the work on one target or file.
func (a Action) IsTerminal() bool {
	return a == ActionPlan || a == ActionSetup || a == ActionUnchanged || a == ActionApply || a == ActionError
}

// Event represents a single event emitted during a run.
type Event struct {
	Time    time.Time     // When the event occurred
	Action  Action        // What happened
	Target  string        // Target name, for setup events
	File    string        // Batch file path, for apply events
	Elapsed time.Duration // Time taken (for terminal events)
	Error   error         // Error details (for ActionError)

	// Setup changes
	Change  setup.ChangeType
	Changes []string

	// Per-target counts of an applied batch file
	Batches []BatchCount
}

// BatchCount is the size of one target's share of a batch file.
type BatchCount struct {
	Target  string `json:"target"`
	Upserts int    `json:"upserts"`
	Deletes int    `json:"deletes"`
}

// Name returns the target name or the batch file path.
func (e Event) Name() string {
	if e.Target != "" {
		return e.Target
	}

	return e.File
}

// Upserts returns the number of upserts across all batches.
func (e Event) Upserts() int {
	n := 0
	for _, b := range e.Batches {
		n += b.Upserts
	}

	return n
}

// Deletes returns the number of deletes across all batches.
func (e Event) Deletes() int {
	n := 0
	for _, b := range e.Batches {
		n += b.Deletes
	}

	return n
}
