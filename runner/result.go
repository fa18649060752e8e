package runner

import (
	"sync"
	"time"

	"github.com/rlch/graphsync/setup"
)

// Result accumulates outcomes during a run.
type Result struct {
	mu sync.RWMutex

	StartTime time.Time
	EndTime   time.Time

	Total     int
	Planned   int
	Changed   int
	Unchanged int
	Applied   int
	Errors    int

	Upserts int
	Deletes int

	// Items indexed by target name or batch file path
	Items map[string]*ItemResult

	// Targets accumulates applied counts per target
	Targets map[string]*BatchCount

	// Order preserves insertion order for display
	Order []string
}

// NewResult creates an initialized Result.
func NewResult() *Result {
	return &Result{
		StartTime: time.Now(),
		Items:     make(map[string]*ItemResult),
		Targets:   make(map[string]*BatchCount),
	}
}

// Add records a terminal event in the result.
func (r *Result) Add(event Event) {
	if !event.Action.IsTerminal() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := event.Name()

	r.Items[name] = &ItemResult{
		Name:    name,
		Status:  event.Action,
		Elapsed: event.Elapsed,
		Error:   event.Error,
		Change:  event.Change,
		Changes: event.Changes,
	}
	r.Order = append(r.Order, name)
	r.Total++

	switch event.Action {
	case ActionPlan:
		r.Planned++
	case ActionSetup:
		r.Changed++
	case ActionUnchanged:
		r.Unchanged++
	case ActionApply:
		r.Applied++

		for _, b := range event.Batches {
			tc, ok := r.Targets[b.Target]
			if !ok {
				tc = &BatchCount{Target: b.Target}
				r.Targets[b.Target] = tc
			}

			tc.Upserts += b.Upserts
			tc.Deletes += b.Deletes
			r.Upserts += b.Upserts
			r.Deletes += b.Deletes
		}
	case ActionError:
		r.Errors++
	case ActionRun:
		// Not terminal
	}
}

// Finish marks the result as complete.
func (r *Result) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.EndTime = time.Now()
}

// Elapsed returns the total execution time.
func (r *Result) Elapsed() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}

	return r.EndTime.Sub(r.StartTime)
}

// Ok returns true if nothing failed.
func (r *Result) Ok() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.Errors == 0
}

// Failed returns all failed items.
func (r *Result) Failed() []*ItemResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var failed []*ItemResult

	for _, name := range r.Order {
		if ir := r.Items[name]; ir.Status == ActionError {
			failed = append(failed, ir)
		}
	}

	return failed
}

// ItemResult holds the outcome for one target or batch file.
type ItemResult struct {
	Name    string
	Status  Action
	Elapsed time.Duration
	Error   error
	Change  setup.ChangeType
	Changes []string
}
