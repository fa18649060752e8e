package runner

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/rlch/graphsync"
	"github.com/rlch/graphsync/batch"
	"github.com/rlch/graphsync/databases/neo4j"
	"github.com/rlch/graphsync/setup"
)

// TargetState is one entry of the setup state file.
type TargetState struct {
	Element neo4j.GraphElement                    `yaml:"element"`
	State   setup.CombinedState[neo4j.SetupState] `yaml:"state"`
}

// StateStore persists setup states keyed by graph element.
type StateStore interface {
	Load() (map[string]TargetState, error)
	Save(states map[string]TargetState) error
}

// Runner reconciles target schemas and applies batch files.
type Runner struct {
	factory  *neo4j.Factory
	handler  Handler
	failFast bool
	filter   *regexp.Regexp
	dryRun   bool
	logger   *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithFactory sets the target factory.
func WithFactory(f *neo4j.Factory) Option {
	return func(r *Runner) {
		r.factory = f
	}
}

// WithHandler sets the event handler.
func WithHandler(h Handler) Option {
	return func(r *Runner) {
		r.handler = h
	}
}

// WithFailFast stops on first failure.
func WithFailFast(enabled bool) Option {
	return func(r *Runner) {
		r.failFast = enabled
	}
}

// WithFilter selects which targets are set up. Removed targets are only
// reconciled when no filter is set.
func WithFilter(re *regexp.Regexp) Option {
	return func(r *Runner) {
		r.filter = re
	}
}

// WithDryRun reports setup changes without applying them.
func WithDryRun(enabled bool) Option {
	return func(r *Runner) {
		r.dryRun = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Runner) newHandler() Handler {
	chain := Chain{HandlerFunc(record), r.handler}
	if r.failFast {
		chain = append(chain, FailAfter(1))
	}

	return chain
}

// Build analyzes the configured targets.
func (r *Runner) Build(cfg *graphsync.Config) ([]*neo4j.BuildOutput, error) {
	if r.factory == nil {
		return nil, ErrNoFactory
	}

	specs := make([]neo4j.DataCollectionSpec, 0, len(cfg.Targets))

	for i := range cfg.Targets {
		spec, err := neo4j.SpecFromConfig(&cfg.Targets[i])
		if err != nil {
			return nil, err
		}

		specs = append(specs, spec)
	}

	outputs, err := r.factory.Build(specs)
	if err != nil {
		return nil, err
	}

	owners := make(map[string]string, len(outputs))

	for _, out := range outputs {
		id := out.Key.String()
		if other, ok := owners[id]; ok {
			return nil, fmt.Errorf("%w: %q and %q both export %s", ErrDuplicateElement, other, out.Name, id)
		}

		owners[id] = out.Name
	}

	return outputs, nil
}

// Setup brings every target's schema in line with cfg, recording progress in
// store. Targets present in store but no longer configured are torn down.
func (r *Runner) Setup(ctx context.Context, cfg *graphsync.Config, store StateStore) (*Result, error) {
	outputs, err := r.Build(cfg)
	if err != nil {
		return nil, err
	}

	states, err := store.Load()
	if err != nil {
		return nil, err
	}

	result := NewResult()
	handler := r.newHandler()
	desired := make(map[string]bool, len(outputs))

	for _, out := range outputs {
		id := out.Key.String()
		desired[id] = true

		if !r.matchesFilter(out.Name) {
			continue
		}

		err := r.setupOne(ctx, out.Name, out.Key, out.DesiredState, states, store, handler, result)
		if errors.Is(err, ErrMaxFailures) {
			result.Finish()
			return result, nil
		}

		if err != nil {
			return result, err
		}
	}

	if r.filter == nil {
		var removed []string

		for id := range states {
			if !desired[id] {
				removed = append(removed, id)
			}
		}

		slices.Sort(removed)

		for _, id := range removed {
			err := r.setupOne(ctx, id, states[id].Element, nil, states, store, handler, result)
			if errors.Is(err, ErrMaxFailures) {
				break
			}

			if err != nil {
				return result, err
			}
		}
	}

	result.Finish()

	return result, nil
}

// setupOne reconciles one target. The desired state is staged in store before
// any change is made, so an interrupted run is retried against every version
// the database may hold. Only store failures are returned as errors; change
// failures are reported as events.
func (r *Runner) setupOne(
	ctx context.Context,
	name string,
	key neo4j.GraphElement,
	desired *neo4j.SetupState,
	states map[string]TargetState,
	store StateStore,
	handler Handler,
	result *Result,
) error {
	id := key.String()
	existing := states[id].State
	start := time.Now()

	check, err := r.factory.CheckSetupStatus(key, desired, existing)
	if err != nil {
		return r.emitError(ctx, Event{Target: name}, start, err, handler, result)
	}

	change := check.ChangeType()

	if change == setup.NoChange {
		if desired != nil && len(existing.Staging) > 0 && !r.dryRun {
			states[id] = TargetState{Element: key, State: setup.Existing(*desired)}
			if err := store.Save(states); err != nil {
				return err
			}
		}

		return handler.Event(ctx, Event{
			Time:   time.Now(),
			Action: ActionUnchanged,
			Target: name,
		}, result)
	}

	if r.dryRun {
		return handler.Event(ctx, Event{
			Time:    time.Now(),
			Action:  ActionPlan,
			Target:  name,
			Change:  change,
			Changes: check.DescribeChanges(),
		}, result)
	}

	_ = handler.Event(ctx, Event{Time: start, Action: ActionRun, Target: name}, result)

	if desired != nil {
		staged := existing
		staged.Staging = append(slices.Clone(existing.Staging), *desired)
		states[id] = TargetState{Element: key, State: staged}

		if err := store.Save(states); err != nil {
			return err
		}
	}

	r.logger.Debug("applying setup change",
		zap.String("target", name),
		zap.Stringer("element", key),
		zap.Stringer("change", change),
	)

	if err := check.ApplyChange(ctx); err != nil {
		return r.emitError(ctx, Event{Target: name, Change: change}, start, err, handler, result)
	}

	if desired == nil {
		delete(states, id)
	} else {
		states[id] = TargetState{Element: key, State: setup.Existing(*desired)}
	}

	if err := store.Save(states); err != nil {
		return err
	}

	return handler.Event(ctx, Event{
		Time:    time.Now(),
		Action:  ActionSetup,
		Target:  name,
		Elapsed: time.Since(start),
		Change:  change,
		Changes: check.DescribeChanges(),
	}, result)
}

// Apply loads each batch file and applies it as one mutation. Batches of a
// file that share a connection are written in one transaction.
func (r *Runner) Apply(ctx context.Context, cfg *graphsync.Config, loader *batch.Loader, paths []string) (*Result, error) {
	outputs, err := r.Build(cfg)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*neo4j.BuildOutput, len(outputs))
	for _, out := range outputs {
		byName[out.Name] = out
	}

	contexts := make(map[string]*neo4j.ExportContext)

	exportContext := func(name string) (*neo4j.ExportContext, error) {
		if ec, ok := contexts[name]; ok {
			return ec, nil
		}

		out, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", graphsync.ErrUnknownTarget, name)
		}

		ec, err := out.ExportContext(ctx)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", name, err)
		}

		contexts[name] = ec

		return ec, nil
	}

	result := NewResult()
	handler := r.newHandler()

	for _, path := range paths {
		err := r.applyFile(ctx, path, loader, exportContext, handler, result)
		if errors.Is(err, ErrMaxFailures) {
			break
		}

		if err != nil {
			return result, err
		}
	}

	result.Finish()

	return result, nil
}

func (r *Runner) applyFile(
	ctx context.Context,
	path string,
	loader *batch.Loader,
	exportContext func(string) (*neo4j.ExportContext, error),
	handler Handler,
	result *Result,
) error {
	start := time.Now()

	_ = handler.Event(ctx, Event{Time: start, Action: ActionRun, File: path}, result)

	f, err := loader.Load(path)
	if err != nil {
		return r.emitError(ctx, Event{File: path}, start, err, handler, result)
	}

	var (
		mutations []neo4j.MutationWithContext
		counts    []BatchCount
	)

	for _, b := range f.Batches {
		if b.Mutation.IsEmpty() {
			continue
		}

		ec, err := exportContext(b.Target)
		if err != nil {
			return r.emitError(ctx, Event{File: path}, start, err, handler, result)
		}

		mutations = append(mutations, neo4j.MutationWithContext{Mutation: b.Mutation, ExportContext: ec})
		counts = append(counts, BatchCount{
			Target:  b.Target,
			Upserts: len(b.Mutation.Upserts),
			Deletes: len(b.Mutation.DeleteKeys),
		})
	}

	r.logger.Debug("applying batch file",
		zap.String("file", path),
		zap.Int("batches", len(mutations)),
	)

	if err := r.factory.ApplyMutation(ctx, mutations); err != nil {
		return r.emitError(ctx, Event{File: path}, start, err, handler, result)
	}

	return handler.Event(ctx, Event{
		Time:    time.Now(),
		Action:  ActionApply,
		File:    path,
		Elapsed: time.Since(start),
		Batches: counts,
	}, result)
}

func (r *Runner) emitError(
	ctx context.Context,
	event Event,
	start time.Time,
	err error,
	handler Handler,
	result *Result,
) error {
	r.logger.Warn("run failed", zap.String("item", event.Name()), zap.Error(err))

	event.Time = time.Now()
	event.Action = ActionError
	event.Elapsed = time.Since(start)
	event.Error = err

	return handler.Event(ctx, event, result)
}

// matchesFilter returns true if the target name matches the filter pattern.
// If no filter is set, all targets match.
func (r *Runner) matchesFilter(name string) bool {
	if r.filter == nil {
		return true
	}

	return r.filter.MatchString(name)
}
