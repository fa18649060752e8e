package neo4j

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rlch/graphsync"
	"github.com/rlch/graphsync/retry"
	"github.com/rlch/graphsync/setup"
	"github.com/rlch/graphsync/setup/components"
)

// Factory builds Neo4j export targets and reconciles their schema.
type Factory struct {
	auth   *graphsync.AuthRegistry
	pool   *GraphPool
	logger *zap.Logger
	retry  retry.Options
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithPool sets the graph pool.
func WithPool(pool *GraphPool) Option {
	return func(f *Factory) {
		f.pool = pool
	}
}

// WithRetryOptions sets the retry policy for mutation transactions.
func WithRetryOptions(opts retry.Options) Option {
	return func(f *Factory) {
		f.retry = opts
	}
}

// NewFactory creates a factory resolving connections through auth.
func NewFactory(auth *graphsync.AuthRegistry, opts ...Option) *Factory {
	f := &Factory{
		auth:   auth,
		logger: zap.NewNop(),
		retry:  retry.DefaultOptions(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.pool == nil {
		f.pool = NewGraphPool(WithPoolLogger(f.logger))
	}

	return f
}

// Close closes the pooled connections.
func (f *Factory) Close(ctx context.Context) error {
	return f.pool.Close(ctx)
}

// Spec is a target's connection and mapping.
type Spec struct {
	Connection graphsync.AuthEntryReference
	Mapping    graphsync.GraphElementMapping
}

// DataCollectionSpec describes one export target.
type DataCollectionSpec struct {
	Name         string
	Spec         Spec
	KeyFields    []graphsync.FieldSchema
	ValueFields  []graphsync.FieldSchema
	IndexOptions graphsync.IndexOptions
}

// SpecFromConfig converts a configured target.
func SpecFromConfig(t *graphsync.TargetConfig) (DataCollectionSpec, error) {
	mapping, err := t.Mapping.Mapping()
	if err != nil {
		return DataCollectionSpec{}, fmt.Errorf("target %q: %w", t.Name, err)
	}

	return DataCollectionSpec{
		Name:         t.Name,
		Spec:         Spec{Connection: t.ConnectionRef(), Mapping: mapping},
		KeyFields:    t.KeyFields,
		ValueFields:  t.ValueFields,
		IndexOptions: t.IndexOptions,
	}, nil
}

// BuildOutput is an analyzed target.
type BuildOutput struct {
	Name         string
	Key          GraphElement
	DesiredState *SetupState

	factory     *Factory
	keyFields   []graphsync.FieldSchema
	valueFields []fieldMapping
	endpoints   *endpoints
}

// ExportContext connects to the target's database and compiles its queries.
func (o *BuildOutput) ExportContext(ctx context.Context) (*ExportContext, error) {
	conn, err := o.factory.auth.Get(o.Key.Connection)
	if err != nil {
		return nil, err
	}

	graph, err := o.factory.pool.Get(ctx, conn)
	if err != nil {
		return nil, err
	}

	return newExportContext(graph, o.Key, o.keyFields, o.valueFields, o.endpoints)
}

// Build analyzes specs and computes their desired setup states. It does no I/O.
func (f *Factory) Build(specs []DataCollectionSpec) ([]*BuildOutput, error) {
	outputs := make([]*BuildOutput, 0, len(specs))

	for _, spec := range specs {
		out, err := f.build(spec)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", spec.Name, err)
		}

		outputs = append(outputs, out)
	}

	return outputs, nil
}

func (f *Factory) build(spec DataCollectionSpec) (*BuildOutput, error) {
	kind, err := kindOf(spec.Spec.Mapping)
	if err != nil {
		return nil, err
	}

	if len(spec.KeyFields) == 0 {
		return nil, fmt.Errorf("%w: no key fields", graphsync.ErrInvalidMapping)
	}

	out := &BuildOutput{
		Name:      spec.Name,
		Key:       GraphElement{Connection: spec.Spec.Connection, Kind: kind},
		factory:   f,
		keyFields: spec.KeyFields,
	}

	switch m := spec.Spec.Mapping.(type) {
	case graphsync.NodeMapping:
		out.valueFields = valueMappings(spec.ValueFields)
	case graphsync.RelationshipMapping:
		out.endpoints, out.valueFields, err = analyzeRelationship(m, spec.ValueFields)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownElementKind, m)
	}

	keyNames := make([]string, len(spec.KeyFields))
	for i, k := range spec.KeyFields {
		keyNames[i] = k.Name
	}

	out.DesiredState, err = NewSetupState(kind, keyNames, spec.IndexOptions, out.valueFields, spec.Spec.Mapping, out.endpoints)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// CheckSetupStatus diffs the desired state of key against what may exist.
// A nil desired state means the target is being removed.
func (f *Factory) CheckSetupStatus(
	key GraphElement,
	desired *SetupState,
	existing setup.CombinedState[SetupState],
) (setup.StatusCheck, error) {
	conn, err := f.auth.Get(key.Connection)
	if err != nil {
		return nil, err
	}

	graph := func(ctx context.Context) (Graph, error) {
		return f.pool.Get(ctx, conn)
	}

	var desiredComponents []ComponentState
	if desired != nil {
		desiredComponents = desired.Components
	}

	var existingComponents [][]ComponentState
	for _, version := range existing.PossibleVersions() {
		existingComponents = append(existingComponents, version.Components)
	}

	return setup.Combine(
		newSetupStatusCheck(key, graph, desired, existing),
		components.NewStatusCheck[ComponentKey, ComponentState](&componentOperator{graph: graph}, desiredComponents, existingComponents),
	), nil
}

// CheckStateCompatibility reports whether data written under existing survives desired.
func (f *Factory) CheckStateCompatibility(desired, existing *SetupState) setup.Compatibility {
	return desired.CheckCompatible(existing)
}

// DescribeResource names key for humans, e.g. "Neo4j Node(label:Person)".
func (f *Factory) DescribeResource(key GraphElement) string {
	return "Neo4j " + key.Kind.String()
}
