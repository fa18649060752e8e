package neo4j

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rlch/graphsync"
	"github.com/rlch/graphsync/retry"
)

// MutationWithContext pairs a target's mutation with its export context.
type MutationWithContext struct {
	Mutation      graphsync.ExportTargetMutation
	ExportContext *ExportContext
}

type mutationGroup struct {
	connection graphsync.AuthEntryReference
	mutations  []MutationWithContext
}

// groupByConnection groups mutations by connection in first-seen order, each
// group sorted by creation rank.
func groupByConnection(mutations []MutationWithContext) []*mutationGroup {
	var groups []*mutationGroup

	index := make(map[graphsync.AuthEntryReference]*mutationGroup)

	for _, m := range mutations {
		conn := m.ExportContext.key.Connection

		group, ok := index[conn]
		if !ok {
			group = &mutationGroup{connection: conn}
			index[conn] = group
			groups = append(groups, group)
		}

		group.mutations = append(group.mutations, m)
	}

	for _, group := range groups {
		sort.SliceStable(group.mutations, func(i, j int) bool {
			return group.mutations[i].ExportContext.rank < group.mutations[j].ExportContext.rank
		})
	}

	return groups
}

// buildQueries orders upserts by ascending rank and deletes by descending rank,
// so endpoints exist before their relationships and outlive them on delete.
func buildQueries(mutations []MutationWithContext) ([]Query, error) {
	var queries []Query

	for _, m := range mutations {
		for _, upsert := range m.Mutation.Upserts {
			if err := m.ExportContext.addUpsertQueries(upsert, &queries); err != nil {
				return nil, fmt.Errorf("%s: upsert: %w", m.ExportContext.key, err)
			}
		}
	}

	for i := len(mutations) - 1; i >= 0; i-- {
		m := mutations[i]

		for _, key := range m.Mutation.DeleteKeys {
			if err := m.ExportContext.addDeleteQueries(key, &queries); err != nil {
				return nil, fmt.Errorf("%s: delete: %w", m.ExportContext.key, err)
			}
		}
	}

	return queries, nil
}

// ApplyMutation writes mutations. Each connection's mutations are applied in
// one transaction, retried on transient failures. Connections are written
// concurrently and independently; the first error is returned once all finish.
func (f *Factory) ApplyMutation(ctx context.Context, mutations []MutationWithContext) error {
	var g errgroup.Group

	for _, group := range groupByConnection(mutations) {
		g.Go(func() error {
			return f.applyGroup(ctx, group)
		})
	}

	return g.Wait()
}

func (f *Factory) applyGroup(ctx context.Context, group *mutationGroup) error {
	queries, err := buildQueries(group.mutations)
	if err != nil {
		return err
	}

	if len(queries) == 0 {
		return nil
	}

	graph := group.mutations[0].ExportContext.graph
	logger := f.logger.With(zap.String("connection", group.connection.Key))

	opts := f.retry
	opts.Classifier = isRetryable
	opts.OnRetry = func(err error, next time.Duration) {
		logger.Warn("retrying transaction", zap.Error(err), zap.Duration("backoff", next))
	}

	logger.Debug("applying mutations", zap.Int("queries", len(queries)))

	err = retry.Run(ctx, opts, func(ctx context.Context) error {
		return graph.ExecuteQueries(ctx, queries)
	})
	if err != nil {
		return fmt.Errorf("connection %s: %w", group.connection, err)
	}

	return nil
}
