package neo4j

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/rlch/graphsync"
)

// Connector opens a Graph for a connection spec.
type Connector func(ctx context.Context, spec graphsync.ConnectionSpec) (Graph, error)

// graphKey identifies a database: a URI and a database name.
type graphKey struct {
	uri string
	db  string
}

func keyOf(spec graphsync.ConnectionSpec) graphKey {
	return graphKey{uri: spec.URI, db: spec.Database()}
}

type graphCell struct {
	mu    sync.Mutex
	graph Graph
}

// get returns the cell's graph, connecting first if needed.
// Failed connects are not remembered.
func (c *graphCell) get(ctx context.Context, connect func(context.Context) (Graph, error)) (Graph, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.graph != nil {
		return c.graph, nil
	}

	g, err := connect(ctx)
	if err != nil {
		return nil, err
	}

	c.graph = g

	return g, nil
}

// GraphPool shares one Graph per (URI, database) pair.
type GraphPool struct {
	mu      sync.Mutex
	graphs  map[graphKey]*graphCell
	connect Connector
	logger  *zap.Logger
}

// PoolOption configures a GraphPool.
type PoolOption func(*GraphPool)

// WithConnector replaces the routine used to open graphs.
func WithConnector(c Connector) PoolOption {
	return func(p *GraphPool) {
		p.connect = c
	}
}

// WithPoolLogger sets the pool's logger.
func WithPoolLogger(logger *zap.Logger) PoolOption {
	return func(p *GraphPool) {
		p.logger = logger
	}
}

// NewGraphPool creates an empty pool.
func NewGraphPool(opts ...PoolOption) *GraphPool {
	p := &GraphPool{
		graphs:  make(map[graphKey]*graphCell),
		connect: Connect,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Get returns the graph for spec, connecting on first use.
// Concurrent callers for the same database share one connect; callers for
// different databases do not wait on each other.
func (p *GraphPool) Get(ctx context.Context, spec graphsync.ConnectionSpec) (Graph, error) {
	key := keyOf(spec)

	p.mu.Lock()

	cell, ok := p.graphs[key]
	if !ok {
		cell = &graphCell{}
		p.graphs[key] = cell
	}

	p.mu.Unlock()

	return cell.get(ctx, func(ctx context.Context) (Graph, error) {
		p.logger.Debug("connecting", zap.String("uri", key.uri), zap.String("db", key.db))

		g, err := p.connect(ctx, spec)
		if err != nil {
			p.logger.Warn("connect failed", zap.String("uri", key.uri), zap.String("db", key.db), zap.Error(err))
			return nil, err
		}

		return g, nil
	})
}

// Close closes every connected graph and empties the pool.
func (p *GraphPool) Close(ctx context.Context) error {
	p.mu.Lock()
	cells := p.graphs
	p.graphs = make(map[graphKey]*graphCell)
	p.mu.Unlock()

	var errs []error

	for _, cell := range cells {
		cell.mu.Lock()
		if cell.graph != nil {
			errs = append(errs, cell.graph.Close(ctx))
			cell.graph = nil
		}
		cell.mu.Unlock()
	}

	return errors.Join(errs...)
}
