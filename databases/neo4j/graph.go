// Package neo4j exports pipeline rows to Neo4j as nodes and relationships
// and reconciles the constraints and vector indexes they need.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/rlch/graphsync"
)

// Query is a Cypher statement with its parameters.
type Query struct {
	Text   string
	Params map[string]any
}

// NewQuery creates a query without parameters.
func NewQuery(text string) Query {
	return Query{Text: text, Params: map[string]any{}}
}

// Param binds name to v and returns q.
func (q Query) Param(name string, v any) Query {
	q.Params[name] = v
	return q
}

// Graph is a connection to one Neo4j database.
//
//go:generate mockgen -destination=mocks/graph.go -package=mocks github.com/rlch/graphsync/databases/neo4j Graph
type Graph interface {
	// Run executes q in an auto-commit transaction.
	// Queries using CALL { ... } IN TRANSACTIONS must go through Run.
	Run(ctx context.Context, q Query) error

	// ExecuteQueries runs queries in order inside one write transaction.
	ExecuteQueries(ctx context.Context, queries []Query) error

	Close(ctx context.Context) error
}

type driverGraph struct {
	driver neo4j.DriverWithContext
	db     string
}

// Connect opens a driver for spec and verifies connectivity.
func Connect(ctx context.Context, spec graphsync.ConnectionSpec) (Graph, error) {
	auth := neo4j.NoAuth()
	if spec.User != "" {
		auth = neo4j.BasicAuth(spec.User, spec.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(spec.URI, auth, func(cfg *neo4j.Config) {
		// Retries are decided by the dispatcher.
		cfg.MaxTransactionRetryTime = 0
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: failed to create driver: %w", err)
	}

	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		_ = driver.Close(ctx)

		return nil, fmt.Errorf("neo4j: failed to connect to %s: %w", spec.URI, err)
	}

	return &driverGraph{driver: driver, db: spec.Database()}, nil
}

func (g *driverGraph) session(ctx context.Context) neo4j.SessionWithContext {
	return g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: g.db,
	})
}

func (g *driverGraph) Run(ctx context.Context, q Query) error {
	session := g.session(ctx)
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, q.Text, q.Params)
	if err != nil {
		return fmt.Errorf("neo4j: query execution failed: %w", err)
	}

	_, err = result.Consume(ctx)
	if err != nil {
		return fmt.Errorf("neo4j: query execution failed: %w", err)
	}

	return nil
}

func (g *driverGraph) ExecuteQueries(ctx context.Context, queries []Query) error {
	session := g.session(ctx)
	defer func() { _ = session.Close(ctx) }()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, q := range queries {
			result, err := tx.Run(ctx, q.Text, q.Params)
			if err != nil {
				return nil, err
			}

			_, err = result.Consume(ctx)
			if err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j: transaction failed: %w", err)
	}

	return nil
}

func (g *driverGraph) Close(ctx context.Context) error {
	err := g.driver.Close(ctx)
	if err != nil {
		return fmt.Errorf("neo4j: failed to close driver: %w", err)
	}

	return nil
}
