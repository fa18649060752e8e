//go:build integration

package neo4j_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rlch/graphsync"
	"github.com/rlch/graphsync/databases/neo4j"
	"github.com/rlch/graphsync/setup"
)

const (
	// Key constraints need the enterprise edition.
	neo4jImage    = "neo4j:5.26-enterprise"
	neo4jPassword = "graphsync-test"
)

var (
	sharedConn     graphsync.ConnectionSpec
	sharedConnOnce sync.Once
	sharedConnErr  error
)

// connectionSpec returns GRAPHSYNC_NEO4J_URI when set, otherwise a shared
// container started once per run.
func connectionSpec(t *testing.T) graphsync.ConnectionSpec {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	if uri := os.Getenv("GRAPHSYNC_NEO4J_URI"); uri != "" {
		return graphsync.ConnectionSpec{
			URI:      uri,
			User:     os.Getenv("GRAPHSYNC_NEO4J_USER"),
			Password: os.Getenv("GRAPHSYNC_NEO4J_PASS"),
		}
	}

	sharedConnOnce.Do(func() {
		sharedConn, sharedConnErr = startNeo4j()
	})

	if sharedConnErr != nil {
		t.Fatalf("Failed to start neo4j: %v", sharedConnErr)
	}

	return sharedConn
}

func startNeo4j() (graphsync.ConnectionSpec, error) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        neo4jImage,
			ExposedPorts: []string{"7687/tcp"},
			Env: map[string]string{
				"NEO4J_AUTH":                     "neo4j/" + neo4jPassword,
				"NEO4J_ACCEPT_LICENSE_AGREEMENT": "yes",
			},
			WaitingFor:   wait.ForLog("Started.").WithStartupTimeout(120 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return graphsync.ConnectionSpec{}, fmt.Errorf("failed to start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return graphsync.ConnectionSpec{}, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "7687")
	if err != nil {
		return graphsync.ConnectionSpec{}, fmt.Errorf("failed to get container port: %w", err)
	}

	return graphsync.ConnectionSpec{
		URI:      fmt.Sprintf("neo4j://%s:%s", host, port.Port()),
		User:     "neo4j",
		Password: neo4jPassword,
	}, nil
}

func count(t *testing.T, spec graphsync.ConnectionSpec, query string) int64 {
	t.Helper()

	ctx := t.Context()

	driver, err := neo4jdriver.NewDriverWithContext(spec.URI, neo4jdriver.BasicAuth(spec.User, spec.Password, ""))
	require.NoError(t, err)

	defer func() { _ = driver.Close(ctx) }()

	result, err := neo4jdriver.ExecuteQuery(ctx, driver, query, nil, neo4jdriver.EagerResultTransformer,
		neo4jdriver.ExecuteQueryWithDatabase(spec.Database()))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)

	n, ok := result.Records[0].Values[0].(int64)
	require.True(t, ok)

	return n
}

func TestIntegration_SetupAndApply(t *testing.T) {
	spec := connectionSpec(t)
	ctx := t.Context()

	auth := graphsync.NewAuthRegistry()
	conn := auth.Add("default", spec)

	f := neo4j.NewFactory(auth)
	defer func() { _ = f.Close(ctx) }()

	people := neo4j.DataCollectionSpec{
		Name:      "it_people",
		Spec:      neo4j.Spec{Connection: conn, Mapping: graphsync.NodeMapping{Label: "ItPerson"}},
		KeyFields: []graphsync.FieldSchema{graphsync.Field("id", graphsync.TypeStr)},
		ValueFields: []graphsync.FieldSchema{
			graphsync.Field("name", graphsync.TypeStr),
			graphsync.Field("embedding", graphsync.VectorOf(graphsync.TypeFloat32, 3)),
		},
		IndexOptions: graphsync.IndexOptions{VectorIndexes: []graphsync.VectorIndexDef{
			{FieldName: "embedding", Metric: graphsync.MetricCosine},
		}},
	}

	knows := neo4j.DataCollectionSpec{
		Name: "it_knows",
		Spec: neo4j.Spec{Connection: conn, Mapping: graphsync.RelationshipMapping{
			RelType: "IT_KNOWS",
			Source: graphsync.NodeReferenceMapping{
				Label:  "ItPerson",
				Fields: []graphsync.TargetFieldMapping{{Source: "from", Target: "id"}},
			},
			Target: graphsync.NodeReferenceMapping{
				Label:  "ItPerson",
				Fields: []graphsync.TargetFieldMapping{{Source: "to", Target: "id"}},
			},
		}},
		KeyFields: []graphsync.FieldSchema{graphsync.Field("since", graphsync.TypeInt64)},
		ValueFields: []graphsync.FieldSchema{
			graphsync.Field("from", graphsync.TypeStr),
			graphsync.Field("to", graphsync.TypeStr),
		},
	}

	outputs, err := f.Build([]neo4j.DataCollectionSpec{people, knows})
	require.NoError(t, err)

	contexts := make([]*neo4j.ExportContext, len(outputs))

	for i, out := range outputs {
		check, err := f.CheckSetupStatus(out.Key, out.DesiredState, setup.CombinedState[neo4j.SetupState]{})
		require.NoError(t, err)
		require.NoError(t, check.ApplyChange(ctx))

		again, err := f.CheckSetupStatus(out.Key, out.DesiredState, setup.Existing(*out.DesiredState))
		require.NoError(t, err)
		assert.Equal(t, setup.NoChange, again.ChangeType())

		contexts[i], err = out.ExportContext(ctx)
		require.NoError(t, err)
	}

	vec := graphsync.Vector{graphsync.Float32(0.1), graphsync.Float32(0.2), graphsync.Float32(0.3)}

	err = f.ApplyMutation(ctx, []neo4j.MutationWithContext{
		{ExportContext: contexts[1], Mutation: graphsync.ExportTargetMutation{
			Upserts: []graphsync.ExportTargetUpsertEntry{{
				Key:   graphsync.Key(graphsync.Int64(2020)),
				Value: graphsync.Row(graphsync.Str("p1"), graphsync.Str("p2")),
			}},
		}},
		{ExportContext: contexts[0], Mutation: graphsync.ExportTargetMutation{
			Upserts: []graphsync.ExportTargetUpsertEntry{
				{Key: graphsync.Key(graphsync.Str("p1")), Value: graphsync.Row(graphsync.Str("Alice"), vec)},
				{Key: graphsync.Key(graphsync.Str("p3")), Value: graphsync.Row(graphsync.Str("Carol"), vec)},
			},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), count(t, spec, "MATCH (n:ItPerson) RETURN count(n)"))
	assert.Equal(t, int64(1), count(t, spec, "MATCH ()-[r:IT_KNOWS]->() RETURN count(r)"))

	// p1 is still referenced, so only the orphan p3 goes away.
	err = f.ApplyMutation(ctx, []neo4j.MutationWithContext{
		{ExportContext: contexts[0], Mutation: graphsync.ExportTargetMutation{
			DeleteKeys: []graphsync.KeyValue{graphsync.Key(graphsync.Str("p1")), graphsync.Key(graphsync.Str("p3"))},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count(t, spec, "MATCH (n:ItPerson) RETURN count(n)"))

	// Deleting the relationship removes both now-orphaned endpoints.
	err = f.ApplyMutation(ctx, []neo4j.MutationWithContext{
		{ExportContext: contexts[1], Mutation: graphsync.ExportTargetMutation{
			DeleteKeys: []graphsync.KeyValue{graphsync.Key(graphsync.Int64(2020))},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count(t, spec, "MATCH (n:ItPerson) RETURN count(n)"))

	for _, out := range outputs {
		check, err := f.CheckSetupStatus(out.Key, nil, setup.Existing(*out.DesiredState))
		require.NoError(t, err)
		assert.Equal(t, setup.Delete, check.ChangeType())
		require.NoError(t, check.ApplyChange(ctx))
	}
}
