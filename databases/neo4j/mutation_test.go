//nolint:testpackage
package neo4j

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rlch/graphsync"
)

func queryKinds(queries []Query) []string {
	kinds := make([]string, len(queries))

	for i, q := range queries {
		switch {
		case strings.HasPrefix(q.Text, "MERGE (new:"):
			kinds[i] = "node upsert"
		case strings.HasPrefix(q.Text, "OPTIONAL MATCH (old:"):
			kinds[i] = "node delete"
		case strings.HasPrefix(q.Text, "MERGE (src:"):
			kinds[i] = "rel upsert"
		case strings.HasPrefix(q.Text, "OPTIONAL MATCH (old_src)"):
			kinds[i] = "rel delete"
		default:
			kinds[i] = q.Text
		}
	}

	return kinds
}

func TestBuildQueries_OrdersByRank(t *testing.T) {
	person := personContext(t)
	knows := knowsContext(t)

	relMutation := MutationWithContext{
		ExportContext: knows,
		Mutation: graphsync.ExportTargetMutation{
			Upserts: []graphsync.ExportTargetUpsertEntry{{
				Key:   graphsync.Key(graphsync.Int64(2020)),
				Value: graphsync.Row(graphsync.Str("p1"), graphsync.Str("p2")),
			}},
			DeleteKeys: []graphsync.KeyValue{graphsync.Key(graphsync.Int64(2001))},
		},
	}

	nodeMutation := MutationWithContext{
		ExportContext: person,
		Mutation: graphsync.ExportTargetMutation{
			Upserts: []graphsync.ExportTargetUpsertEntry{{
				Key:   graphsync.Key(graphsync.Str("p1")),
				Value: graphsync.Row(graphsync.Str("Alice"), graphsync.Int64(30)),
			}},
			DeleteKeys: []graphsync.KeyValue{graphsync.Key(graphsync.Str("p0"))},
		},
	}

	// Relationship first on purpose.
	groups := groupByConnection([]MutationWithContext{relMutation, nodeMutation})
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}

	queries, err := buildQueries(groups[0].mutations)
	if err != nil {
		t.Fatalf("buildQueries() error: %v", err)
	}

	want := []string{"node upsert", "rel upsert", "rel delete", "node delete"}
	if diff := cmp.Diff(want, queryKinds(queries)); diff != "" {
		t.Errorf("query order mismatch (-want +got):\n%s", diff)
	}
}

func TestGroupByConnection(t *testing.T) {
	people := personContext(t)
	other := personContext(t)
	other.key.Connection = graphsync.AuthEntryReference{Key: "archive"}
	knows := knowsContext(t)

	groups := groupByConnection([]MutationWithContext{
		{ExportContext: other},
		{ExportContext: knows},
		{ExportContext: people},
	})

	var got [][]string

	for _, g := range groups {
		var keys []string
		for _, m := range g.mutations {
			keys = append(keys, m.ExportContext.key.String())
		}

		got = append(got, keys)
	}

	want := [][]string{
		{"archive/Node(label:Person)"},
		{"default/Node(label:Person)", "default/Relationship(type:KNOWS)"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildQueries_EncodingError(t *testing.T) {
	_, err := buildQueries([]MutationWithContext{{
		ExportContext: personContext(t),
		Mutation: graphsync.ExportTargetMutation{
			Upserts: []graphsync.ExportTargetUpsertEntry{{
				Key:   graphsync.Key(graphsync.Int64(1)),
				Value: graphsync.Row(graphsync.Str("Alice"), graphsync.Int64(30)),
			}},
		},
	}})
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("buildQueries() error = %v, want %v", err, ErrTypeMismatch)
	}
}
