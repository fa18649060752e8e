//nolint:testpackage
package neo4j

import (
	"context"
	"sync"

	"github.com/rlch/graphsync"
)

// recordingGraph records queries instead of sending them.
type recordingGraph struct {
	mu   sync.Mutex
	runs []Query
	txs  [][]Query
	err  error
}

func (g *recordingGraph) Run(_ context.Context, q Query) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.runs = append(g.runs, q)

	return g.err
}

func (g *recordingGraph) ExecuteQueries(_ context.Context, queries []Query) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.txs = append(g.txs, queries)

	return g.err
}

func (g *recordingGraph) Close(context.Context) error { return nil }

func (g *recordingGraph) runTexts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	texts := make([]string, len(g.runs))
	for i, q := range g.runs {
		texts[i] = q.Text
	}

	return texts
}

var defaultConn = graphsync.AuthEntryReference{Key: "default"}

func personNode() graphsync.NodeMapping {
	return graphsync.NodeMapping{Label: "Person"}
}

func knowsRelationship() graphsync.RelationshipMapping {
	return graphsync.RelationshipMapping{
		RelType: "KNOWS",
		Source: graphsync.NodeReferenceMapping{
			Label:  "Person",
			Fields: []graphsync.TargetFieldMapping{{Source: "src_id", Target: "id"}},
		},
		Target: graphsync.NodeReferenceMapping{
			Label:  "Person",
			Fields: []graphsync.TargetFieldMapping{{Source: "tgt_id", Target: "id"}},
		},
	}
}
