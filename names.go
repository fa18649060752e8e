package graphsync

// DefaultDatabase is the Neo4j database used when a connection does not name one.
const DefaultDatabase = "neo4j"

// DefaultConnection is the connection name environment overrides apply to.
const DefaultConnection = "default"

// Config and state file names.
const (
	DefaultStateFileName = ".graphsync.state.yaml"
)

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".graphsync.yaml", ".graphsync.yml", "graphsync.yaml", "graphsync.yml"}
