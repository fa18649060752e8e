package graphsync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
connections:
  default:
    uri: bolt://localhost:7687
    user: neo4j
    password: secret
targets:
  - name: docs
    mapping:
      node:
        label: Doc
    key_fields:
      - name: id
        type: uuid
    value_fields:
      - name: embedding
        type: vector[3]float32
      - name: tags
        type:
          list:
            - name: tag
              type: str
    index_options:
      primary_key_fields: [id]
      vector_indexes:
        - field_name: embedding
          metric: cosine
  - name: cites
    connection: archive
    mapping:
      relationship:
        rel_type: CITES
        source:
          label: Doc
          fields:
            - source: from_id
              target: id
        target:
          label: Doc
          fields:
            - source: to_id
              target: id
    key_fields:
      - name: from_id
        type: uuid
      - name: to_id
        type: uuid
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	require.Len(t, cfg.Targets, 2)

	docs := cfg.Targets[0]
	want := []FieldSchema{
		Field("embedding", VectorOf(TypeFloat32, 3)),
		Field("tags", CollectionType{Kind: CollectionKindList, Row: StructType{Fields: []FieldSchema{Field("tag", TypeStr)}}}),
	}

	if diff := cmp.Diff(want, docs.ValueFields); diff != "" {
		t.Errorf("value fields mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"id"}, docs.IndexOptions.PrimaryKeyFields)
	assert.Equal(t, []VectorIndexDef{{FieldName: "embedding", Metric: MetricCosine}}, docs.IndexOptions.VectorIndexes)
	assert.Equal(t, AuthEntryReference{Key: DefaultConnection}, docs.ConnectionRef())

	cites, err := cfg.Target("cites")
	require.NoError(t, err)
	assert.Equal(t, AuthEntryReference{Key: "archive"}, cites.ConnectionRef())

	mapping, err := cites.Mapping.Mapping()
	require.NoError(t, err)

	rel, ok := mapping.(RelationshipMapping)
	require.True(t, ok)
	assert.Equal(t, "CITES", rel.RelType)
	assert.Equal(t, "id", rel.Source.Fields[0].TargetName())

	_, err = cfg.Target("nobody")
	require.ErrorIs(t, err, ErrUnknownTarget)
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "target without name",
			input:   "targets:\n  - mapping: {node: {label: A}}\n",
			wantErr: ErrInvalidMapping,
		},
		{
			name:    "duplicate target",
			input:   "targets:\n  - {name: a, mapping: {node: {label: A}}, key_fields: [{name: id, type: str}]}\n  - {name: a, mapping: {node: {label: B}}, key_fields: [{name: id, type: str}]}\n",
			wantErr: ErrInvalidMapping,
		},
		{
			name:    "node and relationship",
			input:   "targets:\n  - {name: a, mapping: {node: {label: A}, relationship: {rel_type: R}}}\n",
			wantErr: ErrInvalidMapping,
		},
		{
			name:    "no mapping",
			input:   "targets:\n  - {name: a}\n",
			wantErr: ErrInvalidMapping,
		},
		{
			name:    "empty label",
			input:   "targets:\n  - {name: a, mapping: {node: {label: \"\"}}}\n",
			wantErr: ErrInvalidMapping,
		},
		{
			name:    "no key fields",
			input:   "targets:\n  - {name: a, mapping: {node: {label: A}}, value_fields: [{name: v, type: str}]}\n",
			wantErr: ErrInvalidMapping,
		},
		{
			name:    "empty key fields",
			input:   "targets:\n  - {name: a, mapping: {node: {label: A}}, key_fields: []}\n",
			wantErr: ErrInvalidMapping,
		},
		{
			name:    "unknown type",
			input:   "targets:\n  - {name: a, mapping: {node: {label: A}}, key_fields: [{name: id, type: text}]}\n",
			wantErr: ErrUnrecognizedType,
		},
		{
			name:    "table without key",
			input:   "targets:\n  - {name: a, mapping: {node: {label: A}}, value_fields: [{name: t, type: {table: []}}]}\n",
			wantErr: ErrUnrecognizedType,
		},
		{
			name:    "missing type",
			input:   "targets:\n  - {name: a, mapping: {node: {label: A}}, key_fields: [{name: id}]}\n",
			wantErr: ErrEmptyTypeString,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.input))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".graphsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	deep := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(deep, 0o750))

	found, err := FindConfig(deep)
	require.NoError(t, err)
	assert.Equal(t, path, found)

	cfg, err := LoadConfig(deep)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Dir)
	assert.Equal(t, filepath.Join(root, DefaultStateFileName), cfg.StatePath())
}

func TestConfig_StatePath(t *testing.T) {
	cfg := &Config{Dir: "/srv/sync", StateFile: "state/graph.yaml"}
	assert.Equal(t, "/srv/sync/state/graph.yaml", cfg.StatePath())

	cfg.StateFile = "/var/lib/graphsync.yaml"
	assert.Equal(t, "/var/lib/graphsync.yaml", cfg.StatePath())
}

func TestConfig_ApplyEnv(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyEnv(EnvConfig{User: "ignored"})
	assert.Empty(t, cfg.Connections)

	cfg.ApplyEnv(EnvConfig{URI: "neo4j://db:7687", User: "neo4j", DB: "graph"})
	assert.Equal(t, &ConnectionSpec{URI: "neo4j://db:7687", User: "neo4j", DB: "graph"}, cfg.Connections[DefaultConnection])

	cfg.ApplyEnv(EnvConfig{Password: "secret"})
	assert.Equal(t, "secret", cfg.Connections[DefaultConnection].Password)
	assert.Equal(t, "neo4j://db:7687", cfg.Connections[DefaultConnection].URI)
}

func TestReadEnv(t *testing.T) {
	t.Setenv("GRAPHSYNC_URI", "bolt://env:7687")
	t.Setenv("GRAPHSYNC_DB", "people")

	env, err := ReadEnv()
	require.NoError(t, err)
	assert.Equal(t, "bolt://env:7687", env.URI)
	assert.Equal(t, "people", env.DB)
	assert.Equal(t, "info", env.LogLevel)
}

func TestAuthRegistry(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	reg := cfg.AuthRegistry()
	reg.Add("archive", ConnectionSpec{URI: "bolt://archive:7687", DB: "archive"})

	assert.Equal(t, []string{"archive", "default"}, reg.Keys())

	spec, err := reg.Get(AuthEntryReference{Key: "default"})
	require.NoError(t, err)
	assert.Equal(t, "neo4j", spec.User)
	assert.Equal(t, DefaultDatabase, spec.Database())

	spec, err = reg.Get(AuthEntryReference{Key: "archive"})
	require.NoError(t, err)
	assert.Equal(t, "archive", spec.Database())

	_, err = reg.Get(AuthEntryReference{Key: "missing"})
	require.ErrorIs(t, err, ErrAuthEntryNotFound)
}

func TestVectorSimilarityMetric_Neo4jName(t *testing.T) {
	name, err := MetricCosine.Neo4jName()
	require.NoError(t, err)
	assert.Equal(t, "cosine", name)

	name, err = MetricL2Distance.Neo4jName()
	require.NoError(t, err)
	assert.Equal(t, "euclidean", name)

	_, err = MetricInnerProduct.Neo4jName()
	require.ErrorIs(t, err, ErrUnsupportedMetric)

	_, err = VectorSimilarityMetric("hamming").Neo4jName()
	require.ErrorIs(t, err, ErrUnsupportedMetric)
}
