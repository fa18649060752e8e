package neo4j

import (
	"fmt"
	"strings"

	"github.com/rlch/graphsync"
)

// Parameter names.
const (
	keyParamPrefix       = "key"
	sourceKeyParamPrefix = "source_key"
	targetKeyParamPrefix = "target_key"
	propsParam           = "props"
	sourcePropsParam     = "source_props"
	targetPropsParam     = "target_props"
)

// Creation ranks. Upserts run in ascending rank, deletes in descending rank.
const (
	nodeRank         = 0
	relationshipRank = 1
)

// ExportContext holds the compiled queries for one export target.
// It is immutable after construction and safe for concurrent use.
type ExportContext struct {
	graph Graph
	key   GraphElement
	rank  int

	deleteCypher string
	upsertCypher string

	// deleteBeforeUpsert would prepend the delete query to every upsert.
	// Relationship targets keep it off; MERGE on the key is sufficient.
	deleteBeforeUpsert bool

	keyParams   []string
	keyFields   []graphsync.FieldSchema
	valueFields []fieldMapping

	endpoints       *endpoints
	sourceKeyParams []string
	targetKeyParams []string
}

func newExportContext(
	graph Graph,
	key GraphElement,
	keyFields []graphsync.FieldSchema,
	valueFields []fieldMapping,
	ends *endpoints,
) (*ExportContext, error) {
	names := make([]string, len(keyFields))
	for i, f := range keyFields {
		names[i] = f.Name
	}

	keyLiteral, keyParams := keyFieldsLiteral(names, keyParamPrefix)

	ec := &ExportContext{
		graph:       graph,
		key:         key,
		keyParams:   keyParams,
		keyFields:   keyFields,
		valueFields: valueFields,
		endpoints:   ends,
	}

	switch kind := key.Kind.(type) {
	case Node:
		ec.rank = nodeRank
		ec.deleteCypher = nodeDeleteCypher(kind.Label, keyLiteral)
		ec.upsertCypher = nodeUpsertCypher(kind.Label, keyLiteral, len(valueFields) > 0)
	case Relationship:
		if ends == nil {
			return nil, fmt.Errorf("%w: relationship %s has no endpoints", graphsync.ErrInvalidMapping, kind.Type)
		}

		srcLiteral, srcParams := keyFieldsLiteral(mappingNames(ends.Source.KeyFields), sourceKeyParamPrefix)
		tgtLiteral, tgtParams := keyFieldsLiteral(mappingNames(ends.Target.KeyFields), targetKeyParamPrefix)

		ec.rank = relationshipRank
		ec.sourceKeyParams = srcParams
		ec.targetKeyParams = tgtParams
		ec.deleteCypher = relationshipDeleteCypher(kind.Type, keyLiteral)
		ec.upsertCypher = relationshipUpsertCypher(relationshipUpsert{
			relType:        kind.Type,
			keyLiteral:     keyLiteral,
			hasProps:       len(valueFields) > 0,
			srcLabel:       ends.Source.Label,
			srcLiteral:     srcLiteral,
			hasSourceProps: len(ends.Source.ValueFields) > 0,
			tgtLabel:       ends.Target.Label,
			tgtLiteral:     tgtLiteral,
			hasTargetProps: len(ends.Target.ValueFields) > 0,
		})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownElementKind, key.Kind)
	}

	return ec, nil
}

// Key returns the target identity.
func (ec *ExportContext) Key() GraphElement {
	return ec.key
}

// Graph returns the graph the target writes to.
func (ec *ExportContext) Graph() Graph {
	return ec.graph
}

func mappingNames(fields []fieldMapping) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.FieldName
	}

	return names
}

// keyFieldsLiteral renders a property map literal binding each name to a
// numbered parameter, e.g. {id: $key_0, region: $key_1}.
func keyFieldsLiteral(names []string, prefix string) (string, []string) {
	params := make([]string, len(names))
	parts := make([]string, len(names))

	for i, name := range names {
		params[i] = fmt.Sprintf("%s_%d", prefix, i)
		parts[i] = fmt.Sprintf("%s: $%s", name, params[i])
	}

	return "{" + strings.Join(parts, ", ") + "}", params
}

func nodeDeleteCypher(label, keyLiteral string) string {
	return fmt.Sprintf(`OPTIONAL MATCH (old:%s %s)
WITH old
WHERE NOT (old)--()
DELETE old
FINISH`, label, keyLiteral)
}

func nodeUpsertCypher(label, keyLiteral string, hasProps bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "MERGE (new:%s %s)\n", label, keyLiteral)

	if hasProps {
		fmt.Fprintf(&b, "SET new += $%s\n", propsParam)
	}

	b.WriteString("FINISH")

	return b.String()
}

func relationshipDeleteCypher(relType, keyLiteral string) string {
	return fmt.Sprintf(`OPTIONAL MATCH (old_src)-[old_rel:%s %s]->(old_tgt)
DELETE old_rel
WITH old_src, old_tgt
%s
%s
FINISH`, relType, keyLiteral, orphanCleanup("old_src", "_1"), orphanCleanup("old_tgt", "_2"))
}

// orphanCleanup deletes node variable if it has no relationships left.
func orphanCleanup(variable, column string) string {
	return fmt.Sprintf(`CALL {
  WITH %[1]s
  OPTIONAL MATCH (%[1]s)-[r]-()
  WITH %[1]s, count(r) AS rels
  WHERE rels = 0
  DELETE %[1]s
  RETURN 0 AS %[2]s
}`, variable, column)
}

type relationshipUpsert struct {
	relType    string
	keyLiteral string
	hasProps   bool

	srcLabel       string
	srcLiteral     string
	hasSourceProps bool

	tgtLabel       string
	tgtLiteral     string
	hasTargetProps bool
}

func relationshipUpsertCypher(r relationshipUpsert) string {
	var b strings.Builder

	fmt.Fprintf(&b, "MERGE (src:%s %s)\n", r.srcLabel, r.srcLiteral)

	if r.hasSourceProps {
		fmt.Fprintf(&b, "SET src += $%s\n", sourcePropsParam)
	}

	fmt.Fprintf(&b, "MERGE (tgt:%s %s)\n", r.tgtLabel, r.tgtLiteral)

	if r.hasTargetProps {
		fmt.Fprintf(&b, "SET tgt += $%s\n", targetPropsParam)
	}

	fmt.Fprintf(&b, "MERGE (src)-[rel:%s %s]->(tgt)\n", r.relType, r.keyLiteral)

	if r.hasProps {
		fmt.Fprintf(&b, "SET rel += $%s\n", propsParam)
	}

	b.WriteString("FINISH")

	return b.String()
}

// bindKey binds key to params named names, encoded against fields.
func bindKey(q Query, key graphsync.KeyValue, fields []graphsync.FieldSchema, names []string) error {
	parts, err := key.Fields(len(fields))
	if err != nil {
		return err
	}

	for i, f := range fields {
		v, err := encodeValue(parts[i], f.Type)
		if err != nil {
			return fmt.Errorf("key field %q: %w", f.Name, err)
		}

		q.Params[names[i]] = v
	}

	return nil
}

// bindMapped binds the fields of row picked by mappings.
func bindMapped(q Query, row graphsync.StructValue, mappings []fieldMapping, names []string) error {
	for i, m := range mappings {
		v, err := encodeMapped(row, m)
		if err != nil {
			return err
		}

		q.Params[names[i]] = v
	}

	return nil
}

// bindProps binds the fields of row picked by mappings as one property map.
func bindProps(q Query, row graphsync.StructValue, mappings []fieldMapping, name string) error {
	if len(mappings) == 0 {
		return nil
	}

	props := make(map[string]any, len(mappings))

	for _, m := range mappings {
		v, err := encodeMapped(row, m)
		if err != nil {
			return err
		}

		props[m.FieldName] = v
	}

	q.Params[name] = props

	return nil
}

func encodeMapped(row graphsync.StructValue, m fieldMapping) (any, error) {
	if m.FieldIdx >= len(row.Fields) {
		return nil, fmt.Errorf("%w: row has %d fields, field %q is at %d",
			ErrTypeMismatch, len(row.Fields), m.FieldName, m.FieldIdx)
	}

	v, err := encodeValue(row.Fields[m.FieldIdx], m.ValueType)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", m.FieldName, err)
	}

	return v, nil
}

// addDeleteQueries appends the queries deleting the element with key.
func (ec *ExportContext) addDeleteQueries(key graphsync.KeyValue, queries *[]Query) error {
	q := NewQuery(ec.deleteCypher)

	if err := bindKey(q, key, ec.keyFields, ec.keyParams); err != nil {
		return err
	}

	*queries = append(*queries, q)

	return nil
}

// addUpsertQueries appends the queries writing upsert.
func (ec *ExportContext) addUpsertQueries(upsert graphsync.ExportTargetUpsertEntry, queries *[]Query) error {
	if ec.deleteBeforeUpsert {
		if err := ec.addDeleteQueries(upsert.Key, queries); err != nil {
			return err
		}
	}

	q := NewQuery(ec.upsertCypher)

	if err := bindKey(q, upsert.Key, ec.keyFields, ec.keyParams); err != nil {
		return err
	}

	if err := bindProps(q, upsert.Value, ec.valueFields, propsParam); err != nil {
		return err
	}

	if ec.endpoints != nil {
		src, tgt := ec.endpoints.Source, ec.endpoints.Target

		if err := bindMapped(q, upsert.Value, src.KeyFields, ec.sourceKeyParams); err != nil {
			return fmt.Errorf("source: %w", err)
		}

		if err := bindProps(q, upsert.Value, src.ValueFields, sourcePropsParam); err != nil {
			return fmt.Errorf("source: %w", err)
		}

		if err := bindMapped(q, upsert.Value, tgt.KeyFields, ec.targetKeyParams); err != nil {
			return fmt.Errorf("target: %w", err)
		}

		if err := bindProps(q, upsert.Value, tgt.ValueFields, targetPropsParam); err != nil {
			return fmt.Errorf("target: %w", err)
		}
	}

	*queries = append(*queries, q)

	return nil
}
