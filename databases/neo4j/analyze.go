package neo4j

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rlch/graphsync"
)

// fieldMapping places a row field at a property name.
type fieldMapping struct {
	FieldIdx  int
	FieldName string
	ValueType graphsync.ValueType
}

// nodeLabelInfo describes how a relationship endpoint is built from row fields.
type nodeLabelInfo struct {
	Label       string
	KeyFields   []fieldMapping
	ValueFields []fieldMapping
}

// nodeLabelAnalyzer claims the row fields an endpoint mapping refers to.
type nodeLabelAnalyzer struct {
	label        string
	indexOptions *graphsync.IndexOptions

	// remaining maps source field name to target property name.
	remaining map[string]string

	claimed []fieldMapping
}

func newNodeLabelAnalyzer(rel graphsync.RelationshipMapping, endpoint graphsync.NodeReferenceMapping) *nodeLabelAnalyzer {
	a := &nodeLabelAnalyzer{
		label:     endpoint.Label,
		remaining: make(map[string]string, len(endpoint.Fields)),
	}

	if storage, ok := rel.NodesStorageSpec[endpoint.Label]; ok {
		opts := storage.IndexOptions
		a.indexOptions = &opts
	}

	for _, f := range endpoint.Fields {
		a.remaining[f.Source] = f.TargetName()
	}

	return a
}

// processField claims field idx if the endpoint maps it.
func (a *nodeLabelAnalyzer) processField(idx int, field graphsync.FieldSchema) bool {
	target, ok := a.remaining[field.Name]
	if !ok {
		return false
	}

	delete(a.remaining, field.Name)

	a.claimed = append(a.claimed, fieldMapping{
		FieldIdx:  idx,
		FieldName: target,
		ValueType: field.Type,
	})

	return true
}

func (a *nodeLabelAnalyzer) build() (nodeLabelInfo, error) {
	if len(a.remaining) > 0 {
		names := make([]string, 0, len(a.remaining))
		for name := range a.remaining {
			names = append(names, name)
		}

		sort.Strings(names)

		return nodeLabelInfo{}, fmt.Errorf("%w: label %s: %s", ErrUnmappedField, a.label, strings.Join(names, ", "))
	}

	info := nodeLabelInfo{Label: a.label}

	if a.indexOptions != nil && a.indexOptions.PrimaryKeyFields != nil {
		values := append([]fieldMapping(nil), a.claimed...)

		for _, pk := range a.indexOptions.PrimaryKeyFields {
			i := indexOfField(values, pk)
			if i < 0 {
				return nodeLabelInfo{}, fmt.Errorf("%w: label %s: %s", ErrMissingKeyField, a.label, pk)
			}

			info.KeyFields = append(info.KeyFields, values[i])
			values = append(values[:i], values[i+1:]...)
		}

		info.ValueFields = values
	} else {
		info.KeyFields = a.claimed
	}

	if len(info.KeyFields) == 0 {
		return nodeLabelInfo{}, fmt.Errorf("%w: label %s", ErrNoKeyFields, a.label)
	}

	return info, nil
}

func indexOfField(fields []fieldMapping, name string) int {
	for i, f := range fields {
		if f.FieldName == name {
			return i
		}
	}

	return -1
}

// endpoints holds the analyzed endpoints of a relationship target.
type endpoints struct {
	Source nodeLabelInfo
	Target nodeLabelInfo
}

// analyzeRelationship splits a relationship target's value fields between its
// endpoints. Fields neither endpoint claims stay on the relationship.
func analyzeRelationship(rel graphsync.RelationshipMapping, valueFields []graphsync.FieldSchema) (*endpoints, []fieldMapping, error) {
	src := newNodeLabelAnalyzer(rel, rel.Source)
	tgt := newNodeLabelAnalyzer(rel, rel.Target)

	var relValues []fieldMapping

	for i, f := range valueFields {
		if src.processField(i, f) || tgt.processField(i, f) {
			continue
		}

		relValues = append(relValues, fieldMapping{FieldIdx: i, FieldName: f.Name, ValueType: f.Type})
	}

	srcInfo, err := src.build()
	if err != nil {
		return nil, nil, fmt.Errorf("source: %w", err)
	}

	tgtInfo, err := tgt.build()
	if err != nil {
		return nil, nil, fmt.Errorf("target: %w", err)
	}

	return &endpoints{Source: srcInfo, Target: tgtInfo}, relValues, nil
}

// valueMappings maps every value field to itself.
func valueMappings(fields []graphsync.FieldSchema) []fieldMapping {
	out := make([]fieldMapping, len(fields))
	for i, f := range fields {
		out[i] = fieldMapping{FieldIdx: i, FieldName: f.Name, ValueType: f.Type}
	}

	return out
}
