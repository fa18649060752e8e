// Package batch reads mutation batches from YAML files.
//
// A batch file holds one entry per target, or a list of them:
//
//	- target: people
//	  upserts:
//	    - key: p1
//	      value: {name: Alice, age: 30}
//	  deletes: [p0]
//
// Keys and values are decoded against the target's declared schema.
package batch

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rlch/graphsync"
)

// File is a loaded batch file.
type File struct {
	Path    string
	Batches []Batch
}

// Batch is the mutation of one target.
type Batch struct {
	Target   string
	Line     int
	Mutation graphsync.ExportTargetMutation
}

// Upserts returns the number of upserts across all batches.
func (f *File) Upserts() int {
	n := 0
	for _, b := range f.Batches {
		n += len(b.Mutation.Upserts)
	}

	return n
}

// Deletes returns the number of deletes across all batches.
func (f *File) Deletes() int {
	n := 0
	for _, b := range f.Batches {
		n += len(b.Mutation.DeleteKeys)
	}

	return n
}

type rawBatch struct {
	Target  string      `yaml:"target"`
	Upserts []rawUpsert `yaml:"upserts"`
	Deletes []yaml.Node `yaml:"deletes"`
}

type rawUpsert struct {
	Key   yaml.Node `yaml:"key"`
	Value yaml.Node `yaml:"value"`
}

// Decode decodes a batch document, resolving target schemas with lookup.
func Decode(data []byte, lookup func(name string) (*graphsync.TargetConfig, error)) ([]Batch, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseError, err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]

	var entries []*yaml.Node

	switch root.Kind {
	case yaml.MappingNode:
		entries = []*yaml.Node{root}
	case yaml.SequenceNode:
		entries = root.Content
	default:
		return nil, fmt.Errorf("%w: line %d: expected a mapping or a list of mappings", ErrParseError, root.Line)
	}

	batches := make([]Batch, 0, len(entries))

	for _, entry := range entries {
		b, err := decodeBatch(entry, lookup)
		if err != nil {
			return nil, err
		}

		batches = append(batches, b)
	}

	return batches, nil
}

func decodeBatch(n *yaml.Node, lookup func(string) (*graphsync.TargetConfig, error)) (Batch, error) {
	var raw rawBatch
	if err := n.Decode(&raw); err != nil {
		return Batch{}, fmt.Errorf("%w: %w", ErrParseError, err)
	}

	if raw.Target == "" {
		return Batch{}, fmt.Errorf("%w: line %d: batch without target", ErrParseError, n.Line)
	}

	target, err := lookup(raw.Target)
	if err != nil {
		return Batch{}, fmt.Errorf("line %d: %w", n.Line, err)
	}

	b := Batch{Target: raw.Target, Line: n.Line}

	for i := range raw.Upserts {
		u := &raw.Upserts[i]

		key, err := graphsync.DecodeKey(&u.Key, target.KeyFields)
		if err != nil {
			return Batch{}, fmt.Errorf("%s: upsert %d: %w", raw.Target, i, err)
		}

		var value graphsync.StructValue

		if u.Value.Kind == 0 {
			value = graphsync.StructValue{Fields: nulls(len(target.ValueFields))}
		} else {
			value, err = graphsync.DecodeRow(&u.Value, target.ValueFields)
			if err != nil {
				return Batch{}, fmt.Errorf("%s: upsert %d: %w", raw.Target, i, err)
			}
		}

		b.Mutation.Upserts = append(b.Mutation.Upserts, graphsync.ExportTargetUpsertEntry{Key: key, Value: value})
	}

	for i := range raw.Deletes {
		key, err := graphsync.DecodeKey(&raw.Deletes[i], target.KeyFields)
		if err != nil {
			return Batch{}, fmt.Errorf("%s: delete %d: %w", raw.Target, i, err)
		}

		b.Mutation.DeleteKeys = append(b.Mutation.DeleteKeys, key)
	}

	return b, nil
}

func nulls(n int) []graphsync.Value {
	values := make([]graphsync.Value, n)
	for i := range values {
		values[i] = graphsync.Null{}
	}

	return values
}
