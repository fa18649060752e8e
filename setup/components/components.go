// Package components diffs and applies sets of independently keyed schema
// objects such as constraints and indexes.
package components

import (
	"context"
	"fmt"

	"github.com/rlch/graphsync/setup"
)

// State is a schema object identified by a key.
type State[K comparable] interface {
	Key() K
}

// Operator creates, drops and describes schema objects of one backend.
type Operator[K comparable, S State[K]] interface {
	DescribeKey(key K) string
	DescribeState(state S) string
	// IsUpToDate reports whether an existing object satisfies the desired one.
	IsUpToDate(current, desired S) bool
	Create(ctx context.Context, state S) error
	Delete(ctx context.Context, key K) error
}

// StatusCheck is the diff between desired objects and every possibly existing version.
// Deletes run before creates.
type StatusCheck[K comparable, S State[K]] struct {
	op       Operator[K, S]
	toDelete []K
	toCreate []S
	existing bool
	desired  bool
}

// NewStatusCheck compares desired against each existing version.
// A key is deleted when it exists in some version and is either no longer
// desired or not up to date there. A desired state is created when it is absent
// from some version or its key is being deleted.
func NewStatusCheck[K comparable, S State[K]](op Operator[K, S], desired []S, existing [][]S) *StatusCheck[K, S] {
	c := &StatusCheck[K, S]{op: op, desired: len(desired) > 0}

	desiredByKey := make(map[K]S, len(desired))
	for _, d := range desired {
		desiredByKey[d.Key()] = d
	}

	deleting := make(map[K]bool)

	for _, version := range existing {
		for _, s := range version {
			c.existing = true

			k := s.Key()
			if deleting[k] {
				continue
			}

			d, ok := desiredByKey[k]
			if ok && op.IsUpToDate(s, d) {
				continue
			}

			deleting[k] = true
			c.toDelete = append(c.toDelete, k)
		}
	}

	for _, d := range desired {
		k := d.Key()
		if deleting[k] || !presentInAll(k, existing) {
			c.toCreate = append(c.toCreate, d)
		}
	}

	return c
}

func presentInAll[K comparable, S State[K]](key K, versions [][]S) bool {
	if len(versions) == 0 {
		return false
	}

	for _, version := range versions {
		found := false

		for _, s := range version {
			if s.Key() == key {
				found = true
				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

// Deletes returns the keys that will be dropped.
func (c *StatusCheck[K, S]) Deletes() []K {
	return c.toDelete
}

// Creates returns the states that will be created.
func (c *StatusCheck[K, S]) Creates() []S {
	return c.toCreate
}

// DescribeChanges implements setup.StatusCheck.
func (c *StatusCheck[K, S]) DescribeChanges() []string {
	out := make([]string, 0, len(c.toDelete)+len(c.toCreate))

	for _, k := range c.toDelete {
		out = append(out, "Delete "+c.op.DescribeKey(k))
	}

	for _, s := range c.toCreate {
		out = append(out, "Create "+c.op.DescribeState(s))
	}

	return out
}

// ChangeType implements setup.StatusCheck.
func (c *StatusCheck[K, S]) ChangeType() setup.ChangeType {
	switch {
	case len(c.toDelete) == 0 && len(c.toCreate) == 0:
		return setup.NoChange
	case !c.existing:
		return setup.Create
	case !c.desired:
		return setup.Delete
	default:
		return setup.Update
	}
}

// ApplyChange implements setup.StatusCheck.
func (c *StatusCheck[K, S]) ApplyChange(ctx context.Context) error {
	for _, k := range c.toDelete {
		if err := c.op.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete %s: %w", c.op.DescribeKey(k), err)
		}
	}

	for _, s := range c.toCreate {
		if err := c.op.Create(ctx, s); err != nil {
			return fmt.Errorf("create %s: %w", c.op.DescribeState(s), err)
		}
	}

	return nil
}
