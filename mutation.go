package graphsync

// ExportTargetUpsertEntry inserts or updates one row.
// Value holds the target's value fields in declared order.
type ExportTargetUpsertEntry struct {
	Key   KeyValue
	Value StructValue
}

// ExportTargetMutation is one batch of changes for a single target.
type ExportTargetMutation struct {
	Upserts    []ExportTargetUpsertEntry
	DeleteKeys []KeyValue
}

// IsEmpty reports whether the mutation carries no changes.
func (m ExportTargetMutation) IsEmpty() bool {
	return len(m.Upserts) == 0 && len(m.DeleteKeys) == 0
}
