package setup

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCombinedState_PossibleVersions(t *testing.T) {
	current := 1
	state := CombinedState[int]{Current: &current, Staging: []int{2, 3}}

	if diff := cmp.Diff([]int{1, 2, 3}, state.PossibleVersions()); diff != "" {
		t.Errorf("PossibleVersions() mismatch (-want +got):\n%s", diff)
	}

	if state.IsEmpty() {
		t.Error("IsEmpty() = true, want false")
	}

	empty := CombinedState[int]{}
	if len(empty.PossibleVersions()) != 0 || !empty.IsEmpty() {
		t.Errorf("empty state: versions=%v empty=%v", empty.PossibleVersions(), empty.IsEmpty())
	}
}

type fakeCheck struct {
	changes []string
	ct      ChangeType
	applied *[]string
	err     error
}

func (f fakeCheck) DescribeChanges() []string { return f.changes }
func (f fakeCheck) ChangeType() ChangeType    { return f.ct }

func (f fakeCheck) ApplyChange(context.Context) error {
	*f.applied = append(*f.applied, f.changes...)
	return f.err
}

func TestCombine_ChangeType(t *testing.T) {
	tests := []struct {
		name  string
		types []ChangeType
		want  ChangeType
	}{
		{"none", nil, NoChange},
		{"all no change", []ChangeType{NoChange, NoChange}, NoChange},
		{"single create", []ChangeType{NoChange, Create}, Create},
		{"agreeing deletes", []ChangeType{Delete, Delete}, Delete},
		{"mixed", []ChangeType{Create, Delete}, Update},
		{"update wins", []ChangeType{Update, NoChange}, Update},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checks := make([]StatusCheck, len(tt.types))
			for i, ct := range tt.types {
				checks[i] = fakeCheck{ct: ct}
			}

			if got := Combine(checks...).ChangeType(); got != tt.want {
				t.Errorf("ChangeType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCombine_ApplyInOrder(t *testing.T) {
	var applied []string

	check := Combine(
		fakeCheck{changes: []string{"clear"}, ct: Update, applied: &applied},
		fakeCheck{changes: []string{"skipped"}, ct: NoChange, applied: &applied},
		fakeCheck{changes: []string{"drop", "create"}, ct: Update, applied: &applied},
	)

	if diff := cmp.Diff([]string{"clear", "skipped", "drop", "create"}, check.DescribeChanges()); diff != "" {
		t.Errorf("DescribeChanges() mismatch (-want +got):\n%s", diff)
	}

	if err := check.ApplyChange(context.Background()); err != nil {
		t.Fatalf("ApplyChange() error: %v", err)
	}

	if diff := cmp.Diff([]string{"clear", "drop", "create"}, applied); diff != "" {
		t.Errorf("applied mismatch (-want +got):\n%s", diff)
	}
}

func TestCombine_StopsAtFirstError(t *testing.T) {
	var applied []string

	boom := errors.New("boom")
	check := Combine(
		fakeCheck{changes: []string{"a"}, ct: Create, applied: &applied, err: boom},
		fakeCheck{changes: []string{"b"}, ct: Create, applied: &applied},
	)

	if err := check.ApplyChange(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("ApplyChange() error = %v, want %v", err, boom)
	}

	if diff := cmp.Diff([]string{"a"}, applied); diff != "" {
		t.Errorf("applied mismatch (-want +got):\n%s", diff)
	}
}

type storedState struct {
	Keys []string `yaml:"keys"`
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore[storedState](filepath.Join(t.TempDir(), "state.yaml"))

	states, err := store.Load()
	if err != nil {
		t.Fatalf("Load() on missing file: %v", err)
	}

	if len(states) != 0 {
		t.Fatalf("Load() on missing file = %v, want empty", states)
	}

	want := map[string]storedState{
		"default/Node(label:Person)": {Keys: []string{"id"}},
	}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}
