package compare

import (
	"errors"
	"fmt"
	"os"
)

var ErrMissingRoot = errors.New("comparison directory does not exist")

// Result lists paths present only on one side. Content is never inspected.
type Result struct {
	OldRoot string
	NewRoot string
	Removed []string
	Added   []string
}

func (r Result) Unchanged() bool {
	return len(r.Removed) == 0 && len(r.Added) == 0
}

// Compare diffs the file listings of two dump directories.
func Compare(oldRoot, newRoot string) (Result, error) {
	for _, root := range []string{oldRoot, newRoot} {
		if _, err := os.Stat(root); err != nil {
			if os.IsNotExist(err) {
				return Result{}, fmt.Errorf("%w: %s", ErrMissingRoot, root)
			}
			return Result{}, err
		}
	}

	oldSet, err := Collect(oldRoot)
	if err != nil {
		return Result{}, fmt.Errorf("collecting %s: %w", oldRoot, err)
	}
	newSet, err := Collect(newRoot)
	if err != nil {
		return Result{}, fmt.Errorf("collecting %s: %w", newRoot, err)
	}

	removed, added := Diff(oldSet, newSet)
	return Result{
		OldRoot: oldRoot,
		NewRoot: newRoot,
		Removed: removed,
		Added:   added,
	}, nil
}

// Diff returns old-new and new-old, both in lexicographic order.
func Diff(oldSet, newSet DumpSet) (removed, added []string) {
	a, b := oldSet.Sorted(), newSet.Sorted()
	removed, added = []string{}, []string{}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			removed = append(removed, a[i])
			i++
		case a[i] > b[j]:
			added = append(added, b[j])
			j++
		default:
			i++
			j++
		}
	}
	removed = append(removed, a[i:]...)
	added = append(added, b[j:]...)
	return removed, added
}
