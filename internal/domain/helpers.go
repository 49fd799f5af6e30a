package domain

import "sort"

// SortRuns orders runs newest first.
func SortRuns(runs []*DumpRun) {
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
}
