package compare

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/teamcutter/d2rdump/internal/console"
)

// Render prints a human-readable report for r. Empty blocks are omitted.
func Render(w io.Writer, r Result) {
	fmt.Fprintf(w, "\n[Comparison] %s -> %s\n", filepath.Base(r.OldRoot), filepath.Base(r.NewRoot))

	if r.Unchanged() {
		fmt.Fprintln(w, "No file changes detected.")
		return
	}

	if len(r.Removed) > 0 {
		fmt.Fprintf(w, "REMOVED (%d):\n", len(r.Removed))
		for _, f := range r.Removed {
			fmt.Fprintf(w, " - %s\n", f)
		}
	}
	if len(r.Added) > 0 {
		fmt.Fprintf(w, "ADDED (%d):\n", len(r.Added))
		for _, f := range r.Added {
			fmt.Fprintf(w, " + %s\n", f)
		}
	}
}

type Summary struct {
	Compared []Result
	Skipped  []string
}

// CompareVersions compares every bucket of currentRoot with the bucket of the
// same name under priorRoot. Buckets missing on the prior side are skipped.
func CompareVersions(c *console.Console, priorRoot, currentRoot string) (Summary, error) {
	var summary Summary

	entries, err := os.ReadDir(currentRoot)
	if err != nil {
		return summary, fmt.Errorf("%w: %s", ErrMissingRoot, currentRoot)
	}

	var buckets []string
	for _, e := range entries {
		if e.IsDir() {
			buckets = append(buckets, e.Name())
		}
	}
	sort.Strings(buckets)

	for _, bucket := range buckets {
		oldBucket := filepath.Join(priorRoot, bucket)
		newBucket := filepath.Join(currentRoot, bucket)

		if !isDir(oldBucket) {
			c.Warn("Skipping bucket %s: missing in one of the versions.", bucket)
			summary.Skipped = append(summary.Skipped, bucket)
			continue
		}

		c.Info("Comparing bucket %s: %s -> %s", bucket, filepath.Base(priorRoot), filepath.Base(currentRoot))
		res, err := Compare(oldBucket, newBucket)
		if errors.Is(err, ErrMissingRoot) {
			c.Warn("Skipping bucket %s: missing in one of the versions.", bucket)
			summary.Skipped = append(summary.Skipped, bucket)
			continue
		}
		if err != nil {
			return summary, err
		}

		Render(c.Out(), res)
		summary.Compared = append(summary.Compared, res)
	}

	return summary, nil
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
