package compare

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// DumpSet holds root-relative, slash-separated file paths of one dump.
type DumpSet map[string]struct{}

func (s DumpSet) Add(p string) {
	s[p] = struct{}{}
}

func (s DumpSet) Has(p string) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the paths in lexicographic order.
func (s DumpSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Collect records every regular file below root. A missing root yields an
// empty set.
func Collect(root string) (DumpSet, error) {
	set := make(DumpSet)

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		set.Add(filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return set, nil
}
