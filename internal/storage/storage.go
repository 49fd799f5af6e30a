package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/teamcutter/d2rdump/internal/domain"
)

var ErrUnsupported = errors.New("unsupported storage format")

var ErrNotFound = errors.New("entry not found")

// Open opens the archive container at path. A directory is read as an
// unpacked data tree, files are dispatched on their extension.
func Open(p string) (domain.Storage, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return OpenDir(p)
	}

	lower := strings.ToLower(p)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return OpenZip(p)
	case isTarArchive(lower):
		return OpenTar(p)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, p)
	}
}

func isTarArchive(name string) bool {
	tarExts := []string{".tar.gz", ".tar.zst", ".tar.xz", ".tar.bz2", ".tgz", ".txz", ".tzst", ".tbz2", ".tar"}
	for _, ext := range tarExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// entryName drops "./" and other redundant elements from a member name so
// archives packed from inside the data folder index like the folder itself.
// Backslash-separated names are left untouched.
func entryName(name string) string {
	return path.Clean(name)
}

// matchPattern reports whether name is selected by a Find pattern. "*"
// selects every entry, including names containing separators.
func matchPattern(pattern, name string) (bool, error) {
	if pattern == "" || pattern == "*" {
		return true, nil
	}
	return path.Match(pattern, name)
}

// sliceFinder reports a precomputed list of entries.
type sliceFinder struct {
	entries []domain.Entry
	pos     int
}

func newSliceFinder(index []domain.Entry, pattern string) (*sliceFinder, error) {
	var entries []domain.Entry
	for _, e := range index {
		ok, err := matchPattern(pattern, e.Name)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if ok {
			entries = append(entries, e)
		}
	}
	return &sliceFinder{entries: entries}, nil
}

func (f *sliceFinder) Next() (domain.Entry, error) {
	if f.pos >= len(f.entries) {
		return domain.Entry{}, io.EOF
	}
	e := f.entries[f.pos]
	f.pos++
	return e, nil
}

func (f *sliceFinder) Close() error {
	f.entries = nil
	return nil
}

// entryHandle adapts a reader with a known content size.
type entryHandle struct {
	io.Reader
	size   int64
	closer func() error
}

func (h *entryHandle) Info() (domain.EntryInfo, error) {
	return domain.EntryInfo{ContentSize: h.size}, nil
}

func (h *entryHandle) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer()
}
