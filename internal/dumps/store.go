package dumps

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// pngMarker marks converted-image trees that live next to version dumps.
const pngMarker = "png"

// Store is the on-disk tree output/<versionTag>/<bucket>/...
type Store struct {
	sync.RWMutex
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) VersionPath(tag string) string {
	return filepath.Join(s.root, tag)
}

func (s *Store) BucketPath(tag, bucket string) string {
	return filepath.Join(s.root, tag, bucket)
}

// validTag reports whether tag names a single directory directly below root.
func validTag(tag string) bool {
	return tag != "" && tag != "." && tag != ".." && tag == filepath.Base(tag)
}

func (s *Store) Has(tag string) bool {
	if !validTag(tag) {
		return false
	}
	s.RLock()
	defer s.RUnlock()
	info, err := os.Stat(s.VersionPath(tag))
	return err == nil && info.IsDir()
}

// ListPriorVersions returns the dump directories other than currentTag,
// newest-looking first. Version strings are compared as plain strings, so
// "1_9" sorts before "1_10".
func (s *Store) ListPriorVersions(currentTag string) ([]string, error) {
	names, err := s.versionNames()
	if err != nil {
		return nil, err
	}

	var versions []string
	for _, name := range names {
		if name == currentTag {
			continue
		}
		versions = append(versions, filepath.Join(s.root, name))
	}
	return versions, nil
}

// Versions returns every dump version tag, newest-looking first.
func (s *Store) Versions() ([]string, error) {
	return s.versionNames()
}

func (s *Store) versionNames() ([]string, error) {
	s.RLock()
	defer s.RUnlock()

	entries, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, e := range entries {
		if !e.IsDir() || strings.Contains(e.Name(), pngMarker) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Buckets lists the extension buckets dumped for tag.
func (s *Store) Buckets(tag string) ([]string, error) {
	s.RLock()
	defer s.RUnlock()

	entries, err := os.ReadDir(s.VersionPath(tag))
	if err != nil {
		return nil, err
	}
	var buckets []string
	for _, e := range entries {
		if e.IsDir() {
			buckets = append(buckets, e.Name())
		}
	}
	sort.Strings(buckets)
	return buckets, nil
}

func (s *Store) Size(tag string) (int64, error) {
	s.RLock()
	defer s.RUnlock()

	var size int64

	err := filepath.Walk(s.VersionPath(tag), func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})

	return size, err
}

func (s *Store) Remove(tag string) error {
	s.Lock()
	defer s.Unlock()

	if !validTag(tag) {
		return os.ErrInvalid
	}
	return os.RemoveAll(s.VersionPath(tag))
}
