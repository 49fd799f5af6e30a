package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/teamcutter/d2rdump/internal/domain"
)

// DirStorage serves an unpacked data tree. Entry names are root-relative
// slash-separated paths.
type DirStorage struct {
	root  string
	fsys  fs.FS
	index []domain.Entry
}

func OpenDir(root string) (*DirStorage, error) {
	ds := &DirStorage{root: root, fsys: os.DirFS(root)}

	err := fs.WalkDir(ds.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		ds.index = append(ds.index, domain.Entry{Name: p, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dir: %w", err)
	}

	return ds, nil
}

func (ds *DirStorage) Find(pattern string) (domain.Finder, error) {
	return newSliceFinder(ds.index, pattern)
}

func (ds *DirStorage) OpenEntry(name string) (domain.EntryHandle, error) {
	f, err := ds.fsys.Open(filepath.ToSlash(name))
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !st.Mode().IsRegular() {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &entryHandle{Reader: f, size: st.Size(), closer: f.Close}, nil
}

func (ds *DirStorage) Close() error {
	ds.index = nil
	return nil
}
