package storage

import (
	"fmt"

	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"

	"github.com/teamcutter/d2rdump/internal/domain"
)

type ZipStorage struct {
	r     *zip.ReadCloser
	files map[string]*zip.File
	index []domain.Entry
}

func OpenZip(src string) (*ZipStorage, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	r.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	zs := &ZipStorage{r: r, files: make(map[string]*zip.File, len(r.File))}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := entryName(f.Name)
		zs.files[name] = f
		zs.index = append(zs.index, domain.Entry{Name: name, Size: int64(f.UncompressedSize64)})
	}

	return zs, nil
}

func (zs *ZipStorage) Find(pattern string) (domain.Finder, error) {
	return newSliceFinder(zs.index, pattern)
}

func (zs *ZipStorage) OpenEntry(name string) (domain.EntryHandle, error) {
	f, ok := zs.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	return &entryHandle{Reader: rc, size: int64(f.UncompressedSize64), closer: rc.Close}, nil
}

func (zs *ZipStorage) Close() error {
	return zs.r.Close()
}
