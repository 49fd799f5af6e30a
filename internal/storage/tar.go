package storage

import (
	"archive/tar"
	"compress/bzip2"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/teamcutter/d2rdump/internal/domain"
)

// TarStorage serves a (possibly compressed) tar archive. Tar streams are
// sequential, so entries are read through a forward cursor; opening an entry
// that lies behind the cursor rewinds the stream.
type TarStorage struct {
	src   string
	index []domain.Entry
	pos   map[string]int

	file    *os.File
	cleanup func()
	tr      *tar.Reader
	cursor  int
}

func OpenTar(src string) (*TarStorage, error) {
	ts := &TarStorage{src: src, pos: make(map[string]int)}

	if err := ts.rewind(); err != nil {
		return nil, err
	}
	for {
		header, err := ts.tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			ts.Close()
			return nil, fmt.Errorf("tar: %w", err)
		}
		ts.cursor++
		if header.Typeflag != tar.TypeReg {
			continue
		}
		name := entryName(header.Name)
		if _, dup := ts.pos[name]; !dup {
			ts.pos[name] = ts.cursor
		}
		ts.index = append(ts.index, domain.Entry{Name: name, Size: header.Size})
	}

	return ts, nil
}

func (ts *TarStorage) Find(pattern string) (domain.Finder, error) {
	return newSliceFinder(ts.index, pattern)
}

func (ts *TarStorage) OpenEntry(name string) (domain.EntryHandle, error) {
	target, ok := ts.pos[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if target <= ts.cursor {
		if err := ts.rewind(); err != nil {
			return nil, err
		}
	}

	var header *tar.Header
	for ts.cursor < target {
		h, err := ts.tr.Next()
		if err != nil {
			return nil, fmt.Errorf("tar: seeking %s: %w", name, err)
		}
		ts.cursor++
		header = h
	}

	return &entryHandle{Reader: io.LimitReader(ts.tr, header.Size), size: header.Size}, nil
}

func (ts *TarStorage) Close() error {
	return ts.release()
}

func (ts *TarStorage) rewind() error {
	if err := ts.release(); err != nil {
		return err
	}

	file, err := os.Open(ts.src)
	if err != nil {
		return err
	}

	reader, cleanup, err := getDecompressor(file)
	if err != nil {
		file.Close()
		return err
	}

	ts.file = file
	ts.cleanup = cleanup
	ts.tr = tar.NewReader(reader)
	ts.cursor = 0
	return nil
}

func (ts *TarStorage) release() error {
	if ts.cleanup != nil {
		ts.cleanup()
		ts.cleanup = nil
	}
	ts.tr = nil
	if ts.file == nil {
		return nil
	}
	err := ts.file.Close()
	ts.file = nil
	return err
}

// https://gist.github.com/leommoore/f9e57ba2aa4bf197ebc5
func getDecompressor(file *os.File) (io.Reader, func(), error) {
	header := make([]byte, 6)
	n, _ := io.ReadFull(file, header)
	header = header[:n]
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, nil, err
	}

	switch {
	case n >= 4 && header[0] == 0x28 && header[1] == 0xb5 && header[2] == 0x2f && header[3] == 0xfd:
		// zstd: 0x28B52FFD
		zr, err := zstd.NewReader(file)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, func() { zr.Close() }, nil

	case n >= 2 && header[0] == 0x1f && header[1] == 0x8b:
		// gzip: 0x1F8B
		gzr, err := gzip.NewReader(file)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return gzr, func() { gzr.Close() }, nil

	case n >= 6 && header[0] == 0xfd && header[1] == 0x37 && header[2] == 0x7a && header[3] == 0x58 && header[4] == 0x5a && header[5] == 0x00:
		// xz: 0xFD377A585A00
		xzr, err := xz.NewReader(file)
		if err != nil {
			return nil, nil, fmt.Errorf("xz: %w", err)
		}
		return xzr, nil, nil

	case n >= 2 && header[0] == 0x42 && header[1] == 0x5a:
		// bzip2: 0x425A
		return bzip2.NewReader(file), nil, nil

	default:
		return file, nil, nil
	}
}
