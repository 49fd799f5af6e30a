package storage

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/teamcutter/d2rdump/internal/domain"
)

var fixture = []struct {
	name string
	body string
}{
	{"data/ui/a.sprite", "0123456789"},
	{"data/lowend/b.sprite", "abcde"},
	{"other.json", "{}\n"},
	{"data/empty.txt", ""},
}

func writeTar(t *testing.T, w io.Writer) {
	t.Helper()
	tw := tar.NewWriter(w)
	if err := tw.WriteHeader(&tar.Header{Name: "data/", Typeflag: tar.TypeDir, Mode: 0755}); err != nil {
		t.Fatal(err)
	}
	for _, f := range fixture {
		hdr := &tar.Header{Name: f.name, Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(f.body))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(f.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
}

func buildTar(t *testing.T, name string, wrap func(io.Writer) io.WriteCloser) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := wrap(f)
	writeTar(t, w)
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func buildZip(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "data.zip")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())
	for i, e := range fixture {
		method := zip.Deflate
		if i%2 == 1 {
			method = zstd.ZipMethodWinZip
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: method})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func buildDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, e := range fixture {
		p := filepath.Join(root, filepath.FromSlash(e.name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(e.body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func collect(t *testing.T, s domain.Storage, pattern string) map[string]int64 {
	t.Helper()
	f, err := s.Find(pattern)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	got := make(map[string]int64)
	for {
		e, err := f.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got[e.Name] = e.Size
	}
	return got
}

func readEntry(t *testing.T, s domain.Storage, name string) string {
	t.Helper()
	h, err := s.OpenEntry(name)
	if err != nil {
		t.Fatalf("open %s: %v", name, err)
	}
	defer h.Close()

	info, err := h.Info()
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, info.ContentSize)
	if _, err := io.ReadFull(h, buf); err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(buf)
}

func TestStorageBackends(t *testing.T) {
	backends := map[string]func(t *testing.T) string{
		"dir": buildDir,
		"zip": buildZip,
		"tar": func(t *testing.T) string {
			return buildTar(t, "data.tar", func(w io.Writer) io.WriteCloser { return nopWriteCloser{w} })
		},
		"tar.gz": func(t *testing.T) string {
			return buildTar(t, "data.tar.gz", func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) })
		},
		"tar.zst": func(t *testing.T) string {
			return buildTar(t, "data.tar.zst", func(w io.Writer) io.WriteCloser {
				zw, err := zstd.NewWriter(w)
				if err != nil {
					t.Fatal(err)
				}
				return zw
			})
		},
		"tar.xz": func(t *testing.T) string {
			return buildTar(t, "data.tar.xz", func(w io.Writer) io.WriteCloser {
				xw, err := xz.NewWriter(w)
				if err != nil {
					t.Fatal(err)
				}
				return xw
			})
		},
	}

	want := make(map[string]int64)
	for _, e := range fixture {
		want[e.name] = int64(len(e.body))
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			s, err := Open(build(t))
			if err != nil {
				t.Fatal(err)
			}
			defer s.Close()

			if diff := deep.Equal(collect(t, s, "*"), want); diff != nil {
				t.Errorf("entries: %v", diff)
			}

			// In order, then backwards to force a rewind on sequential backends.
			for _, e := range fixture {
				if got := readEntry(t, s, e.name); got != e.body {
					t.Errorf("%s = %q, want %q", e.name, got, e.body)
				}
			}
			for i := len(fixture) - 1; i >= 0; i-- {
				e := fixture[i]
				if got := readEntry(t, s, e.name); got != e.body {
					t.Errorf("%s (rewind) = %q, want %q", e.name, got, e.body)
				}
			}

			if _, err := s.OpenEntry("missing/file"); err == nil {
				t.Error("expected error for missing entry")
			}
		})
	}
}

func TestFindPattern(t *testing.T) {
	s, err := OpenDir(buildDir(t))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got := collect(t, s, "*.json")
	if diff := deep.Equal(got, map[string]int64{"other.json": 3}); diff != nil {
		t.Error(diff)
	}
}

func TestOpenUnsupported(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data.rar")
	if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(p); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing storage")
	}
}

func TestEmptyArchive(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empty.tar")
	var buf bytes.Buffer
	if err := tar.NewWriter(&buf).Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if got := collect(t, s, "*"); len(got) != 0 {
		t.Errorf("entries = %v, want none", got)
	}
}

func TestTarDotSlashNames(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, hdr := range []*tar.Header{
		{Name: "./", Typeflag: tar.TypeDir, Mode: 0755},
		{Name: "./data/ui/a.sprite", Typeflag: tar.TypeReg, Mode: 0644, Size: 3},
	} {
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if hdr.Size > 0 {
			if _, err := tw.Write([]byte("abc")); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), "data.tar")
	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if diff := deep.Equal(collect(t, s, "*"), map[string]int64{"data/ui/a.sprite": 3}); diff != nil {
		t.Error(diff)
	}
	if got := readEntry(t, s, "data/ui/a.sprite"); got != "abc" {
		t.Errorf("body = %q", got)
	}
}
