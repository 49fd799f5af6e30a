package dumps

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
}

func TestListPriorVersions(t *testing.T) {
	root := filepath.Join(t.TempDir(), "output")
	mkdirs(t, root, "1_0_0", "1_1_0", "1_1_0_png")
	s := New(root)

	got, err := s.ListPriorVersions("1_1_0")
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(got, []string{filepath.Join(root, "1_0_0")}); diff != nil {
		t.Error(diff)
	}
}

func TestListPriorVersionsOrder(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "1_9", "1_10", "2_0", "unknown", "png")
	if err := os.WriteFile(filepath.Join(root, "3_0"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	s := New(root)

	got, err := s.ListPriorVersions("2_0")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "unknown"),
		filepath.Join(root, "1_9"),
		filepath.Join(root, "1_10"),
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
}

func TestListPriorVersionsMissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "output"))
	got, err := s.ListPriorVersions("1_0_0")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestBucketsSizeRemove(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "1_0_0/sprite/ui", "1_0_0/json")
	if err := os.WriteFile(filepath.Join(root, "1_0_0", "sprite", "ui", "a.sprite"), make([]byte, 10), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "1_0_0", "json", "b.json"), make([]byte, 5), 0644); err != nil {
		t.Fatal(err)
	}
	s := New(root)

	buckets, err := s.Buckets("1_0_0")
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(buckets, []string{"json", "sprite"}); diff != nil {
		t.Error(diff)
	}

	size, err := s.Size("1_0_0")
	if err != nil {
		t.Fatal(err)
	}
	if size != 15 {
		t.Errorf("size = %d, want 15", size)
	}

	if err := s.Remove("../escape"); err == nil {
		t.Error("expected error for non-local tag")
	}
	if err := s.Remove("1_0_0"); err != nil {
		t.Fatal(err)
	}
	if s.Has("1_0_0") {
		t.Error("version still present after Remove")
	}
}

func TestRemoveRejectsRootAndNestedTags(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "1_0_0/sprite", "1_1_0/sprite")
	s := New(root)

	for _, tag := range []string{"", ".", "..", "../x", "1_0_0/sprite", "1_0_0/.."} {
		if s.Has(tag) {
			t.Errorf("Has(%q) = true", tag)
		}
		if err := s.Remove(tag); !errors.Is(err, os.ErrInvalid) {
			t.Errorf("Remove(%q) = %v, want os.ErrInvalid", tag, err)
		}
	}

	versions, err := s.Versions()
	if err != nil {
		t.Fatal(err)
	}
	if diff := deep.Equal(versions, []string{"1_1_0", "1_0_0"}); diff != nil {
		t.Errorf("dumps touched: %v", diff)
	}
}
