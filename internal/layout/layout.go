package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/teamcutter/d2rdump/internal/console"
)

// AllBucket names the bucket used when every entry is dumped.
const AllBucket = "all"

type Layout struct {
	root    string
	console *console.Console
}

func New(root string, c *console.Console) *Layout {
	return &Layout{root: root, console: c}
}

func (l *Layout) Root() string {
	return l.root
}

// Bucket strips a single leading dot off the filter text.
func Bucket(filter string) string {
	return strings.TrimPrefix(filter, ".")
}

// ResolveAndPrepare returns the path at which the entry should be written and
// creates its parent directories. A mkdir failure is reported and otherwise
// ignored so that only the subsequent write for this entry fails.
func (l *Layout) ResolveAndPrepare(rawPath, bucket, versionTag string) string {
	rel := filepath.FromSlash(Normalize(rawPath))
	full := filepath.Join(l.root, versionTag, bucket, rel)

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		l.console.Error("Failed to create directory: %s (%v)", dir, err)
	}
	return full
}

// Write persists data for one entry and reports the saved path.
func (l *Layout) Write(rawPath, bucket, versionTag string, data []byte) (string, error) {
	if rel := filepath.FromSlash(Normalize(rawPath)); !filepath.IsLocal(rel) {
		l.console.Error("Invalid path in archive: %s", rawPath)
		return "", fmt.Errorf("invalid path in archive: %s", rawPath)
	}

	full := l.ResolveAndPrepare(rawPath, bucket, versionTag)
	if err := os.WriteFile(full, data, 0644); err != nil {
		l.console.Error("Cannot write: %s", full)
		return "", err
	}
	l.console.Info("Saved: %s", full)
	return full, nil
}
