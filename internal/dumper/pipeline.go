package dumper

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/teamcutter/d2rdump/internal/console"
	"github.com/teamcutter/d2rdump/internal/domain"
	"github.com/teamcutter/d2rdump/internal/layout"
)

// ErrNoEntries is returned when the archive cannot be enumerated at all.
var ErrNoEntries = errors.New("no files found")

const DefaultMaxEntrySize = 1 << 30

type Stats struct {
	FilesDumped  int
	BytesWritten int64
	Excluded     int
	Skipped      int
	Elapsed      time.Duration
}

type Pipeline struct {
	layout       *layout.Layout
	console      *console.Console
	maxEntrySize int64

	// OnEntry, when set, is called once per enumerated entry.
	OnEntry func(name string)
}

func New(l *layout.Layout, c *console.Console, maxEntrySize int64) *Pipeline {
	if maxEntrySize <= 0 {
		maxEntrySize = DefaultMaxEntrySize
	}
	return &Pipeline{
		layout:       l,
		console:      c,
		maxEntrySize: maxEntrySize,
	}
}

// Run dumps every entry of s selected by filter into the version tree. Only a
// failure to enumerate the archive is returned; per-entry failures skip the
// entry and are counted in Stats.Skipped.
func (p *Pipeline) Run(s domain.Storage, filter Filter, versionTag string) (Stats, error) {
	var stats Stats
	start := time.Now()

	finder, err := s.Find("*")
	if err != nil {
		return stats, fmt.Errorf("%w: %v", ErrNoEntries, err)
	}
	defer finder.Close()

	bucket := filter.Bucket()

	for {
		entry, err := finder.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.console.Error("Enumeration stopped: %v", err)
			break
		}
		if p.OnEntry != nil {
			p.OnEntry(entry.Name)
		}

		if Excluded(entry.Name) {
			stats.Excluded++
			continue
		}
		if !filter.Match(entry.Name) {
			continue
		}

		n, err := p.dumpEntry(s, entry.Name, bucket, versionTag)
		if err != nil {
			stats.Skipped++
			continue
		}
		stats.FilesDumped++
		stats.BytesWritten += n
	}

	stats.Elapsed = time.Since(start)
	return stats, nil
}

func (p *Pipeline) dumpEntry(s domain.Storage, name, bucket, versionTag string) (int64, error) {
	h, err := s.OpenEntry(name)
	if err != nil {
		return 0, err
	}
	defer h.Close()

	info, err := h.Info()
	if err != nil {
		return 0, err
	}
	if info.ContentSize < 0 || info.ContentSize > p.maxEntrySize {
		p.console.Warn("Cannot allocate %d bytes for %s", info.ContentSize, name)
		return 0, fmt.Errorf("entry %s: size %d out of range", name, info.ContentSize)
	}

	buf := make([]byte, info.ContentSize)
	n, err := io.ReadFull(h, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, err
	}

	if _, err := p.layout.Write(name, bucket, versionTag, buf[:n]); err != nil {
		return 0, err
	}
	return int64(n), nil
}
