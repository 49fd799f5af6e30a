package manager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/teamcutter/d2rdump/internal/compare"
	"github.com/teamcutter/d2rdump/internal/console"
	"github.com/teamcutter/d2rdump/internal/domain"
	"github.com/teamcutter/d2rdump/internal/dumper"
	"github.com/teamcutter/d2rdump/internal/dumps"
	"github.com/teamcutter/d2rdump/internal/layout"
	"github.com/teamcutter/d2rdump/internal/sprite"
)

var ErrStorageOpen = errors.New("cannot open storage")

// OpenFunc opens an archive container.
type OpenFunc func(path string) (domain.Storage, error)

type Manager struct {
	open     OpenFunc
	versions domain.VersionSource
	pipeline *dumper.Pipeline
	store    *dumps.Store
	state    domain.RunState
	console  *console.Console
	parallel int
}

func New(
	open OpenFunc,
	versions domain.VersionSource,
	pipeline *dumper.Pipeline,
	store *dumps.Store,
	state domain.RunState,
	c *console.Console,
	parallel int,
) *Manager {

	return &Manager{
		open:     open,
		versions: versions,
		pipeline: pipeline,
		store:    store,
		state:    state,
		console:  c,
		parallel: parallel,
	}
}

type DumpOptions struct {
	StoragePath string
	Filter      dumper.Filter
	// VersionTag skips the executable lookup when set. It is sanitized like a
	// looked-up version.
	VersionTag string
}

// VersionTag returns the sanitized tag for this run. A failed lookup yields
// "unknown".
func (m *Manager) VersionTag(override string) string {
	raw := override
	if raw == "" && m.versions != nil {
		raw = m.versions.ProductVersion()
	}
	if raw == "" {
		m.console.Warn("Could not read the game version, using %q.", layout.UnknownVersion)
	}
	return layout.SanitizeVersion(raw)
}

// Dump extracts the entries selected by opts.Filter into the version tree.
// Only storage and enumeration failures are returned.
func (m *Manager) Dump(opts DumpOptions) (*domain.DumpRun, error) {
	tag := m.VersionTag(opts.VersionTag)

	s, err := m.open(opts.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStorageOpen, opts.StoragePath, err)
	}
	defer s.Close()
	m.console.Info("Storage opened: %s", opts.StoragePath)

	run := &domain.DumpRun{
		ID:          uuid.NewString(),
		VersionTag:  tag,
		Bucket:      opts.Filter.Bucket(),
		Filter:      opts.Filter.String(),
		StoragePath: opts.StoragePath,
		StartedAt:   time.Now(),
	}
	if err := m.state.Begin(run); err != nil {
		m.console.Warn("Cannot record run: %v", err)
	}

	stats, err := m.pipeline.Run(s, opts.Filter, tag)
	if err != nil {
		run.Elapsed = time.Since(run.StartedAt)
		if ferr := m.state.Fail(run); ferr != nil {
			m.console.Warn("Cannot record run: %v", ferr)
		}
		return nil, err
	}

	run.FilesDumped = stats.FilesDumped
	run.Bytes = stats.BytesWritten
	run.Elapsed = stats.Elapsed
	if err := m.state.Complete(run); err != nil {
		m.console.Warn("Cannot record run: %v", err)
	}

	return run, nil
}

func (m *Manager) Pipeline() *dumper.Pipeline {
	return m.pipeline
}

func (m *Manager) Store() *dumps.Store {
	return m.store
}

func (m *Manager) PriorVersions(currentTag string) ([]string, error) {
	return m.store.ListPriorVersions(currentTag)
}

// CompareWith diffs every bucket of currentTag against the dump at priorRoot.
func (m *Manager) CompareWith(priorRoot, currentTag string) (compare.Summary, error) {
	return compare.CompareVersions(m.console, priorRoot, m.store.VersionPath(currentTag))
}

// CompareTags diffs two version tags, either one bucket or all of them.
func (m *Manager) CompareTags(oldTag, newTag, bucket string) (compare.Summary, error) {
	if bucket == "" {
		return compare.CompareVersions(m.console, m.store.VersionPath(oldTag), m.store.VersionPath(newTag))
	}

	res, err := compare.Compare(m.store.BucketPath(oldTag, bucket), m.store.BucketPath(newTag, bucket))
	if err != nil {
		return compare.Summary{}, err
	}
	compare.Render(m.console.Out(), res)
	return compare.Summary{Compared: []compare.Result{res}}, nil
}

// PNGRoot is where converted frames of tag are written by default.
func (m *Manager) PNGRoot(tag string) string {
	return filepath.Join(m.store.Root(), tag+"_png")
}

func (m *Manager) Convert(ctx context.Context, tag, outDir string, progress bool) (sprite.ConvertStats, error) {
	if outDir == "" {
		outDir = m.PNGRoot(tag)
	}
	in := m.store.BucketPath(tag, layout.Bucket(sprite.Extension))

	cv := sprite.NewConverter(in, outDir, m.parallel, m.console)
	cv.ShowProgress = progress
	return cv.Convert(ctx)
}

func (m *Manager) History() ([]*domain.DumpRun, error) {
	return m.state.List()
}

// Clean removes the dump of tag and returns the number of bytes freed.
func (m *Manager) Clean(tag string) (int64, error) {
	if !m.store.Has(tag) {
		return 0, fmt.Errorf("no dump for version %s", tag)
	}
	size, err := m.store.Size(tag)
	if err != nil {
		m.console.Warn("Cannot measure dump %s, freed size is incomplete: %v", tag, err)
	}
	if err := m.store.Remove(tag); err != nil {
		return 0, err
	}
	return size, nil
}

func (m *Manager) Close() error {
	return m.state.Close()
}
