package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/teamcutter/d2rdump/internal/domain"
)

// ManifestState keeps the run history in a single JSON file.
type ManifestState struct {
	mu      sync.RWMutex
	path    string
	history *domain.History
}

func New(path string) *ManifestState {
	return &ManifestState{
		path: path,
	}
}

func (m *ManifestState) init() error {
	if m.history != nil {
		return nil
	}
	history, err := readHistory(m.path)
	if os.IsNotExist(err) {
		m.history = domain.NewHistory()
		return nil
	}
	if err != nil {
		return err
	}
	m.history = history
	return nil
}

func readHistory(path string) (*domain.History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var history domain.History
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	if history.Runs == nil {
		history.Runs = make(map[string]*domain.DumpRun)
	}
	return &history, nil
}

func writeHistory(path string, history *domain.History) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (m *ManifestState) Begin(run *domain.DumpRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.init(); err != nil {
		return err
	}
	run.Status = domain.RunPending
	m.history.Runs[run.ID] = run
	return writeHistory(m.path, m.history)
}

func (m *ManifestState) Complete(run *domain.DumpRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.init(); err != nil {
		return err
	}
	run.Status = domain.RunCompleted
	m.history.Runs[run.ID] = run
	return writeHistory(m.path, m.history)
}

func (m *ManifestState) Fail(run *domain.DumpRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.init(); err != nil {
		return err
	}
	run.Status = domain.RunFailed
	m.history.Runs[run.ID] = run
	return writeHistory(m.path, m.history)
}

func (m *ManifestState) List() ([]*domain.DumpRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.init(); err != nil {
		return nil, err
	}
	runs := make([]*domain.DumpRun, 0, len(m.history.Runs))
	for _, r := range m.history.Runs {
		runs = append(runs, r)
	}
	domain.SortRuns(runs)
	return runs, nil
}

func (m *ManifestState) Close() error {
	return nil
}
