package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/teamcutter/d2rdump/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS dumps (
    id           TEXT PRIMARY KEY,
    version_tag  TEXT NOT NULL,
    bucket       TEXT NOT NULL,
    filter       TEXT NOT NULL,
    storage_path TEXT NOT NULL DEFAULT '',
    files_dumped INTEGER NOT NULL DEFAULT 0,
    bytes        INTEGER NOT NULL DEFAULT 0,
    elapsed_ms   INTEGER NOT NULL DEFAULT 0,
    started_at   TEXT NOT NULL,
    status       TEXT NOT NULL DEFAULT 'pending'
);
`

// SQLiteState stores the run history in SQLite and mirrors it to a JSON
// export after every completed run.
type SQLiteState struct {
	mu         sync.RWMutex
	db         *sql.DB
	dbPath     string
	exportPath string

	// Recovered holds runs found pending at open time.
	Recovered []string
}

func NewSQLite(dbPath, exportPath string) (*SQLiteState, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	s := &SQLiteState{
		db:         db,
		dbPath:     dbPath,
		exportPath: exportPath,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	if err := s.recover(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to recover: %w", err)
	}

	return s, nil
}

// migrate imports a JSON history written by ManifestState into an empty
// database and keeps the old file as a backup.
func (s *SQLiteState) migrate() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM dumps").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	history, err := readHistory(s.exportPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(history.Runs) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, run := range history.Runs {
		if err := insertRun(tx, run); err != nil {
			return fmt.Errorf("failed to insert %s: %w", run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	backupPath := s.exportPath + ".bak"
	if err := os.Rename(s.exportPath, backupPath); err != nil {
		fmt.Fprintf(os.Stderr, "[Warning] failed to backup history: %v\n", err)
	}

	return nil
}

// recover marks runs left pending by an interrupted process. Their files
// stay on disk.
func (s *SQLiteState) recover() error {
	rows, err := s.db.Query("SELECT id, version_tag, bucket FROM dumps WHERE status = ?", string(domain.RunPending))
	if err != nil {
		return err
	}

	var pending []string
	for rows.Next() {
		var id, tag, bucket string
		if err := rows.Scan(&id, &tag, &bucket); err != nil {
			rows.Close()
			return err
		}
		pending = append(pending, id)
		s.Recovered = append(s.Recovered, fmt.Sprintf("%s/%s", tag, bucket))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range pending {
		if _, err := s.db.Exec("UPDATE dumps SET status = ? WHERE id = ?", string(domain.RunInterrupted), id); err != nil {
			return fmt.Errorf("failed to mark run %s interrupted: %w", id, err)
		}
	}

	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertRun(e execer, run *domain.DumpRun) error {
	_, err := e.Exec(`
		INSERT OR REPLACE INTO dumps
		(id, version_tag, bucket, filter, storage_path, files_dumped, bytes, elapsed_ms, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.VersionTag, run.Bucket, run.Filter, run.StoragePath,
		run.FilesDumped, run.Bytes, run.Elapsed.Milliseconds(),
		run.StartedAt.UTC().Format(time.RFC3339Nano), string(run.Status))
	return err
}

func (s *SQLiteState) Begin(run *domain.DumpRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.Status = domain.RunPending
	return insertRun(s.db, run)
}

func (s *SQLiteState) Complete(run *domain.DumpRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	run.Status = domain.RunCompleted
	if err := insertRun(tx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return s.exportJSON()
}

func (s *SQLiteState) Fail(run *domain.DumpRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.Status = domain.RunFailed
	if err := insertRun(s.db, run); err != nil {
		return err
	}
	return s.exportJSON()
}

func (s *SQLiteState) List() ([]*domain.DumpRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list()
}

func (s *SQLiteState) list() ([]*domain.DumpRun, error) {
	rows, err := s.db.Query(`
		SELECT id, version_tag, bucket, filter, storage_path, files_dumped, bytes,
		       elapsed_ms, started_at, status
		FROM dumps`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.DumpRun
	for rows.Next() {
		var run domain.DumpRun
		var elapsedMS int64
		var startedAt, status string

		if err := rows.Scan(&run.ID, &run.VersionTag, &run.Bucket, &run.Filter, &run.StoragePath,
			&run.FilesDumped, &run.Bytes, &elapsedMS, &startedAt, &status); err != nil {
			return nil, err
		}

		run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
		run.Status = domain.RunStatus(status)
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	domain.SortRuns(runs)
	return runs, nil
}

func (s *SQLiteState) exportJSON() error {
	runs, err := s.list()
	if err != nil {
		return err
	}

	history := domain.NewHistory()
	for _, r := range runs {
		history.Runs[r.ID] = r
	}
	return writeHistory(s.exportPath, history)
}

func (s *SQLiteState) Close() error {
	return s.db.Close()
}
