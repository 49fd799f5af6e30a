package domain

import "time"

// Entry is one logical file inside an archive as reported by enumeration.
type Entry struct {
	Name string
	Size int64
}

type EntryInfo struct {
	ContentSize int64
}

type RunStatus string

const (
	RunPending     RunStatus = "pending"
	RunCompleted   RunStatus = "completed"
	RunInterrupted RunStatus = "interrupted"
	RunFailed      RunStatus = "failed"
)

// DumpRun is one extraction of a (version tag, extension bucket) pair.
type DumpRun struct {
	ID          string        `json:"id"`
	VersionTag  string        `json:"version_tag"`
	Bucket      string        `json:"bucket"`
	Filter      string        `json:"filter"`
	StoragePath string        `json:"storage_path"`
	FilesDumped int           `json:"files_dumped"`
	Bytes       int64         `json:"bytes"`
	Elapsed     time.Duration `json:"elapsed"`
	StartedAt   time.Time     `json:"started_at"`
	Status      RunStatus     `json:"status"`
}

type History struct {
	Runs map[string]*DumpRun `json:"runs"`
}

func NewHistory() *History {
	return &History{Runs: make(map[string]*DumpRun)}
}
