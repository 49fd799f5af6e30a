package domain

import "io"

// Storage is an opened archive container.
type Storage interface {
	Find(pattern string) (Finder, error)
	OpenEntry(name string) (EntryHandle, error)
	Close() error
}

// Finder walks the entries matched by a Find call. Next returns io.EOF once
// every entry has been reported.
type Finder interface {
	Next() (Entry, error)
	Close() error
}

type EntryHandle interface {
	io.ReadCloser
	Info() (EntryInfo, error)
}

type RunState interface {
	Begin(run *DumpRun) error
	Complete(run *DumpRun) error
	// Fail records a run that stopped on a fatal error.
	Fail(run *DumpRun) error
	List() ([]*DumpRun, error)
	Close() error
}

type VersionSource interface {
	ProductVersion() string
}
