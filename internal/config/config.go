package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

type Config struct {
	// DataPath is the archive storage to dump: an unpacked data tree or a
	// zip/tar archive of one.
	DataPath string `toml:"data_path"`
	// ExePath is the game executable whose version resource names the dump.
	ExePath string `toml:"exe_path"`
	// VersionOverride, when set, replaces the executable version lookup.
	VersionOverride string `toml:"version_override"`

	OutputDir    string `toml:"output_dir"`
	DBFile       string `toml:"db_file"`
	HistoryFile  string `toml:"history_file"`
	StateBackend string `toml:"state_backend"`

	MaxParallel  int   `toml:"max_parallel"`
	MaxEntrySize int64 `toml:"max_entry_size"`
}

func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".d2rdump"
	}
	return filepath.Join(home, ".d2rdump")
}

func DefaultPath() string {
	return filepath.Join(baseDir(), "config.toml")
}

func DefaultConfig() *Config {
	base := baseDir()

	return &Config{
		DataPath:     `C:\Program Files (x86)\Diablo II Resurrected\Data`,
		ExePath:      `C:\Program Files (x86)\Diablo II Resurrected\D2R.exe`,
		OutputDir:    "output",
		DBFile:       filepath.Join(base, "state.db"),
		HistoryFile:  filepath.Join(base, "history.json"),
		StateBackend: BackendSQLite,
		MaxParallel:  runtime.NumCPU(),
		MaxEntrySize: 1 << 30,
	}
}

// Load reads the config at path. A missing file is created with defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "[Warning] cannot write default config: %v\n", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StateBackend {
	case BackendSQLite, BackendJSON:
	default:
		return fmt.Errorf("unknown state_backend %q", c.StateBackend)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if c.MaxParallel < 1 {
		c.MaxParallel = 1
	}
	return nil
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
