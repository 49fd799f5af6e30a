package cli

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/teamcutter/d2rdump/internal/config"
	"github.com/teamcutter/d2rdump/internal/console"
	"github.com/teamcutter/d2rdump/internal/domain"
	"github.com/teamcutter/d2rdump/internal/dumper"
	"github.com/teamcutter/d2rdump/internal/dumps"
	"github.com/teamcutter/d2rdump/internal/exever"
	"github.com/teamcutter/d2rdump/internal/layout"
	"github.com/teamcutter/d2rdump/internal/manager"
	"github.com/teamcutter/d2rdump/internal/state"
	"github.com/teamcutter/d2rdump/internal/storage"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

func newState(cfg *config.Config, c *console.Console) (domain.RunState, error) {
	if cfg.StateBackend == config.BackendJSON {
		return state.New(cfg.HistoryFile), nil
	}

	s, err := state.NewSQLite(cfg.DBFile, cfg.HistoryFile)
	if err != nil {
		return nil, err
	}
	for _, r := range s.Recovered {
		c.Warn("Previous dump of %s was interrupted; its files may be incomplete.", r)
	}
	return s, nil
}

// newManager wires the collaborators named by cfg. With quiet set, per-file
// saved lines are dropped; warnings and errors still reach c.
func newManager(cfg *config.Config, c *console.Console, quiet bool) (*manager.Manager, error) {
	st, err := newState(cfg, c)
	if err != nil {
		return nil, err
	}

	pc := c
	if quiet {
		pc = c.Quiet()
	}
	pipeline := dumper.New(layout.New(cfg.OutputDir, pc), pc, cfg.MaxEntrySize)

	return manager.New(
		storage.Open,
		exever.Source{Path: cfg.ExePath},
		pipeline,
		dumps.New(cfg.OutputDir),
		st,
		c,
		cfg.MaxParallel), nil
}

// newSpinner returns a spinner that is advanced by the caller; stop clears it.
func newSpinner(desc string) (tick func(), stop func()) {
	spinner := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	return func() { spinner.Add(1) }, func() { spinner.Finish() }
}

func withSpinner(ctx context.Context, desc string) (stop func()) {
	spinner := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				spinner.Finish()
				return
			default:
				spinner.Add(1)
				time.Sleep(100 * time.Millisecond)
			}
		}
	}()
	return func() {
		close(done)
		spinner.Finish()
	}
}
