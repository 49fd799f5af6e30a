package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/teamcutter/d2rdump/internal/console"
	"github.com/teamcutter/d2rdump/internal/domain"
)

func newHistoryCmd(cfgPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recorded dump runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath())
			if err != nil {
				return err
			}

			c := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			mgr, err := newManager(cfg, c, false)
			if err != nil {
				return err
			}
			defer mgr.Close()

			runs, err := mgr.History()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintf(out, "\n%s No dumps recorded\n", dim("○"))
				return nil
			}

			for _, r := range runs {
				status := green("✓")
				switch r.Status {
				case domain.RunPending:
					status = yellow("…")
				case domain.RunInterrupted, domain.RunFailed:
					status = red("✗")
				}
				fmt.Fprintf(out, "%s %s %s  %d files, %s  %s\n",
					status, bold(r.VersionTag), dim(r.Bucket),
					r.FilesDumped, humanize.Bytes(uint64(r.Bytes)),
					dim(humanize.Time(r.StartedAt)))
			}
			return nil
		},
	}
}
