package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/teamcutter/d2rdump/internal/console"
)

func newCleanCmd(cfgPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "clean <version>...",
		Short: "Remove dumps of the given versions",
		Args:  cobra.MinimumNArgs(1),
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

			var failed int
			for _, tag := range args {
				stop := withSpinner(cmd.Context(), fmt.Sprintf("Removing %s...", tag))
				freed, err := mgr.Clean(tag)
				stop()

				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %v\n", red("✗"), tag, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s removed (%s freed)\n", green("✓"), bold(tag), humanize.Bytes(uint64(freed)))
			}

			if failed > 0 {
				return fmt.Errorf("failed to remove %d dump(s)", failed)
			}
			return nil
		},
	}
}
