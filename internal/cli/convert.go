package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/d2rdump/internal/console"
)

func newConvertCmd(cfgPath func() string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "convert <version>",
		Short: "Convert dumped HD sprites of a version to PNG frames",
		Args:  cobra.ExactArgs(1),
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

			tag := args[0]
			if out == "" {
				out = mgr.PNGRoot(tag)
			}

			stats, err := mgr.Convert(cmd.Context(), tag, out, true)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %d sprite(s) converted into %d frame(s)\n  %s %s\n",
				green("✓"), stats.Sprites, stats.Frames, cyan("path:"), out)
			if stats.Skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %d not HD\n", dim("↳"), stats.Skipped)
			}
			if stats.Failed > 0 {
				return fmt.Errorf("failed to convert %d sprite(s)", stats.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output directory (default <output>/<version>_png)")
	return cmd
}
