package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teamcutter/d2rdump/internal/console"
)

func newCompareCmd(cfgPath func() string) *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "compare <old-version> <new-version>",
		Short: "Compare the file listings of two dumps",
		Args:  cobra.ExactArgs(2),
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

			summary, err := mgr.CompareTags(args[0], args[1], bucket)
			if err != nil {
				return err
			}

			var removed, added int
			for _, r := range summary.Compared {
				removed += len(r.Removed)
				added += len(r.Added)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s %d bucket(s) compared, %s removed, %s added",
				bold("✓"), len(summary.Compared), red(removed), green(added))
			if len(summary.Skipped) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", %s", yellow(fmt.Sprintf("%d skipped", len(summary.Skipped))))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Only compare this extension bucket, e.g. sprite")
	return cmd
}
