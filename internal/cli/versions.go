package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teamcutter/d2rdump/internal/console"
)

func newVersionsCmd(cfgPath func() string) *cobra.Command {
	var current string

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List dumped versions available for comparison",
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

			var versions []string
			if current == "" {
				versions, err = mgr.Store().Versions()
			} else {
				var paths []string
				paths, err = mgr.PriorVersions(current)
				for _, p := range paths {
					versions = append(versions, filepath.Base(p))
				}
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(versions) == 0 {
				fmt.Fprintf(out, "\n%s No dumps in %s\n", dim("○"), cfg.OutputDir)
				return nil
			}

			fmt.Fprintf(out, "Dumps in %s:\n\n", cfg.OutputDir)
			for i, v := range versions {
				buckets, _ := mgr.Store().Buckets(v)
				fmt.Fprintf(out, " %s %s  %s\n", dim(fmt.Sprintf("[%d]", i+1)), bold(v), dim(strings.Join(buckets, ", ")))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "tag", "", "Only list versions other than this one")
	return cmd
}
