package cli

import (
	"github.com/spf13/cobra"

	"github.com/teamcutter/d2rdump/internal/console"
)

func Execute() error {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "d2rdump",
		Short:         "Dump and compare game archive assets by version",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default ~/.d2rdump/config.toml)")

	cfgPath := func() string { return configPath }
	rootCmd.AddCommand(
		newDumpCmd(cfgPath),
		newCompareCmd(cfgPath),
		newVersionsCmd(cfgPath),
		newConvertCmd(cfgPath),
		newHistoryCmd(cfgPath),
		newCleanCmd(cfgPath),
		newVersionCmd(),
	)

	err := rootCmd.Execute()
	if err != nil {
		console.Stdio().Error("%v", err)
	}
	return err
}
