package cli

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/teamcutter/d2rdump/internal/console"
	"github.com/teamcutter/d2rdump/internal/dumper"
	"github.com/teamcutter/d2rdump/internal/manager"
)

type dumpFlags struct {
	ext     string
	storage string
	tag     string
	compare bool
	against string
	quiet   bool
}

func newDumpCmd(cfgPath func() string) *cobra.Command {
	var f dumpFlags

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump archive entries matching an extension",
		Long: "Dump every archive entry whose path contains the extension filter into\n" +
			"<output>/<version>/<extension>/. Without --ext the filter and the\n" +
			"comparison target are asked for interactively.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath())
			if err != nil {
				return err
			}

			c := console.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
			mgr, err := newManager(cfg, c, f.quiet)
			if err != nil {
				return err
			}
			defer mgr.Close()

			prompt := NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			interactive := f.ext == ""
			if interactive {
				answer, ok := prompt.Ask("Enter extension to dump (e.g. .sprite, .json, all): ")
				if !ok || answer == "" {
					return fmt.Errorf("no extension given")
				}
				f.ext = answer
			}
			filter := dumper.ParseFilter(f.ext)

			storagePath := f.storage
			if storagePath == "" {
				storagePath = cfg.DataPath
			}
			tag := f.tag
			if tag == "" {
				tag = cfg.VersionOverride
			}

			if f.quiet {
				tick, stop := newSpinner(fmt.Sprintf("Dumping *%s", filter))
				mgr.Pipeline().OnEntry = func(string) { tick() }
				defer stop()
			}

			run, err := mgr.Dump(manager.DumpOptions{
				StoragePath: storagePath,
				Filter:      filter,
				VersionTag:  tag,
			})
			if err != nil {
				return err
			}

			c.Summary("Dumped %d *%s files (%s) in %.2f s.",
				run.FilesDumped, filter, humanize.Bytes(uint64(run.Bytes)), run.Elapsed.Seconds())
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", cyan("path:"),
				filepath.Join(cfg.OutputDir, run.VersionTag, run.Bucket))

			wantCompare := f.compare || f.against != ""
			if !wantCompare && interactive {
				wantCompare = prompt.Confirm("Compare with a previous dump? (y/n): ")
			}
			if !wantCompare {
				return nil
			}

			return compareInteractive(c, mgr, prompt, run.VersionTag, f.against, interactive)
		},
	}

	cmd.Flags().StringVarP(&f.ext, "ext", "e", "", "Extension filter, e.g. .sprite (\"all\" dumps everything)")
	cmd.Flags().StringVar(&f.storage, "storage", "", "Archive storage to read (default data_path from config)")
	cmd.Flags().StringVar(&f.tag, "tag", "", "Version to file the dump under instead of the executable's version")
	cmd.Flags().BoolVar(&f.compare, "compare", false, "Compare with the newest previous dump afterwards")
	cmd.Flags().StringVar(&f.against, "against", "", "Version tag to compare against")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "Show a spinner instead of every saved file")
	return cmd
}

// compareInteractive picks a prior dump and diffs it against currentTag. Bad
// selections skip the comparison.
func compareInteractive(c *console.Console, mgr *manager.Manager, prompt *Prompter, currentTag, against string, interactive bool) error {
	if against != "" {
		if !mgr.Store().Has(against) {
			c.Warn("No dump for version %s, skipping comparison.", against)
			return nil
		}
		_, err := mgr.CompareWith(mgr.Store().VersionPath(against), currentTag)
		return err
	}

	versions, err := mgr.PriorVersions(currentTag)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		c.Info("No previous dumps found to compare against.")
		return nil
	}

	choice := 0
	if interactive {
		names := make([]string, len(versions))
		for i, v := range versions {
			names[i] = filepath.Base(v)
		}
		var ok bool
		choice, ok = prompt.Choose("Select a version to compare against: ", names)
		if !ok {
			c.Info("Invalid selection, skipping comparison.")
			return nil
		}
	}

	_, err = mgr.CompareWith(versions[choice], currentTag)
	return err
}
