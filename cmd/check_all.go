package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/caedis/deltaplan/internal/logging"
	"github.com/caedis/deltaplan/internal/profile"
	"github.com/caedis/deltaplan/internal/updater"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var checkAllCmd = &cobra.Command{
	Use:   "check-all <profile...>",
	Short: "Resolve update plans for several profiles",
	Long: `Loads each named profile and resolves its update plan. Profiles are
checked concurrently; a failing profile does not stop the others.

--feed, when passed, overrides the feed of every profile.`,
	Args: usageArgs(cobra.MinimumNArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if profileName != "" {
			return wrapUsageError(fmt.Errorf("--profile cannot be combined with check-all; pass profile names as arguments"))
		}

		all := make([]updater.NamedOptions, 0, len(args))
		for _, name := range args {
			p, err := profile.Load(name)
			if err != nil {
				return err
			}
			opts, err := optionsFromProfile(cmd, name, p)
			if err != nil {
				return err
			}
			all = append(all, updater.NamedOptions{Name: name, Options: opts})
		}

		results := updater.CheckAll(context.Background(), all)

		logging.Infoln()
		logging.Infoln("=== Summary ===")
		var firstErr error
		for _, r := range results {
			if r.Err != nil {
				logging.Infof("  %-20s FAILED: %v\n", r.Name, r.Err)
				if firstErr == nil {
					firstErr = fmt.Errorf("profile %q: %w", r.Name, r.Err)
				}
				continue
			}
			p := r.Result.Plan
			if p.UpToDate() {
				logging.Infof("  %-20s up to date (%s)\n", r.Name, p.Target().Version)
				continue
			}
			logging.Infof("  %-20s %d %s step(s) to %s, %s\n", r.Name, len(p.Steps()), p.Strategy(), p.Target().Version, humanize.Bytes(uint64(p.DownloadSize())))
		}
		return firstErr
	},
}

// optionsFromProfile builds check options from a profile. Flags passed on the
// command line win over profile values.
func optionsFromProfile(cmd *cobra.Command, name string, p *profile.Profile) (updater.Options, error) {
	opts := updater.Options{PackageDir: ".", Feed: feedSource}
	if p.PackageDir != nil {
		opts.PackageDir = *p.PackageDir
	}
	if p.Feed != nil && !cmd.Flags().Changed("feed") {
		opts.Feed = *p.Feed
	}
	if p.NotesTimeout != nil {
		d, err := time.ParseDuration(*p.NotesTimeout)
		if err != nil {
			return updater.Options{}, fmt.Errorf("profile %q: invalid notes-timeout: %w", name, err)
		}
		opts.NotesTimeout = d
	}
	return opts, nil
}

func init() {
	rootCmd.AddCommand(checkAllCmd)
}
