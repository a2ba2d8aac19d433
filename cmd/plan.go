package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/caedis/deltaplan/internal/logging"
	"github.com/caedis/deltaplan/internal/plan"
	"github.com/caedis/deltaplan/internal/updater"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var planJSON bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "List the packages needed to reach the latest release",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := updater.Check(context.Background(), updater.Options{
			PackageDir: packageDir,
			Feed:       feedSource,
		})
		if err != nil {
			return err
		}

		if planJSON {
			data, err := json.MarshalIndent(res.Plan, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding plan: %w", err)
			}
			logging.Infoln(string(data))
			return nil
		}

		printPlan(res.Plan)
		return nil
	},
}

func printPlan(p *plan.Plan) {
	if p.UpToDate() {
		logging.Infof("Already up to date at %s.\n", p.Target().Version)
		return
	}

	from := "nothing installed"
	if installed, ok := p.Installed(); ok {
		from = installed.Version.String()
	}
	logging.Infof("Update %s → %s using %s packages:\n", from, p.Target().Version, p.Strategy())
	for i, s := range p.Steps() {
		logging.Infof("  %2d. %-12s %-40s %10s\n", i+1, s.Version, s.Filename, humanize.Bytes(uint64(s.Filesize)))
	}
	logging.Infof("Total download: %s\n", humanize.Bytes(uint64(p.DownloadSize())))
}

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the plan as JSON")
	rootCmd.AddCommand(planCmd)
}
