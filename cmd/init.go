package cmd

import (
	"context"
	"fmt"

	"github.com/caedis/deltaplan/internal/updater"
	"github.com/spf13/cobra"
)

var installedVersion string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Record the installed release for a package directory",
	Long: `Looks up the full release for --version in the feed and records it as the
installed release in <package-dir>/.deltaplan.json, together with the feed.

Without a recorded release every check is treated as a fresh install.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if installedVersion == "" {
			return wrapUsageError(fmt.Errorf("--version is required"))
		}
		return updater.Init(context.Background(), packageDir, feedSource, installedVersion)
	},
}

func init() {
	initCmd.Flags().StringVar(&installedVersion, "version", "", "Installed version (e.g. 1.4.2)")
	rootCmd.AddCommand(initCmd)
}
