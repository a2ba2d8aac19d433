package cmd

import (
	"context"

	"github.com/caedis/deltaplan/internal/updater"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installed vs latest release and the update plan summary",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updater.Status(context.Background(), updater.Options{
			PackageDir: packageDir,
			Feed:       feedSource,
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
