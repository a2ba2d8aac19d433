package cmd

import (
	"context"
	"os"
	"time"

	"github.com/caedis/deltaplan/internal/logging"
	"github.com/caedis/deltaplan/internal/notes"
	"github.com/caedis/deltaplan/internal/plan"
	"github.com/caedis/deltaplan/internal/release"
	"github.com/caedis/deltaplan/internal/updater"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	notesFormat  string
	notesTimeout time.Duration
	notesWidth   int
	notesStyle   string
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Show release notes for every package in the update plan",
	Long: `Collects the release notes embedded in each package of the update plan.

Packages whose notes cannot be read in time are skipped with a warning.
Formats: markdown (default), html, terminal.`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := release.ParseNotesFormat(notesFormat)
		if err != nil {
			return wrapUsageError(err)
		}

		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Reading release notes"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		res, err := updater.Check(context.Background(), updater.Options{
			PackageDir:   packageDir,
			Feed:         feedSource,
			WithNotes:    true,
			Format:       format,
			NotesTimeout: notesTimeout,
			Render:       notes.RenderOptions{Style: notesStyle, WordWrap: notesWidth},
			OnNotesProgress: func(done, total int) {
				bar.ChangeMax(total)
				_ = bar.Set(done)
			},
		})
		_ = bar.Finish()
		if err != nil {
			return err
		}

		printNotes(res.Plan, res.Notes)
		return nil
	},
}

func printNotes(p *plan.Plan, res notes.Result) {
	if p.UpToDate() {
		logging.Infof("Already up to date at %s.\n", p.Target().Version)
		return
	}

	for _, step := range p.Steps() {
		text, ok := res.Notes[step]
		if !ok {
			continue
		}
		logging.Infof("=== %s (%s) ===\n%s\n\n", step.Version, step.Filename, text)
	}
	if len(res.Failures) > 0 {
		logging.Infof("Skipped %d of %d packages without readable notes.\n", len(res.Failures), len(p.Steps()))
	}
}

func init() {
	notesCmd.Flags().StringVar(&notesFormat, "format", "markdown", "Notes format: markdown, html or terminal")
	notesCmd.Flags().DurationVar(&notesTimeout, "timeout", notes.DefaultStepTimeout, "Per-package timeout for reading notes (negative disables)")
	notesCmd.Flags().IntVar(&notesWidth, "width", 80, "Word wrap width for terminal output")
	notesCmd.Flags().StringVar(&notesStyle, "style", "dark", "Terminal style: dark, light, notty, ...")
	rootCmd.AddCommand(notesCmd)
}
