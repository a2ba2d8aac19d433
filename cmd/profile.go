package cmd

import (
	"bytes"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caedis/deltaplan/internal/logging"
	"github.com/caedis/deltaplan/internal/profile"
	"github.com/caedis/deltaplan/internal/release"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage saved option profiles",
}

// Flags for profile create
var (
	profFormat       *string
	profNotesTimeout *time.Duration
)

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new profile",
	Long: `Saves the given options under <name>. Only flags passed explicitly are
stored, e.g.:

  deltaplan profile create nightly -d /opt/app --feed https://example.com/releases.json`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profileFromFlags(cmd)
		if err != nil {
			return err
		}
		if err := profile.Save(args[0], p); err != nil {
			return err
		}
		logging.Infof("Profile %q saved to %s\n", args[0], profile.Dir())
		return nil
	},
}

func profileFromFlags(cmd *cobra.Command) (*profile.Profile, error) {
	p := &profile.Profile{}

	if cmd.Flags().Changed("package-dir") {
		p.PackageDir = &packageDir
	}
	if cmd.Flags().Changed("feed") {
		p.Feed = &feedSource
	}
	if cmd.Flags().Changed("format") {
		if _, err := release.ParseNotesFormat(*profFormat); err != nil {
			return nil, wrapUsageError(err)
		}
		p.Format = profFormat
	}
	if cmd.Flags().Changed("notes-timeout") {
		s := profNotesTimeout.String()
		p.NotesTimeout = &s
	}
	if cmd.Flags().Changed("verbose") {
		p.Verbose = &verbose
	}
	if cmd.Flags().Changed("log-file") {
		p.LogFile = &logFile
	}
	return p, nil
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := profile.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			logging.Infoln("No profiles saved.")
			return nil
		}
		for _, n := range names {
			logging.Infoln(n)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a profile's contents",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := profile.Load(args[0])
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(p); err != nil {
			return fmt.Errorf("encoding profile: %w", err)
		}
		logging.Infof("%s", buf.String())
		return nil
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved profile",
	Args:  usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := profile.Delete(args[0]); err != nil {
			return err
		}
		logging.Infof("Profile %q deleted.\n", args[0])
		return nil
	},
}

func init() {
	profFormat = profileCreateCmd.Flags().String("format", "", "Notes format: markdown, html or terminal")
	profNotesTimeout = profileCreateCmd.Flags().Duration("notes-timeout", 0, "Per-package timeout for reading notes")

	profileCmd.AddCommand(profileCreateCmd, profileListCmd, profileShowCmd, profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}
