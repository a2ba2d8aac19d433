package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caedis/deltaplan/internal/logging"
	"github.com/caedis/deltaplan/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "DELTAPLAN"

var (
	packageDir  string
	feedSource  string
	profileName string
	verbose     bool
	logFile     string
)

var rootCmd = &cobra.Command{
	Use:           "deltaplan",
	Short:         "Plan application updates from a release feed",
	Long:          "Work out the cheapest set of full or delta packages that brings an installed application up to the latest release, and collect their release notes.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Precedence: flag > DELTAPLAN_* environment > profile > default.
		if err := applyEnv(cmd); err != nil {
			return err
		}
		if profileName != "" {
			p, err := profile.Load(profileName)
			if err != nil {
				return err
			}
			if err := applyProfile(cmd, p); err != nil {
				return err
			}
		}

		logging.SetVerbose(verbose)
		if err := logging.SetOutputFile(logFile); err != nil {
			return fmt.Errorf("opening log file %q: %w", logFile, err)
		}
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	closeErr := logging.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "Error closing log file: %v\n", closeErr)
		if err == nil {
			os.Exit(1)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsageError(err) {
			if cmd, _, findErr := rootCmd.Find(os.Args[1:]); findErr == nil && cmd != nil {
				_ = cmd.Usage()
			} else {
				_ = rootCmd.Usage()
			}
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return wrapUsageError(err)
	})

	rootCmd.PersistentFlags().StringVarP(&packageDir, "package-dir", "d", ".", "Directory holding local packages and update state")
	rootCmd.PersistentFlags().StringVar(&feedSource, "feed", "", "Release feed URL or file (default: the feed recorded by init)")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Load a saved option profile by name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write command output to a log file")
}

// applyEnv fills flags the user did not pass from DELTAPLAN_* variables, e.g.
// DELTAPLAN_PACKAGE_DIR for --package-dir. Flags set this way count as
// changed, so profile values never override them.
func applyEnv(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "help" || !v.IsSet(f.Name) {
			return
		}
		if err := cmd.Flags().Set(f.Name, v.GetString(f.Name)); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s_%s: %w", envPrefix, envKey(f.Name), err))
		}
	})
	if len(errs) > 0 {
		return wrapUsageError(errors.Join(errs...))
	}
	return nil
}

func envKey(flag string) string {
	return strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// applyProfile fills flags that are still unset from p. Flags the current
// command does not define are ignored.
func applyProfile(cmd *cobra.Command, p *profile.Profile) error {
	values := map[string]string{}
	if p.PackageDir != nil {
		values["package-dir"] = *p.PackageDir
	}
	if p.Feed != nil {
		values["feed"] = *p.Feed
	}
	if p.Format != nil {
		values["format"] = *p.Format
	}
	if p.NotesTimeout != nil {
		values["timeout"] = *p.NotesTimeout
	}
	if p.Verbose != nil {
		values["verbose"] = fmt.Sprint(*p.Verbose)
	}
	if p.LogFile != nil {
		values["log-file"] = *p.LogFile
	}

	for name, value := range values {
		f := cmd.Flags().Lookup(name)
		if f == nil || f.Changed {
			continue
		}
		if err := cmd.Flags().Set(name, value); err != nil {
			return fmt.Errorf("profile %q: invalid %s: %w", profileName, name, err)
		}
	}
	return nil
}

type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

func wrapUsageError(err error) error {
	if err == nil {
		return nil
	}
	return &usageError{err: err}
}

func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if validate == nil {
			return nil
		}
		if err := validate(cmd, args); err != nil {
			return wrapUsageError(err)
		}
		return nil
	}
}

func isUsageError(err error) bool {
	var ue *usageError
	if errors.As(err, &ue) {
		return true
	}

	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command ")
}
