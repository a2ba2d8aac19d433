package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/caedis/deltaplan/internal/logging"
	"github.com/caedis/deltaplan/internal/plan"
	"github.com/caedis/deltaplan/internal/profile"
	"github.com/caedis/deltaplan/internal/release"
	"github.com/caedis/deltaplan/internal/semver"
	"github.com/spf13/cobra"
)

func TestUsageArgsWrapsValidationErrors(t *testing.T) {
	wrapped := usageArgs(cobra.ExactArgs(1))
	cmd := &cobra.Command{Use: "test"}

	if err := wrapped(cmd, []string{"ok"}); err != nil {
		t.Fatalf("usageArgs returned unexpected error for valid args: %v", err)
	}

	err := wrapped(cmd, nil)
	if err == nil {
		t.Fatalf("usageArgs should return an error for invalid args")
	}
	if !isUsageError(err) {
		t.Fatalf("usageArgs error should be marked as usage error: %v", err)
	}
}

func TestIsUsageError(t *testing.T) {
	if !isUsageError(wrapUsageError(errors.New("bad args"))) {
		t.Fatalf("wrapped usage error not detected")
	}
	if !isUsageError(errors.New(`unknown command "foo" for "deltaplan"`)) {
		t.Fatalf("unknown command error should be treated as usage error")
	}
	if isUsageError(errors.New("runtime failure")) {
		t.Fatalf("runtime failure should not be treated as usage error")
	}
}

func newFlagTestCommand() (*cobra.Command, *string, *string) {
	var dir, feed string
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVarP(&dir, "package-dir", "d", ".", "")
	cmd.Flags().StringVar(&feed, "feed", "", "")
	return cmd, &dir, &feed
}

func TestApplyEnvFillsUnsetFlags(t *testing.T) {
	t.Setenv("DELTAPLAN_PACKAGE_DIR", "/srv/app")
	t.Setenv("DELTAPLAN_FEED", "https://example.com/releases.json")

	cmd, dir, feed := newFlagTestCommand()
	if err := cmd.Flags().Set("feed", "local.json"); err != nil {
		t.Fatal(err)
	}

	if err := applyEnv(cmd); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if *dir != "/srv/app" {
		t.Fatalf("package-dir = %q, want value from environment", *dir)
	}
	if *feed != "local.json" {
		t.Fatalf("feed = %q, explicit flag should win over environment", *feed)
	}
}

func TestApplyProfileDoesNotOverrideEnvOrFlags(t *testing.T) {
	t.Setenv("DELTAPLAN_PACKAGE_DIR", "/from/env")

	cmd, dir, feed := newFlagTestCommand()
	if err := applyEnv(cmd); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}

	profDir, profFeed, profFormat := "/from/profile", "profile.json", "html"
	p := &profile.Profile{PackageDir: &profDir, Feed: &profFeed, Format: &profFormat}
	if err := applyProfile(cmd, p); err != nil {
		t.Fatalf("applyProfile: %v", err)
	}

	if *dir != "/from/env" {
		t.Fatalf("package-dir = %q, environment should win over profile", *dir)
	}
	if *feed != "profile.json" {
		t.Fatalf("feed = %q, want profile value", *feed)
	}
}

func TestApplyProfileRejectsInvalidValue(t *testing.T) {
	var timeout time.Duration
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "")

	bad := "soon"
	if err := applyProfile(cmd, &profile.Profile{NotesTimeout: &bad}); err == nil {
		t.Fatalf("expected error for unparsable notes-timeout")
	}
}

func TestPrintPlanUpToDate(t *testing.T) {
	var buf bytes.Buffer
	restore := logging.SetOutput(&buf)
	defer restore()

	e := release.Entry{Version: semver.MustParse("2.0.0"), Filename: "app-2.0.0-full.nupkg", Filesize: 100}
	p, err := plan.Resolve(plan.Some(e), []release.Entry{e}, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	printPlan(p)
	if !strings.Contains(buf.String(), "Already up to date at 2.0.0") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestPrintPlanListsSteps(t *testing.T) {
	var buf bytes.Buffer
	restore := logging.SetOutput(&buf)
	defer restore()

	installed := release.Entry{Version: semver.MustParse("1.0.0"), Filename: "app-1.0.0-full.nupkg", Filesize: 1000}
	catalog := []release.Entry{
		installed,
		{Version: semver.MustParse("1.1.0"), Filename: "app-1.1.0-full.nupkg", Filesize: 1000},
		{Version: semver.MustParse("1.1.0"), Filename: "app-1.1.0-delta.nupkg", Filesize: 50, IsDelta: true},
	}
	p, err := plan.Resolve(plan.Some(installed), catalog, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	printPlan(p)
	out := buf.String()
	for _, want := range []string{"1.0.0", "delta packages", "app-1.1.0-delta.nupkg", "Total download: 50 B"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestOptionsFromProfile(t *testing.T) {
	dir, timeout := "/srv/app", "30s"
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("feed", "", "")

	opts, err := optionsFromProfile(cmd, "nightly", &profile.Profile{PackageDir: &dir, NotesTimeout: &timeout})
	if err != nil {
		t.Fatalf("optionsFromProfile: %v", err)
	}
	if opts.PackageDir != dir || opts.NotesTimeout != 30*time.Second {
		t.Fatalf("unexpected options: %+v", opts)
	}

	bad := "soon"
	_, err = optionsFromProfile(cmd, "nightly", &profile.Profile{NotesTimeout: &bad})
	if err == nil || !strings.Contains(err.Error(), `profile "nightly": invalid notes-timeout`) {
		t.Fatalf("expected notes-timeout error, got %v", err)
	}
}
