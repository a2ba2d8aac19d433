package updater

import (
	"context"

	"github.com/caedis/deltaplan/internal/logging"
)

// Status shows the installed release against the newest one in the feed.
func Status(ctx context.Context, opts Options) error {
	opts.WithNotes = false
	result, err := Check(ctx, opts)
	if err != nil {
		return err
	}
	p := result.Plan

	logging.Infof("Feed:      %s (%d releases)\n", result.Feed, result.CatalogSize)
	if installed, ok := p.Installed(); ok {
		logging.Infof("Installed: %s\n", installed.Version)
	} else {
		logging.Infoln("Installed: none (fresh install)")
	}
	logging.Infof("Target:    %s\n", p.Target().Version)

	if p.UpToDate() {
		logging.Infoln("\nAlready up to date.")
		return nil
	}

	logging.Infof("\nUpdate available:\n")
	logging.Infof("  %s\n", Summary(p))
	return nil
}
