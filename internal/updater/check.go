package updater

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caedis/deltaplan/internal/config"
	"github.com/caedis/deltaplan/internal/feed"
	"github.com/caedis/deltaplan/internal/logging"
	"github.com/caedis/deltaplan/internal/notes"
	"github.com/caedis/deltaplan/internal/plan"
	"github.com/caedis/deltaplan/internal/release"
)

var now = time.Now

func normalizeOptions(opts Options) Options {
	opts.PackageDir = strings.TrimSpace(opts.PackageDir)
	opts.Feed = strings.TrimSpace(opts.Feed)
	switch {
	case opts.NotesTimeout == 0:
		opts.NotesTimeout = notes.DefaultStepTimeout
	case opts.NotesTimeout < 0:
		opts.NotesTimeout = 0
	}
	return opts
}

func logCheckStart(opts Options) {
	logging.Debugf(
		"Verbose: check start package-dir=%q feed=%q notes=%t format=%s notes-timeout=%s\n",
		opts.PackageDir,
		opts.Feed,
		opts.WithNotes,
		opts.Format,
		opts.NotesTimeout,
	)
}

// Check resolves the update plan for the installation in opts.PackageDir and,
// when requested, collects release notes for it.
func Check(ctx context.Context, opts Options) (*CheckResult, error) {
	opts = normalizeOptions(opts)
	logCheckStart(opts)

	if opts.PackageDir == "" {
		return nil, fmt.Errorf("%w: package directory is empty", plan.ErrInvalidInput)
	}

	state, err := config.LoadOrEmpty(opts.PackageDir)
	if err != nil {
		return nil, err
	}
	logState(state)

	source := opts.Feed
	if source == "" {
		source = state.Feed
	}
	if source == "" {
		return nil, errors.New("no feed configured - pass --feed or run 'init'")
	}

	catalog, err := loadCatalog(ctx, source)
	if err != nil {
		return nil, err
	}

	p, err := plan.Resolve(state.Installed(), catalog, opts.PackageDir)
	if err != nil {
		return nil, fmt.Errorf("resolving update plan: %w", err)
	}
	logging.Debugf("Verbose: resolved plan strategy=%s steps=%d target=%s\n", p.Strategy(), len(p.Steps()), p.Target().Version)

	result := &CheckResult{Feed: source, CatalogSize: len(catalog), Plan: p}

	if opts.WithNotes {
		agg := &notes.Aggregator{
			Source:      opts.NotesSource,
			StepTimeout: opts.NotesTimeout,
			OnProgress:  opts.OnNotesProgress,
		}
		if agg.Source == nil {
			agg.Source = &notes.ArchiveSource{Render: opts.Render}
		}
		result.Notes, err = agg.Aggregate(ctx, p, opts.Format)
		if err != nil {
			return nil, fmt.Errorf("collecting release notes: %w", err)
		}
		logging.Debugf("Verbose: collected notes ok=%d failed=%d\n", len(result.Notes.Notes), len(result.Notes.Failures))
	}

	state.Feed = source
	state.CheckedAt = now().UTC()
	if err := state.Save(opts.PackageDir); err != nil {
		return nil, err
	}

	return result, nil
}

func logState(state *config.LocalState) {
	installed, ok := state.Installed().Get()
	if !ok {
		logging.Debugf("Verbose: no installed release recorded, treating as fresh install\n")
		return
	}
	logging.Debugf("Verbose: loaded state installed=%s feed=%q checked-at=%s\n", installed.Version, state.Feed, state.CheckedAt.Format(time.RFC3339))
}

func loadCatalog(ctx context.Context, source string) ([]release.Entry, error) {
	logging.Infoln("Fetching release feed...")
	m, err := feed.Load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	catalog, err := m.Entries()
	if err != nil {
		return nil, err
	}
	return catalog, nil
}
