package updater

import (
	"time"

	"github.com/caedis/deltaplan/internal/notes"
	"github.com/caedis/deltaplan/internal/plan"
	"github.com/caedis/deltaplan/internal/release"
)

type Options struct {
	PackageDir string
	// Feed overrides the feed remembered in local state.
	Feed string

	WithNotes bool
	Format    release.NotesFormat
	// NotesTimeout bounds each release notes lookup. Zero selects
	// notes.DefaultStepTimeout; a negative value disables the bound.
	NotesTimeout time.Duration
	// NotesSource defaults to reading package archives in PackageDir.
	NotesSource     release.NotesSource
	Render          notes.RenderOptions
	OnNotesProgress func(done, total int)
}

type CheckResult struct {
	Feed        string
	CatalogSize int
	Plan        *plan.Plan
	// Notes is only populated when Options.WithNotes is set.
	Notes notes.Result
}
