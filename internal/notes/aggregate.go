// Package notes collects release notes for the steps of an update plan.
package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/caedis/deltaplan/internal/logging"
	"github.com/caedis/deltaplan/internal/plan"
	"github.com/caedis/deltaplan/internal/release"
)

// DefaultStepTimeout bounds a single notes lookup.
const DefaultStepTimeout = 10 * time.Second

// Failure records a step whose notes could not be retrieved.
type Failure struct {
	Entry release.Entry
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Entry.Filename, f.Err)
}

// Result holds the notes that were retrieved, keyed by plan step, and the
// steps that were skipped.
type Result struct {
	Notes    map[release.Entry]string
	Failures []Failure
}

// Aggregator fetches release notes for every step of a plan. A failing step is
// logged and skipped; it never fails the whole aggregation.
type Aggregator struct {
	Source release.NotesSource
	// StepTimeout bounds each lookup. Zero disables the per-step deadline.
	StepTimeout time.Duration
	// OnProgress, if set, is called after each step with the number of
	// steps processed so far.
	OnProgress func(done, total int)
}

// NewAggregator returns an Aggregator reading from src with the default
// per-step timeout.
func NewAggregator(src release.NotesSource) *Aggregator {
	return &Aggregator{Source: src, StepTimeout: DefaultStepTimeout}
}

// Aggregate collects notes for p's steps in plan order. The returned error is
// non-nil only when ctx itself is cancelled; the result then holds whatever
// was collected before cancellation.
func (a *Aggregator) Aggregate(ctx context.Context, p *plan.Plan, format release.NotesFormat) (Result, error) {
	steps := p.Steps()
	res := Result{Notes: make(map[release.Entry]string, len(steps))}

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		text, err := a.fetch(ctx, step, p.PackageDir(), format)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			logging.Warn("couldn't get release notes", "file", step.Filename, "err", err)
			res.Failures = append(res.Failures, Failure{Entry: step, Err: err})
		} else {
			res.Notes[step] = text
		}

		if a.OnProgress != nil {
			a.OnProgress(i+1, len(steps))
		}
	}
	return res, nil
}

type fetchResult struct {
	text string
	err  error
}

// fetch runs one lookup under the step deadline. A source that ignores its
// context is abandoned once the deadline passes.
func (a *Aggregator) fetch(ctx context.Context, step release.Entry, dir string, format release.NotesFormat) (string, error) {
	src := a.Source
	if src == nil {
		src = &ArchiveSource{}
	}

	stepCtx := ctx
	if a.StepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, a.StepTimeout)
		defer cancel()
	}

	done := make(chan fetchResult, 1)
	go func() {
		text, err := src.ReleaseNotes(stepCtx, step, dir, format)
		done <- fetchResult{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-stepCtx.Done():
		return "", fmt.Errorf("fetching release notes: %w", stepCtx.Err())
	}
}
