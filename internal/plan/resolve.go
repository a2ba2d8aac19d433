package plan

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/caedis/deltaplan/internal/release"
)

const (
	// DeltaSizeFactor is how many times smaller the delta chain must be than
	// the latest full package before the chain is preferred.
	DeltaSizeFactor = 10
	// MaxDeltaChain is the longest delta chain applied before falling back to
	// the full package.
	MaxDeltaChain = 10
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNoFullRelease = errors.New("no full release available")
)

// Resolve computes the update plan from installed to the newest full release
// in catalog. Deltas are chosen when they are much cheaper to download than
// the full package and the chain is short; otherwise the full package alone.
//
// Resolve does no I/O and may be called concurrently.
func Resolve(installed Installed, catalog []release.Entry, packageDir string) (*Plan, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("%w: release catalog is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(packageDir) == "" {
		return nil, fmt.Errorf("%w: package directory is empty", ErrInvalidInput)
	}

	latestFull, ok := latestFullRelease(catalog)
	if !ok {
		return nil, fmt.Errorf("%w: catalog has %d entries, all deltas", ErrNoFullRelease, len(catalog))
	}

	current, ok := installed.Get()
	if !ok {
		return newPlan(installed, []release.Entry{latestFull}, packageDir), nil
	}

	if !current.Version.LessThan(latestFull.Version) {
		return newPlan(installed, nil, packageDir), nil
	}

	var newerThanUs []release.Entry
	for _, e := range catalog {
		if e.Version.GreaterThan(current.Version) {
			newerThanUs = append(newerThanUs, e)
		}
	}
	slices.SortStableFunc(newerThanUs, func(a, b release.Entry) int {
		return a.Version.Compare(b.Version)
	})

	var (
		deltas    []release.Entry
		deltaSize int64
	)
	for _, e := range newerThanUs {
		if e.IsDelta {
			deltas = append(deltas, e)
			deltaSize = addSize(deltaSize, e.Filesize)
		}
	}

	if preferDeltas(deltaSize, len(deltas), latestFull.Filesize) {
		return newPlan(installed, deltas, packageDir), nil
	}
	return newPlan(installed, []release.Entry{latestFull}, packageDir), nil
}

// preferDeltas reports deltaSize*DeltaSizeFactor < fullSize without
// multiplying, so sizes near the int64 limit cannot wrap.
func preferDeltas(deltaSize int64, deltaCount int, fullSize int64) bool {
	return deltaSize > 0 &&
		fullSize > 0 &&
		deltaSize <= (fullSize-1)/DeltaSizeFactor &&
		deltaCount <= MaxDeltaChain
}

// addSize adds b to a, saturating at math.MaxInt64.
func addSize(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// latestFullRelease returns the highest-versioned full entry. When several
// full entries share that version the first in catalog order wins.
func latestFullRelease(catalog []release.Entry) (release.Entry, bool) {
	var (
		best  release.Entry
		found bool
	)
	for _, e := range catalog {
		if e.IsDelta {
			continue
		}
		if !found || e.Version.GreaterThan(best.Version) {
			best, found = e, true
		}
	}
	return best, found
}
