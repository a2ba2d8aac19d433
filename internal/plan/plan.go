// Package plan resolves which release packages an installation has to apply
// to reach the newest release in a catalog.
package plan

import (
	"encoding/json"
	"slices"

	"github.com/caedis/deltaplan/internal/release"
)

// Installed is the currently installed release, or nothing on a fresh install.
type Installed struct {
	entry release.Entry
	ok    bool
}

// None marks a fresh install with no release on disk.
func None() Installed { return Installed{} }

// Some marks e as the installed release.
func Some(e release.Entry) Installed { return Installed{entry: e, ok: true} }

// Get returns the installed entry and whether one is present.
func (i Installed) Get() (release.Entry, bool) { return i.entry, i.ok }

// Strategy names the kind of packages a plan applies.
type Strategy string

const (
	StrategyNone  Strategy = "none"
	StrategyFull  Strategy = "full"
	StrategyDelta Strategy = "delta"
)

// Plan is the resolved set of packages to apply, in order. It is immutable
// once built by Resolve.
type Plan struct {
	installed  Installed
	target     release.Entry
	steps      []release.Entry
	packageDir string
}

func newPlan(installed Installed, steps []release.Entry, packageDir string) *Plan {
	if steps == nil {
		steps = []release.Entry{}
	}
	p := &Plan{installed: installed, steps: steps, packageDir: packageDir}
	if len(steps) == 0 {
		p.target, _ = installed.Get()
		return p
	}
	p.target = steps[0]
	for _, s := range steps[1:] {
		if s.Version.GreaterThan(p.target.Version) {
			p.target = s
		}
	}
	return p
}

// Installed returns the release the plan starts from.
func (p *Plan) Installed() (release.Entry, bool) { return p.installed.Get() }

// Target returns the release the plan converges to. It is the installed
// release when nothing has to be applied.
func (p *Plan) Target() release.Entry { return p.target }

// Steps returns the packages to apply in ascending version order. The slice is
// a copy and never nil.
func (p *Plan) Steps() []release.Entry { return slices.Clone(p.steps) }

// PackageDir is the directory relative file operations resolve against.
func (p *Plan) PackageDir() string { return p.packageDir }

// UpToDate reports whether there is nothing to apply.
func (p *Plan) UpToDate() bool { return len(p.steps) == 0 }

func (p *Plan) Strategy() Strategy {
	switch {
	case len(p.steps) == 0:
		return StrategyNone
	case p.steps[0].IsDelta:
		return StrategyDelta
	default:
		return StrategyFull
	}
}

// DownloadSize is the total size in bytes of every step.
func (p *Plan) DownloadSize() int64 {
	var total int64
	for _, s := range p.steps {
		total += s.Filesize
	}
	return total
}

type planJSON struct {
	Installed    *release.Entry  `json:"installed"`
	Target       release.Entry   `json:"target"`
	Steps        []release.Entry `json:"steps"`
	Strategy     Strategy        `json:"strategy"`
	DownloadSize int64           `json:"download_size"`
}

// MarshalJSON encodes the plan. The package directory is local to the host and
// is left out.
func (p *Plan) MarshalJSON() ([]byte, error) {
	out := planJSON{
		Target:       p.target,
		Steps:        p.steps,
		Strategy:     p.Strategy(),
		DownloadSize: p.DownloadSize(),
	}
	if e, ok := p.installed.Get(); ok {
		out.Installed = &e
	}
	return json.Marshal(out)
}
