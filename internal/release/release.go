// Package release defines the release records published by an update feed and
// the contract for retrieving their release notes.
package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/caedis/deltaplan/internal/semver"
)

// Entry is a single artifact in a release catalog: either a full installable
// package or a delta from some earlier version. Entry is a comparable value.
type Entry struct {
	Version     semver.Version `json:"version"`
	PackageName string         `json:"package,omitempty"`
	Filename    string         `json:"filename"`
	Filesize    int64          `json:"size"`
	IsDelta     bool           `json:"delta"`
	SHA1        string         `json:"sha1,omitempty"`
}

func (e Entry) String() string {
	kind := "full"
	if e.IsDelta {
		kind = "delta"
	}
	return fmt.Sprintf("%s %s (%s)", e.Filename, e.Version, kind)
}

// NotesFormat selects how release notes are rendered.
type NotesFormat int

const (
	Markdown NotesFormat = iota
	HTML
	Terminal
)

func (f NotesFormat) String() string {
	switch f {
	case Markdown:
		return "markdown"
	case HTML:
		return "html"
	case Terminal:
		return "terminal"
	default:
		return fmt.Sprintf("NotesFormat(%d)", int(f))
	}
}

// ParseNotesFormat parses a format name. An empty name selects Markdown.
func ParseNotesFormat(s string) (NotesFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return Markdown, nil
	case "html":
		return HTML, nil
	case "terminal", "term":
		return Terminal, nil
	default:
		return Markdown, fmt.Errorf("invalid notes format %q (must be markdown, html, or terminal)", s)
	}
}

// NotesSource retrieves the release notes of an entry from package storage.
type NotesSource interface {
	ReleaseNotes(ctx context.Context, e Entry, packageDir string, format NotesFormat) (string, error)
}

// NotesSourceFunc adapts a function to NotesSource.
type NotesSourceFunc func(ctx context.Context, e Entry, packageDir string, format NotesFormat) (string, error)

func (f NotesSourceFunc) ReleaseNotes(ctx context.Context, e Entry, packageDir string, format NotesFormat) (string, error) {
	return f(ctx, e, packageDir, format)
}
