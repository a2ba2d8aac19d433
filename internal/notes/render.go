package notes

import (
	"bytes"
	"fmt"

	"github.com/caedis/deltaplan/internal/release"
	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
)

// RenderOptions tunes Terminal rendering.
type RenderOptions struct {
	// Style is a glamour standard style name. Empty selects "dark".
	Style string
	// WordWrap is the terminal width. Zero selects 80.
	WordWrap int
}

// Render converts Markdown release notes to the requested format.
func Render(markdown string, format release.NotesFormat, opts RenderOptions) (string, error) {
	switch format {
	case release.Markdown:
		return markdown, nil
	case release.HTML:
		var buf bytes.Buffer
		if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
			return "", fmt.Errorf("rendering html: %w", err)
		}
		return buf.String(), nil
	case release.Terminal:
		style := opts.Style
		if style == "" {
			style = "dark"
		}
		width := opts.WordWrap
		if width <= 0 {
			width = 80
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", fmt.Errorf("creating terminal renderer: %w", err)
		}
		out, err := r.Render(markdown)
		if err != nil {
			return "", fmt.Errorf("rendering terminal: %w", err)
		}
		return out, nil
	default:
		return "", fmt.Errorf("unsupported notes format %s", format)
	}
}
