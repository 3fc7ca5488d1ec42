// Package report renders comparison results as aligned text, JSON or
// markdown.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/banjo360/dump-diff/internal/compare"
)

// Renderer writes a comparison result in one output format.
type Renderer interface {
	// Render writes res to w.
	Render(w io.Writer, res *compare.Result) error

	// Format returns the name of the output format (e.g. "text", "json").
	Format() string
}

// Options controls presentation details shared by renderers.
type Options struct {
	// Color enables ANSI styling. Callers set it only for terminals.
	Color bool
	// Width is the terminal width used for markdown wrapping.
	Width int
}

var renderers = map[string]func(Options) Renderer{
	"text":     func(o Options) Renderer { return NewTextRenderer(o) },
	"json":     func(Options) Renderer { return NewJSONRenderer() },
	"markdown": func(o Options) Renderer { return NewMarkdownRenderer(o) },
}

// New returns the renderer registered for format.
func New(format string, opts Options) (Renderer, error) {
	mk, ok := renderers[format]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (supported: %v)", format, Formats())
	}
	return mk(opts), nil
}

// Formats lists the registered format names.
func Formats() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
