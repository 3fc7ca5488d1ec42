package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/banjo360/dump-diff/internal/compare"
	"github.com/banjo360/dump-diff/internal/dumpdiff/styles"
)

// MarkdownRenderer writes a summary followed by the aligned listing in a
// fenced block, rendered through glamour when colour is on.
type MarkdownRenderer struct {
	opts Options
}

// NewMarkdownRenderer creates a new instance of MarkdownRenderer.
func NewMarkdownRenderer(opts Options) *MarkdownRenderer {
	return &MarkdownRenderer{opts: opts}
}

func (r *MarkdownRenderer) Format() string { return "markdown" }

func (r *MarkdownRenderer) Render(w io.Writer, res *compare.Result) error {
	markdown := Markdown(res)
	if !r.opts.Color {
		_, err := io.WriteString(w, markdown)
		return err
	}

	width := r.opts.Width
	if width == 0 {
		width = 80
	}
	renderer, err := styles.GetMarkdownRenderer(width - 2)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

// Markdown builds the plain markdown document for res.
func Markdown(res *compare.Result) string {
	sum := res.Summary()

	var sb strings.Builder
	sb.WriteString("# dump-diff\n\n")
	fmt.Fprintf(&sb, "- **current**: `%s`\n", res.Current)
	fmt.Fprintf(&sb, "- **target**: `%s`\n", res.Target)
	fmt.Fprintf(&sb, "- **arch**: %s/%s (%s endian) at `%#x`\n\n", res.Arch, res.Mode, res.Endianness, res.Addr)

	sb.WriteString("| rows | mismatches | current only | target only | changed |\n")
	sb.WriteString("|-----:|-----------:|-------------:|------------:|--------:|\n")
	fmt.Fprintf(&sb, "| %d | %d | %d | %d | %d |\n\n", sum.Rows, sum.Mismatches, sum.CurrentOnly, sum.TargetOnly, sum.Changed)

	if sum.Mismatches == 0 {
		sb.WriteString("_The listings match._\n\n")
	}

	sb.WriteString("## Listing\n\n```\n")
	for _, line := range NewTextRenderer(Options{}).Lines(res) {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString("```\n")
	return sb.String()
}
