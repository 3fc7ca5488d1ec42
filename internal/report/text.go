package report

import (
	"io"
	"strings"

	"github.com/banjo360/dump-diff/internal/compare"
	"github.com/banjo360/dump-diff/internal/dumpdiff/styles"
	"github.com/banjo360/dump-diff/internal/ui/colorize"
)

const (
	currentLabel = "current:"
	targetLabel  = "target:"
	separator    = " | "
	// MismatchMarker trails every row whose cells differ.
	MismatchMarker = "<==========="
)

// TextRenderer prints the two listings side by side.
type TextRenderer struct {
	opts Options
}

// NewTextRenderer creates a new instance of TextRenderer.
func NewTextRenderer(opts Options) *TextRenderer {
	return &TextRenderer{opts: opts}
}

func (r *TextRenderer) Format() string { return "text" }

// Render writes the header and one line per row. The current column is as
// wide as its longest cell; the marker column starts one past that width.
func (r *TextRenderer) Render(w io.Writer, res *compare.Result) error {
	var report strings.Builder
	for _, line := range r.Lines(res) {
		report.WriteString(line)
		report.WriteByte('\n')
	}
	_, err := io.WriteString(w, report.String())
	return err
}

// Lines returns the rendered report, header first, without newlines.
func (r *TextRenderer) Lines(res *compare.Result) []string {
	width := CurrentWidth(res)
	lines := make([]string, 0, len(res.Rows)+1)

	var header strings.Builder
	header.WriteString(r.style(styles.Header, currentLabel))
	header.WriteString(pad(width - len(currentLabel)))
	header.WriteString(r.style(styles.Separator, separator))
	header.WriteString(r.style(styles.Header, targetLabel))
	lines = append(lines, header.String())

	for _, row := range res.Rows {
		cur, tgt := row.CurrentText(), row.TargetText()

		var line strings.Builder
		line.WriteString(r.cell(cur))
		line.WriteString(pad(width - len(cur)))
		line.WriteString(r.style(styles.Separator, separator))
		line.WriteString(r.cell(tgt))
		if row.Mismatch() {
			line.WriteString(pad(max(width+1-len(tgt), 1)))
			line.WriteString(r.style(styles.Marker, MismatchMarker))
		}
		lines = append(lines, line.String())
	}
	return lines
}

// CurrentWidth is the length of the longest current-side cell.
func CurrentWidth(res *compare.Result) int {
	width := 0
	for _, row := range res.Rows {
		width = max(width, len(row.CurrentText()))
	}
	return width
}

type renderStyle interface {
	Render(strs ...string) string
}

func (r *TextRenderer) style(s renderStyle, text string) string {
	if !r.opts.Color {
		return text
	}
	return s.Render(text)
}

func (r *TextRenderer) cell(text string) string {
	if !r.opts.Color {
		return text
	}
	return colorize.Instruction(text)
}

func pad(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
