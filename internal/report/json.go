package report

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/banjo360/dump-diff/internal/compare"
	"github.com/banjo360/dump-diff/internal/source"
)

// Report is the JSON document written by the json format.
type Report struct {
	Arch       string          `json:"arch"`
	Mode       string          `json:"mode"`
	Endianness string          `json:"endianness"`
	Address    string          `json:"address"`
	Current    source.Spec     `json:"current"`
	Target     source.Spec     `json:"target"`
	Summary    compare.Summary `json:"summary"`
	Rows       []Row           `json:"rows"`
}

// Row is one aligned pair. A blank cell is null.
type Row struct {
	Current  *string `json:"current"`
	Target   *string `json:"target"`
	Mismatch bool    `json:"mismatch"`
}

// JSONRenderer writes the comparison as an indented JSON document.
type JSONRenderer struct{}

// NewJSONRenderer creates a new instance of JSONRenderer.
func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Format() string { return "json" }

// Render encodes res as a Report.
func (r *JSONRenderer) Render(w io.Writer, res *compare.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewReport(res)); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// NewReport converts a result into its JSON form.
func NewReport(res *compare.Result) Report {
	rows := make([]Row, len(res.Rows))
	for i, row := range res.Rows {
		rows[i] = Row{Current: row.Current, Target: row.Target, Mismatch: row.Mismatch()}
	}
	return Report{
		Arch:       res.Arch,
		Mode:       res.Mode,
		Endianness: res.Endianness,
		Address:    fmt.Sprintf("%#x", res.Addr),
		Current:    res.Current,
		Target:     res.Target,
		Summary:    res.Summary(),
		Rows:       rows,
	}
}
