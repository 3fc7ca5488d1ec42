// Package compare runs the dump-diff pipeline: load both inputs, decode
// them, diff the listings and realign the result.
package compare

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/banjo360/dump-diff/internal/disasm"
	"github.com/banjo360/dump-diff/internal/linediff"
	"github.com/banjo360/dump-diff/internal/resync"
	"github.com/banjo360/dump-diff/internal/source"
)

// Stage names a pipeline step for diagnostics.
type Stage string

const (
	StageLoad   Stage = "load"
	StageDecode Stage = "decode"
	StageAlign  Stage = "align"
)

// StageError records which step failed and, where relevant, on which side.
type StageError struct {
	Stage Stage
	Side  string
	Err   error
}

func (e *StageError) Error() string {
	if e.Side == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Side, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options configures one comparison.
type Options struct {
	Current source.Spec
	Target  source.Spec
	// Addr is the base address; when nil and Symbol is set, the target
	// symbol's address is used.
	Addr   *uint32
	Length *uint64
	// Symbol switches both inputs to ELF symbol extraction.
	Symbol  string
	Decoder disasm.Decoder
}

// Result is a finished comparison.
type Result struct {
	Arch       string
	Mode       string
	Endianness string
	Addr       uint32
	Current    source.Spec
	Target     source.Spec
	Rows       []resync.Row
}

// Summary counts row categories.
type Summary struct {
	Rows        int `json:"rows"`
	Mismatches  int `json:"mismatches"`
	CurrentOnly int `json:"current_only"`
	TargetOnly  int `json:"target_only"`
	Changed     int `json:"changed"`
}

// Summary tallies the rows of r.
func (r *Result) Summary() Summary {
	s := Summary{Rows: len(r.Rows)}
	for _, row := range r.Rows {
		if !row.Mismatch() {
			continue
		}
		s.Mismatches++
		switch {
		case row.Target == nil:
			s.CurrentOnly++
		case row.Current == nil:
			s.TargetOnly++
		default:
			s.Changed++
		}
	}
	return s
}

// Identical reports whether no row mismatches.
func (r *Result) Identical() bool { return r.Summary().Mismatches == 0 }

// Run executes the pipeline. Both sides are decoded before anything is
// compared; any failure aborts with a StageError.
func Run(opts Options) (*Result, error) {
	res := &Result{
		Arch:       opts.Decoder.Arch(),
		Mode:       opts.Decoder.Mode(),
		Endianness: endiannessName(opts.Decoder),
		Current:    opts.Current,
		Target:     opts.Target,
	}
	if opts.Symbol != "" {
		res.Current.Symbol = opts.Symbol
		res.Target.Symbol = opts.Symbol
	}

	currentBuf, currentAddr, err := load("current", opts.Current, opts)
	if err != nil {
		return nil, err
	}
	targetBuf, targetAddr, err := load("target", opts.Target, opts)
	if err != nil {
		return nil, err
	}

	switch {
	case opts.Addr != nil:
		res.Addr = *opts.Addr
	case opts.Symbol != "":
		res.Addr = uint32(targetAddr)
		if currentAddr != targetAddr {
			slog.Debug("Symbol addresses differ, decoding both at the target address",
				"current", fmt.Sprintf("%#x", currentAddr), "target", fmt.Sprintf("%#x", targetAddr))
		}
	}

	current, err := opts.Decoder.Decode(currentBuf, res.Addr)
	if err != nil {
		return nil, &StageError{Stage: StageDecode, Side: "current", Err: err}
	}
	target, err := opts.Decoder.Decode(targetBuf, res.Addr)
	if err != nil {
		return nil, &StageError{Stage: StageDecode, Side: "target", Err: err}
	}

	ops := linediff.Diff(current.Texts(), target.Texts())
	rows, err := resync.Align(ops)
	if err != nil {
		return nil, &StageError{Stage: StageAlign, Err: err}
	}
	if err := resync.Check(rows, current.Texts(), target.Texts()); err != nil {
		return nil, &StageError{Stage: StageAlign, Err: err}
	}
	res.Rows = rows

	slog.Debug("Comparison finished", "rows", len(rows), "current", len(current), "target", len(target))
	return res, nil
}

func load(side string, spec source.Spec, opts Options) ([]byte, uint64, error) {
	if opts.Symbol != "" {
		buf, addr, err := source.LoadSymbol(spec.Path, opts.Symbol)
		if err != nil {
			return nil, 0, &StageError{Stage: StageLoad, Side: side, Err: err}
		}
		if opts.Length != nil && uint64(len(buf)) > *opts.Length {
			buf = buf[:*opts.Length]
		}
		return buf, addr, nil
	}

	buf, err := source.Load(spec, opts.Length)
	if err != nil {
		return nil, 0, &StageError{Stage: StageLoad, Side: side, Err: fmt.Errorf("%q: %w", spec.Path, err)}
	}
	return buf, 0, nil
}

func endiannessName(d disasm.Decoder) string {
	if d.ByteOrder() == binary.BigEndian {
		return "big"
	}
	return "little"
}
