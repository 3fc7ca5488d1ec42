// Package source resolves the "path[:offset]" arguments of dump-diff and
// reads the byte window to disassemble.
package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/banjo360/dump-diff/internal/elfx"
)

var ErrBadNumber = errors.New("invalid number")

// Spec names a file and the byte offset to start reading at.
type Spec struct {
	Path   string `json:"path"`
	Offset uint64 `json:"offset"`
	Symbol string `json:"symbol,omitempty"`
}

func (s Spec) String() string {
	if s.Symbol != "" {
		return fmt.Sprintf("%s(%s)", s.Path, s.Symbol)
	}
	if s.Offset == 0 {
		return s.Path
	}
	return fmt.Sprintf("%s:%#x", s.Path, s.Offset)
}

// ParseSpec splits "path[:offset]" at the last colon.
func ParseSpec(arg string) (Spec, error) {
	idx := strings.LastIndex(arg, ":")
	if idx < 0 {
		return Spec{Path: arg}, nil
	}
	off, err := ParseUint(arg[idx+1:], 64)
	if err != nil {
		return Spec{}, fmt.Errorf("offset of %q: %w", arg, err)
	}
	if arg[:idx] == "" {
		return Spec{}, fmt.Errorf("missing file name in %q", arg)
	}
	return Spec{Path: arg[:idx], Offset: off}, nil
}

// ParseUint parses a "0x"-prefixed hexadecimal or a decimal number.
func ParseUint(s string, bits int) (uint64, error) {
	s = strings.TrimSpace(s)
	base := 10
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		s, base = rest, 16
	}
	v, err := strconv.ParseUint(s, base, bits)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrBadNumber, s)
	}
	return v, nil
}

// Load reads the file named by spec starting at its offset. A nil length
// reads to end of file.
func Load(spec Spec, length *uint64) ([]byte, error) {
	f, err := os.Open(spec.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(int64(spec.Offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to %#x: %w", spec.Offset, err)
	}

	var r io.Reader = f
	if length != nil {
		r = io.LimitReader(f, int64(*length))
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	slog.Debug("Loaded input", "file", spec.Path, "offset", spec.Offset, "bytes", len(buf))
	return buf, nil
}

// LoadSymbol reads the code of the named function from an ELF file and
// returns it with the symbol's address.
func LoadSymbol(path, name string) ([]byte, uint64, error) {
	im, err := elfx.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer im.Close()

	sym, err := im.FindSymbol(name)
	if err != nil {
		return nil, 0, err
	}
	buf, err := im.SymbolBytes(sym)
	if err != nil {
		return nil, 0, err
	}

	slog.Debug("Loaded symbol", "file", path, "symbol", sym.Name, "addr", fmt.Sprintf("%#x", sym.Addr), "bytes", len(buf))
	return buf, sym.Addr, nil
}
