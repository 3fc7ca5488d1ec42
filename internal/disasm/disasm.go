// Package disasm decodes fixed-width instruction streams into the text lines
// compared by dump-diff.
package disasm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ZeroPlaceholder is emitted for an all-zero word the decoder rejects.
const ZeroPlaceholder = "0x00000000"

// WordSize is the width of every decoded word.
const WordSize = 4

var (
	ErrEmptyBuffer     = errors.New("empty instruction buffer")
	ErrUnalignedBuffer = errors.New("buffer length is not a multiple of 4")
	ErrUndecodable     = errors.New("undecodable instruction")
	ErrUnsupported     = errors.New("unsupported architecture")
)

// Line is one decoded instruction.
type Line struct {
	Addr uint32  // virtual address of the word
	Raw  [4]byte // raw encoding as read from the buffer
	Text string  // mnemonic and operands, lowercase GNU syntax
}

// Lines is a linear sequence of decoded instructions.
type Lines []Line

// Texts returns the instruction text of every line.
func (ls Lines) Texts() []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Text
	}
	return out
}

// DecodeError reports a non-zero word that no instruction format matches.
type DecodeError struct {
	Addr uint32
	Word [4]byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode word %x at %#x: %v", e.Word, e.Addr, e.Err)
}

func (e *DecodeError) Unwrap() error { return ErrUndecodable }

// Decoder turns a byte buffer into instruction lines.
type Decoder interface {
	Decode(buf []byte, base uint32) (Lines, error)
	Arch() string
	Mode() string
	ByteOrder() binary.ByteOrder
}

// wordFunc decodes one little-endian normalized 4-byte word at pc.
type wordFunc func(word []byte, pc uint64) (string, error)

type decoder struct {
	arch, mode string
	order      binary.ByteOrder
	word       wordFunc
	// native decoders read the word in the selected byte order themselves
	native bool
}

func (d *decoder) Arch() string                { return d.arch }
func (d *decoder) Mode() string                { return d.mode }
func (d *decoder) ByteOrder() binary.ByteOrder { return d.order }

// Decode walks buf in 4-byte steps starting at base.
func (d *decoder) Decode(buf []byte, base uint32) (Lines, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyBuffer
	}
	if len(buf)%WordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrUnalignedBuffer, len(buf))
	}

	lines := make(Lines, 0, len(buf)/WordSize)
	for off := 0; off < len(buf); off += WordSize {
		var raw [4]byte
		copy(raw[:], buf[off:off+WordSize])
		addr := base + uint32(off)

		word := raw
		if !d.native && d.order == binary.BigEndian {
			word = [4]byte{raw[3], raw[2], raw[1], raw[0]}
		}

		text, err := d.word(word[:], uint64(addr))
		if err != nil {
			if raw == [4]byte{} {
				lines = append(lines, Line{Addr: addr, Raw: raw, Text: ZeroPlaceholder})
				continue
			}
			return nil, &DecodeError{Addr: addr, Word: raw, Err: err}
		}
		lines = append(lines, Line{Addr: addr, Raw: raw, Text: strings.TrimSpace(text)})
	}

	slog.Debug("Decoded instruction buffer", "arch", d.arch, "mode", d.mode,
		"base", fmt.Sprintf("%#x", base), "lines", len(lines))
	return lines, nil
}

// New returns the decoder for arch/mode/endianness. Empty mode selects the
// architecture's default; empty endianness means little.
func New(arch, mode, endianness string) (Decoder, error) {
	order, err := ParseEndianness(endianness)
	if err != nil {
		return nil, err
	}

	spec, ok := archs[strings.ToLower(arch)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupported, arch, strings.Join(Architectures(), ", "))
	}

	mode = strings.ToLower(mode)
	if mode == "" {
		mode = spec.modes[0]
	}
	valid := false
	for _, m := range spec.modes {
		if m == mode {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("%w: mode %q for %s (supported: %s)", ErrUnsupported, mode, arch, strings.Join(spec.modes, ", "))
	}

	return &decoder{
		arch:   strings.ToLower(arch),
		mode:   mode,
		order:  order,
		word:   spec.word(order),
		native: spec.native,
	}, nil
}

// ParseEndianness maps "little"/"big" (and short forms) to a byte order.
func ParseEndianness(name string) (binary.ByteOrder, error) {
	switch strings.ToLower(name) {
	case "", "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("%w: endianness %q", ErrUnsupported, name)
}
