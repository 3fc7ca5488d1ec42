// Package elfx opens ELF binaries and extracts the bytes of function symbols
// by mapping their virtual addresses to file offsets.
package elfx

import (
	"debug/elf"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ianlancetaylor/demangle"
)

var ErrSymbolNotFound = errors.New("symbol not found")

type Image struct {
	Path  string
	File  *elf.File
	Loads []Seg
	Syms  []Sym
	f     *os.File
}

type Seg struct {
	Vaddr, Off, Filesz uint64
	Flags              elf.ProgFlag
}

// Sym is a defined function or object symbol.
type Sym struct {
	Name      string
	Demangled string
	Addr      uint64
	Size      uint64
}

func Open(path string) (*Image, error) {
	of, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	f, err := elf.NewFile(of)
	if err != nil {
		of.Close()
		return nil, fmt.Errorf("open elf: %w", err)
	}

	im := &Image{Path: path, File: f, f: of}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  p.Vaddr,
			Off:    p.Off,
			Filesz: p.Filesz,
			Flags:  p.Flags,
		})
	}

	im.loadSymbols()
	return im, nil
}

// Close closes the underlying file.
func (im *Image) Close() error {
	if im.f == nil {
		return nil
	}
	err := im.f.Close()
	im.f = nil
	im.File = nil
	return err
}

// VA2Off translates a virtual address into a file offset
// using PT_LOAD segments. It returns false if VA is unmapped.
func (im *Image) VA2Off(va uint64) (uint64, bool) {
	for _, l := range im.Loads {
		if va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			return l.Off + (va - l.Vaddr), true
		}
	}
	return 0, false
}

// ReadBytesVA reads exactly size bytes from a virtual address.
func (im *Image) ReadBytesVA(va uint64, size uint64) ([]byte, error) {
	off, ok := im.VA2Off(va)
	if !ok {
		return nil, fmt.Errorf("address %#x is not mapped by any PT_LOAD segment", va)
	}
	buf := make([]byte, size)
	if _, err := im.f.ReadAt(buf, int64(off)); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read %d bytes at %#x: range extends past end of file", size, va)
		}
		return nil, fmt.Errorf("read %d bytes at %#x: %w", size, va, err)
	}
	return buf, nil
}

// loadSymbols collects defined symbols from .symtab, falling back to
// .dynsym for stripped binaries.
func (im *Image) loadSymbols() {
	syms, err := im.File.Symbols()
	if err != nil || len(syms) == 0 {
		syms, _ = im.File.DynamicSymbols()
	}

	for _, sym := range syms {
		// Skip undefined symbols
		if sym.Value == 0 || sym.Section == elf.SHN_UNDEF {
			continue
		}
		im.Syms = append(im.Syms, Sym{
			Name:      sym.Name,
			Demangled: demangle.Filter(sym.Name, demangle.NoClones),
			Addr:      sym.Value,
			Size:      sym.Size,
		})
	}
}

// FindSymbol looks a symbol up by its raw name, its demangled signature, or
// its demangled name without parameters. Raw names win over demangled ones.
func (im *Image) FindSymbol(name string) (Sym, error) {
	for _, sym := range im.Syms {
		if sym.Name == name {
			return sym, nil
		}
	}
	for _, sym := range im.Syms {
		if sym.Demangled == name || stripFunctionParams(sym.Demangled) == name {
			return sym, nil
		}
	}
	return Sym{}, fmt.Errorf("%w: %q in %s", ErrSymbolNotFound, name, im.Path)
}

// SymbolBytes returns the code of a sized symbol.
func (im *Image) SymbolBytes(sym Sym) ([]byte, error) {
	if sym.Size == 0 {
		return nil, fmt.Errorf("symbol %q has no size", sym.Name)
	}
	return im.ReadBytesVA(sym.Addr, sym.Size)
}

// stripFunctionParams removes parameters from a C++ function signature
func stripFunctionParams(sig string) string {
	parenIdx := strings.Index(sig, "(")
	if parenIdx == -1 {
		return sig
	}
	return sig[:parenIdx]
}
