package disasm

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/arch/arm/armasm"
	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/loong64/loong64asm"
	"golang.org/x/arch/ppc64/ppc64asm"
	"golang.org/x/arch/riscv64/riscv64asm"
)

type archSpec struct {
	modes  []string // first entry is the default
	native bool
	word   func(order binary.ByteOrder) wordFunc
}

var archs = map[string]archSpec{
	"arm64": {
		modes: []string{"arm", "v8"},
		word:  func(binary.ByteOrder) wordFunc { return decodeARM64 },
	},
	"arm": {
		modes: []string{"arm"},
		word:  func(binary.ByteOrder) wordFunc { return decodeARM },
	},
	"ppc64": {
		modes:  []string{"64"},
		native: true,
		word: func(order binary.ByteOrder) wordFunc {
			return func(word []byte, pc uint64) (string, error) {
				return decodePPC64(word, pc, order)
			}
		},
	},
	"riscv64": {
		modes: []string{"rv64g"},
		word:  func(binary.ByteOrder) wordFunc { return decodeRISCV64 },
	},
	"loong64": {
		modes: []string{"64"},
		word:  func(binary.ByteOrder) wordFunc { return decodeLoong64 },
	},
}

// Architectures lists the supported architecture names.
func Architectures() []string {
	names := make([]string, 0, len(archs))
	for name := range archs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Modes lists the decode modes accepted for arch, default first.
func Modes(arch string) []string {
	return archs[strings.ToLower(arch)].modes
}

func decodeARM64(word []byte, pc uint64) (string, error) {
	inst, err := arm64asm.Decode(word)
	if err != nil {
		return "", err
	}
	text := arm64asm.GNUSyntax(inst)

	// Branch and literal targets print as ".+0x10"; show the absolute target instead.
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		rel, ok := arg.(arm64asm.PCRel)
		if !ok {
			continue
		}
		target := uint32(int64(pc) + int64(rel))
		if inst.Op == arm64asm.ADRP {
			target = uint32(int64(pc&^0xfff) + int64(rel))
		}
		text = strings.Replace(text, strings.ToLower(rel.String()), fmt.Sprintf("%#x", target), 1)
	}
	return text, nil
}

func decodeARM(word []byte, _ uint64) (string, error) {
	inst, err := armasm.Decode(word, armasm.ModeARM)
	if err != nil {
		return "", err
	}
	return strings.ToLower(armasm.GNUSyntax(inst)), nil
}

func decodePPC64(word []byte, pc uint64, order binary.ByteOrder) (string, error) {
	inst, err := ppc64asm.Decode(word, order)
	if err != nil {
		return "", err
	}
	if inst.Op == 0 {
		return "", fmt.Errorf("unknown instruction")
	}
	return ppc64asm.GNUSyntax(inst, pc), nil
}

func decodeRISCV64(word []byte, _ uint64) (string, error) {
	inst, err := riscv64asm.Decode(word)
	if err != nil {
		return "", err
	}
	if inst.Len != WordSize {
		return "", fmt.Errorf("compressed instruction in fixed-width stream")
	}
	return riscv64asm.GNUSyntax(inst), nil
}

func decodeLoong64(word []byte, _ uint64) (string, error) {
	inst, err := loong64asm.Decode(word)
	if err != nil {
		return "", err
	}
	return loong64asm.GNUSyntax(inst), nil
}
