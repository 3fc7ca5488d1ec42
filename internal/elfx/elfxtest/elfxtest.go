// Package elfxtest builds minimal AArch64 ELF executables for tests.
package elfxtest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

// Func is a function symbol placed in .text.
type Func struct {
	Name string
	Code []byte
}

const textOff = 0x100

// Build returns an ELF64 little-endian executable whose single PT_LOAD
// segment maps .text at vaddr. Functions are laid out back to back.
func Build(vaddr uint64, funcs ...Func) []byte {
	var text []byte
	strtab := []byte{0}
	syms := []elf.Sym64{{}}
	for _, fn := range funcs {
		syms = append(syms, elf.Sym64{
			Name:  uint32(len(strtab)),
			Info:  elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC),
			Shndx: 1,
			Value: vaddr + uint64(len(text)),
			Size:  uint64(len(fn.Code)),
		})
		strtab = append(strtab, fn.Name...)
		strtab = append(strtab, 0)
		text = append(text, fn.Code...)
	}

	shstrtab := []byte("\x00.text\x00.symtab\x00.strtab\x00.shstrtab\x00")
	var symtab bytes.Buffer
	for _, s := range syms {
		_ = binary.Write(&symtab, binary.LittleEndian, s)
	}

	align := func(n uint64) uint64 { return (n + 7) &^ 7 }
	strOff := uint64(textOff + len(text))
	shstrOff := strOff + uint64(len(strtab))
	symOff := align(shstrOff + uint64(len(shstrtab)))
	shOff := align(symOff + uint64(symtab.Len()))

	var out bytes.Buffer
	hdr := elf.Header64{
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(elf.EM_AARCH64),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     vaddr,
		Phoff:     64,
		Shoff:     shOff,
		Ehsize:    64,
		Phentsize: 56,
		Phnum:     1,
		Shentsize: 64,
		Shnum:     5,
		Shstrndx:  4,
	}
	copy(hdr.Ident[:], elf.ELFMAG)
	hdr.Ident[elf.EI_CLASS] = byte(elf.ELFCLASS64)
	hdr.Ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	hdr.Ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	_ = binary.Write(&out, binary.LittleEndian, hdr)

	_ = binary.Write(&out, binary.LittleEndian, elf.Prog64{
		Type:   uint32(elf.PT_LOAD),
		Flags:  uint32(elf.PF_R | elf.PF_X),
		Off:    textOff,
		Vaddr:  vaddr,
		Paddr:  vaddr,
		Filesz: uint64(len(text)),
		Memsz:  uint64(len(text)),
		Align:  4,
	})

	pad := func(to uint64) {
		for uint64(out.Len()) < to {
			out.WriteByte(0)
		}
	}
	pad(textOff)
	out.Write(text)
	out.Write(strtab)
	out.Write(shstrtab)
	pad(symOff)
	out.Write(symtab.Bytes())
	pad(shOff)

	sections := []elf.Section64{
		{},
		{Name: 1, Type: uint32(elf.SHT_PROGBITS), Flags: uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
			Addr: vaddr, Off: textOff, Size: uint64(len(text)), Addralign: 4},
		{Name: 7, Type: uint32(elf.SHT_SYMTAB), Off: symOff, Size: uint64(symtab.Len()),
			Link: 3, Info: 1, Addralign: 8, Entsize: 24},
		{Name: 15, Type: uint32(elf.SHT_STRTAB), Off: strOff, Size: uint64(len(strtab)), Addralign: 1},
		{Name: 23, Type: uint32(elf.SHT_STRTAB), Off: shstrOff, Size: uint64(len(shstrtab)), Addralign: 1},
	}
	for _, s := range sections {
		_ = binary.Write(&out, binary.LittleEndian, s)
	}
	return out.Bytes()
}
