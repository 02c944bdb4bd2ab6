// Package elftest writes minimal synthetic ELF objects for tests: one
// .text section, a symbol table, and an optional source-file symbol.
package elftest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
)

// TextAddr is the virtual address of the .text section in written files.
const TextAddr uint64 = 0x401000

// Func is one function symbol to define, at Off bytes into the code.
type Func struct {
	Name string
	Off  uint64
	Size uint64
}

type strtab struct {
	buf bytes.Buffer
}

func newStrtab() *strtab {
	s := &strtab{}
	s.buf.WriteByte(0)
	return s
}

func (s *strtab) add(name string) uint32 {
	off := uint32(s.buf.Len())
	s.buf.WriteString(name)
	s.buf.WriteByte(0)
	return off
}

type sym struct {
	name  uint32
	info  uint8
	shndx uint16
	value uint64
	size  uint64
}

// Write writes a minimal 64-bit little-endian ELF executable to path.
func Write(path string, machine elf.Machine, code []byte, funcs []Func, source string) error {
	names := newStrtab()

	syms := []sym{{}} // index 0 is the null symbol
	locals := 1
	if source != "" {
		syms = append(syms, sym{
			name:  names.add(source),
			info:  uint8(elf.STT_FILE), // STB_LOCAL
			shndx: uint16(elf.SHN_ABS),
		})
		locals++
	}
	for _, f := range funcs {
		syms = append(syms, sym{
			name:  names.add(f.Name),
			info:  uint8(elf.STB_GLOBAL)<<4 | uint8(elf.STT_FUNC),
			shndx: 1, // .text
			value: TextAddr + f.Off,
			size:  f.Size,
		})
	}

	var symtab bytes.Buffer
	for _, s := range syms {
		binary.Write(&symtab, binary.LittleEndian, s.name)
		symtab.WriteByte(s.info)
		symtab.WriteByte(0) // st_other
		binary.Write(&symtab, binary.LittleEndian, s.shndx)
		binary.Write(&symtab, binary.LittleEndian, s.value)
		binary.Write(&symtab, binary.LittleEndian, s.size)
	}

	shstr := newStrtab()
	nText := shstr.add(".text")
	nSymtab := shstr.add(".symtab")
	nStrtab := shstr.add(".strtab")
	nShstrtab := shstr.add(".shstrtab")

	const ehSize = 64
	textOff := uint64(ehSize)
	symOff := textOff + uint64(len(code))
	strOff := symOff + uint64(symtab.Len())
	shstrOff := strOff + uint64(names.buf.Len())
	shOff := shstrOff + uint64(shstr.buf.Len())

	var out bytes.Buffer
	// ELF header.
	out.Write([]byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	le := binary.LittleEndian
	binary.Write(&out, le, uint16(elf.ET_EXEC))
	binary.Write(&out, le, uint16(machine))
	binary.Write(&out, le, uint32(1))
	binary.Write(&out, le, TextAddr)  // e_entry
	binary.Write(&out, le, uint64(0)) // e_phoff
	binary.Write(&out, le, shOff)
	binary.Write(&out, le, uint32(0))      // e_flags
	binary.Write(&out, le, uint16(ehSize)) // e_ehsize
	binary.Write(&out, le, uint16(0))      // e_phentsize
	binary.Write(&out, le, uint16(0))      // e_phnum
	binary.Write(&out, le, uint16(64))     // e_shentsize
	binary.Write(&out, le, uint16(5))      // e_shnum
	binary.Write(&out, le, uint16(4))      // e_shstrndx

	out.Write(code)
	out.Write(symtab.Bytes())
	out.Write(names.buf.Bytes())
	out.Write(shstr.buf.Bytes())

	type shdr struct {
		Name      uint32
		Type      uint32
		Flags     uint64
		Addr      uint64
		Offset    uint64
		Size      uint64
		Link      uint32
		Info      uint32
		Addralign uint64
		Entsize   uint64
	}
	headers := []shdr{
		{},
		{
			Name: nText, Type: uint32(elf.SHT_PROGBITS),
			Flags: uint64(elf.SHF_ALLOC | elf.SHF_EXECINSTR),
			Addr:  TextAddr, Offset: textOff, Size: uint64(len(code)),
			Addralign: 16,
		},
		{
			Name: nSymtab, Type: uint32(elf.SHT_SYMTAB),
			Offset: symOff, Size: uint64(symtab.Len()),
			Link: 3, Info: uint32(locals), Addralign: 8, Entsize: 24,
		},
		{
			Name: nStrtab, Type: uint32(elf.SHT_STRTAB),
			Offset: strOff, Size: uint64(names.buf.Len()), Addralign: 1,
		},
		{
			Name: nShstrtab, Type: uint32(elf.SHT_STRTAB),
			Offset: shstrOff, Size: uint64(shstr.buf.Len()), Addralign: 1,
		},
	}
	for _, h := range headers {
		binary.Write(&out, le, h)
	}

	return os.WriteFile(path, out.Bytes(), 0644)
}
