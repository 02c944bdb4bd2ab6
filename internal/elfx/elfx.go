// Package elfx provides ELF loading helpers for compiled-function fact
// extraction: machine validation, function symbol enumeration, and reads of
// function bodies by virtual address.
package elfx

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"
	"sort"
)

var (
	ErrNotELF     = errors.New("elfx: not an ELF file")
	ErrNot64Bit   = errors.New("elfx: not 64-bit ELF")
	ErrBadMachine = errors.New("elfx: unsupported machine")
	ErrNoSymbols  = errors.New("elfx: no symbol table")
	ErrNoSection  = errors.New("elfx: no section covers address")
)

// Arch names a supported instruction set.
type Arch string

const (
	ArchARM64 Arch = "arm64"
	ArchAMD64 Arch = "amd64"
)

// File wraps a debug/elf.File with convenience methods for function
// extraction.
type File struct {
	ELF  *elf.File
	path string
	arch Arch
}

// Open opens an ELF file and validates it is a 64-bit ARM64 or x86-64
// object.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elfx: open: %w", err)
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrNotELF, err)
	}

	if ef.Class != elf.ELFCLASS64 {
		ef.Close()
		return nil, ErrNot64Bit
	}

	var arch Arch
	switch ef.Machine {
	case elf.EM_AARCH64:
		arch = ArchARM64
	case elf.EM_X86_64:
		arch = ArchAMD64
	default:
		ef.Close()
		return nil, fmt.Errorf("%w: %s", ErrBadMachine, ef.Machine)
	}

	return &File{ELF: ef, path: path, arch: arch}, nil
}

// Close releases resources.
func (f *File) Close() error {
	return f.ELF.Close()
}

// Path returns the path the file was opened from.
func (f *File) Path() string { return f.path }

// Arch returns the file's instruction set.
func (f *File) Arch() Arch { return f.arch }

// FuncSym is one defined function symbol.
type FuncSym struct {
	Name string
	Addr uint64
	Size uint64
}

// Funcs returns the defined function symbols in address order, from the
// symbol table or, when the file is stripped of one, the dynamic symbol
// table.
func (f *File) Funcs() ([]FuncSym, error) {
	syms, err := f.ELF.Symbols()
	if errors.Is(err, elf.ErrNoSymbols) || len(syms) == 0 {
		syms, err = f.ELF.DynamicSymbols()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSymbols, err)
	}

	var funcs []FuncSym
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC {
			continue
		}
		if s.Section == elf.SHN_UNDEF || s.Size == 0 {
			continue
		}
		funcs = append(funcs, FuncSym{Name: s.Name, Addr: s.Value, Size: s.Size})
	}
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].Addr < funcs[j].Addr })
	return funcs, nil
}

// SourceFile returns the translation unit name recorded as the first
// STT_FILE symbol, or "" when the table carries none.
func (f *File) SourceFile() string {
	syms, err := f.ELF.Symbols()
	if err != nil {
		return ""
	}
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) == elf.STT_FILE && s.Name != "" {
			return s.Name
		}
	}
	return ""
}

// ReadVA reads size bytes starting at virtual address va out of the
// allocated section that contains the range.
func (f *File) ReadVA(va, size uint64) ([]byte, error) {
	for _, s := range f.ELF.Sections {
		if s.Type == elf.SHT_NOBITS || s.Addr == 0 {
			continue
		}
		if va < s.Addr || va+size > s.Addr+s.Size {
			continue
		}
		buf := make([]byte, size)
		if _, err := s.ReadAt(buf, int64(va-s.Addr)); err != nil {
			return nil, fmt.Errorf("elfx: read %d bytes at 0x%x: %w", size, va, err)
		}
		return buf, nil
	}
	return nil, fmt.Errorf("%w: 0x%x+%d", ErrNoSection, va, size)
}
