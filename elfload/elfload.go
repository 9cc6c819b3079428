// Package elfload loads an RV32I conformance-test ELF binary into a flat
// memory image. It is the descendant of the teacher's convertprg tool
// (which parsed a C64 PRG file into a 64KiB bin image): the input format
// changed from PRG to ELF32, and the output is sized and based to match
// spec §6's simulation memory map instead of a fixed 64KiB C64 address
// space. debug/elf from the standard library does the parsing — no
// ELF library appears anywhere in the retrieval pack, and Go's own is
// the actively-maintained, standard way to read one.
package elfload

import (
	"debug/elf"
	"fmt"

	"github.com/kryptonyte/core/memory"
)

// Image is a loaded program: the flat byte image (indexed from
// memory.Base, the way memory.NewRAM's backing store is) plus any of the
// well-known riscv-tests symbols that were present. A zero address means
// the symbol was absent.
type Image struct {
	Bytes []byte

	EntryPC        uint32
	ToHost         uint32
	FromHost       uint32
	BeginSignature uint32
	EndSignature   uint32
}

// Load parses the ELF32 file at path and returns its loadable PT_LOAD
// segments flattened into a single image sized to memory.Size and based
// at memory.Base, along with the tohost/fromhost/begin_signature/
// end_signature symbol addresses the conformance harness polls.
func Load(path string) (*Image, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elfload: open %q: %w", path, err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("elfload: %q is not a 32-bit ELF (got %s)", path, f.Class)
	}
	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("elfload: %q is not a RISC-V ELF (got %s)", path, f.Machine)
	}

	img := &Image{
		Bytes:   make([]byte, memory.Size),
		EntryPC: uint32(f.Entry),
	}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}
		vaddr := uint32(prog.Vaddr)
		if vaddr < memory.Base {
			return nil, fmt.Errorf("elfload: %q has a PT_LOAD segment at %#x, below the simulation base %#x", path, vaddr, memory.Base)
		}
		off := vaddr - memory.Base
		if uint64(off)+prog.Filesz > uint64(len(img.Bytes)) {
			return nil, fmt.Errorf("elfload: %q has a PT_LOAD segment extending past the %d-byte simulation window", path, len(img.Bytes))
		}
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return nil, fmt.Errorf("elfload: reading PT_LOAD segment: %w", err)
		}
		copy(img.Bytes[off:], data)
	}

	syms, err := f.Symbols()
	if err != nil && len(syms) == 0 {
		// No symbol table is not an error for a stripped binary: the
		// tohost/signature addresses just stay zero.
		syms = nil
	}
	lookup := map[string]*uint32{
		"tohost":           &img.ToHost,
		"fromhost":         &img.FromHost,
		"begin_signature":  &img.BeginSignature,
		"end_signature":    &img.EndSignature,
	}
	for _, sym := range syms {
		if dst, ok := lookup[sym.Name]; ok {
			*dst = uint32(sym.Value)
		}
	}

	return img, nil
}

// LoadInto copies img.Bytes into bank starting at memory.Base, the way a
// real bus master would initialize RAM before releasing reset.
func LoadInto(img *Image, bank memory.Bank) {
	for i := 0; i < len(img.Bytes); i += 4 {
		word := uint32(img.Bytes[i]) | uint32(img.Bytes[i+1])<<8 | uint32(img.Bytes[i+2])<<16 | uint32(img.Bytes[i+3])<<24
		if word == 0 {
			continue
		}
		bank.WriteWord(memory.Base+uint32(i), word, 0b1111)
	}
}
