// Package loader provides program loading for RV64 executables: ELF binaries
// produced by a standard riscv64 toolchain, and flat raw binaries assembled
// by hand for small test programs.
package loader

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/rv64sim/rv64sim/emu"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// DefaultStackTop is the default stack top address for riscv64 Linux user
// space: a conventional high address well below the sign-extended top of
// the canonical address range.
const DefaultStackTop = 0x7ffffffff000

// DefaultStackSize is the default stack size (8MB).
const DefaultStackSize = 8 * 1024 * 1024

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint64
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint64
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded program ready for execution.
type Program struct {
	// EntryPoint is the virtual address where execution should begin.
	EntryPoint uint64
	// Segments contains all loadable segments from the program image.
	Segments []Segment
	// InitialSP is the initial stack pointer value.
	InitialSP uint64
}

// Load parses an RV64 ELF binary and returns a Program struct ready for
// loading into a Memory.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS64 {
		return nil, fmt.Errorf("not a 64-bit ELF file")
	}
	if f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("not a RISC-V ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: f.Entry,
		InitialSP:  DefaultStackTop,
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: phdr.Vaddr,
			Data:     data,
			MemSize:  phdr.Memsz,
			Flags:    flags,
		})
	}

	return prog, nil
}

// LoadFlat builds a Program from a raw instruction image with no ELF
// framing, for hand-assembled test programs: the image is placed at entry
// as a single RWX segment.
func LoadFlat(entry uint64, image []byte) *Program {
	return &Program{
		EntryPoint: entry,
		InitialSP:  DefaultStackTop,
		Segments: []Segment{{
			VirtAddr: entry,
			Data:     image,
			MemSize:  uint64(len(image)),
			Flags:    SegmentFlagExecute | SegmentFlagWrite | SegmentFlagRead,
		}},
	}
}

// LoadInto copies every segment of prog into mem, zero-filling each
// segment's bytes beyond its file data up to MemSize, and returns the entry
// PC. It writes nothing to the stack region below prog.InitialSP.
func LoadInto(mem *emu.Memory, prog *Program) uint64 {
	for _, seg := range prog.Segments {
		for i, b := range seg.Data {
			mem.Write8(seg.VirtAddr+uint64(i), b)
		}
		for i := uint64(len(seg.Data)); i < seg.MemSize; i++ {
			mem.Write8(seg.VirtAddr+i, 0)
		}
	}
	return prog.EntryPoint
}
