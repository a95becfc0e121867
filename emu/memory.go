package emu

import "fmt"

// pageSize is the granularity at which Memory lazily allocates backing
// storage. Programs touch only a handful of pages (text, a small heap, a
// stack), so a sparse page map is both simple and frugal compared to
// allocating the full address space up front.
const pageSize = 4096

// DefaultAddressLimit bounds the flat virtual address space Memory will
// service. Accesses at or beyond this address are out-of-bounds and fault,
// per spec: "Address-out-of-bounds is a fatal fault."
const DefaultAddressLimit = uint64(1) << 32

// MemoryFault reports an out-of-bounds or mis-sized memory access. It
// implements error.
type MemoryFault struct {
	Addr  uint64
	Size  int
	Write bool
}

func (f *MemoryFault) Error() string {
	verb := "read"
	if f.Write {
		verb = "write"
	}
	return fmt.Sprintf("memory fault: %d-byte %s at 0x%x out of bounds", f.Size, verb, f.Addr)
}

// Memory is a flat, byte-addressable, little-endian memory with aligned and
// unaligned sized load/store primitives. Storage is paged and allocated
// lazily; unwritten bytes read as zero.
type Memory struct {
	limit uint64
	pages map[uint64][]byte
}

// NewMemory creates a Memory with the default address limit.
func NewMemory() *Memory {
	return NewMemoryWithLimit(DefaultAddressLimit)
}

// NewMemoryWithLimit creates a Memory that rejects accesses at or beyond
// limit as out-of-bounds.
func NewMemoryWithLimit(limit uint64) *Memory {
	return &Memory{limit: limit, pages: make(map[uint64][]byte)}
}

func (m *Memory) page(addr uint64, write bool) []byte {
	base := addr &^ (pageSize - 1)
	p, ok := m.pages[base]
	if !ok {
		if !write {
			return nil
		}
		p = make([]byte, pageSize)
		m.pages[base] = p
	}
	return p
}

func (m *Memory) checkBounds(addr uint64, size int, write bool) {
	if addr+uint64(size) < addr || addr+uint64(size) > m.limit {
		panic(&MemoryFault{Addr: addr, Size: size, Write: write})
	}
}

// Read8 reads one byte. Unwritten bytes are zero.
func (m *Memory) Read8(addr uint64) uint8 {
	m.checkBounds(addr, 1, false)
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr%pageSize]
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint64, v uint8) {
	m.checkBounds(addr, 1, true)
	p := m.page(addr, true)
	p[addr%pageSize] = v
}

// Read16 reads a little-endian 16-bit halfword. Accesses may straddle a page
// boundary; the simulator permits unaligned access per spec.
func (m *Memory) Read16(addr uint64) uint16 {
	return uint16(m.Read8(addr)) | uint16(m.Read8(addr+1))<<8
}

// Write16 writes a little-endian 16-bit halfword.
func (m *Memory) Write16(addr uint64, v uint16) {
	m.Write8(addr, uint8(v))
	m.Write8(addr+1, uint8(v>>8))
}

// Read32 reads a little-endian 32-bit word.
func (m *Memory) Read32(addr uint64) uint32 {
	return uint32(m.Read16(addr)) | uint32(m.Read16(addr+2))<<16
}

// Write32 writes a little-endian 32-bit word.
func (m *Memory) Write32(addr uint64, v uint32) {
	m.Write16(addr, uint16(v))
	m.Write16(addr+2, uint16(v>>16))
}

// Read64 reads a little-endian 64-bit doubleword.
func (m *Memory) Read64(addr uint64) uint64 {
	return uint64(m.Read32(addr)) | uint64(m.Read32(addr+4))<<32
}

// Write64 writes a little-endian 64-bit doubleword.
func (m *Memory) Write64(addr uint64, v uint64) {
	m.Write32(addr, uint32(v))
	m.Write32(addr+4, uint32(v>>32))
}

// ReadSized reads a size-byte (1/2/4/8) little-endian value, zero-extended
// to 64 bits. It is the primitive the fetch and memory stages build on.
func (m *Memory) ReadSized(addr uint64, size int) uint64 {
	switch size {
	case 1:
		return uint64(m.Read8(addr))
	case 2:
		return uint64(m.Read16(addr))
	case 4:
		return uint64(m.Read32(addr))
	case 8:
		return m.Read64(addr)
	default:
		panic(&MemoryFault{Addr: addr, Size: size})
	}
}

// WriteSized writes the low size bytes (1/2/4/8) of v, little-endian.
func (m *Memory) WriteSized(addr uint64, size int, v uint64) {
	switch size {
	case 1:
		m.Write8(addr, uint8(v))
	case 2:
		m.Write16(addr, uint16(v))
	case 4:
		m.Write32(addr, uint32(v))
	case 8:
		m.Write64(addr, v)
	default:
		panic(&MemoryFault{Addr: addr, Size: size, Write: true})
	}
}
