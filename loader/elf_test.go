package loader_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv64sim/rv64sim/emu"
	"github.com/rv64sim/rv64sim/loader"
)

func TestLoader(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Loader Suite")
}

var _ = Describe("LoadFlat", func() {
	It("wraps a raw image as a single RWX segment at entry", func() {
		image := []byte{0x13, 0x00, 0x00, 0x00} // addi x0, x0, 0
		prog := loader.LoadFlat(0x1000, image)

		Expect(prog.EntryPoint).To(Equal(uint64(0x1000)))
		Expect(prog.Segments).To(HaveLen(1))
		Expect(prog.Segments[0].VirtAddr).To(Equal(uint64(0x1000)))
		Expect(prog.Segments[0].MemSize).To(Equal(uint64(len(image))))
		Expect(prog.Segments[0].Flags & loader.SegmentFlagExecute).NotTo(BeZero())
	})
})

var _ = Describe("LoadInto", func() {
	It("copies segment bytes into memory and returns the entry point", func() {
		image := []byte{0xAA, 0xBB, 0xCC, 0xDD}
		prog := loader.LoadFlat(0x2000, image)
		mem := emu.NewMemory()

		entry := loader.LoadInto(mem, prog)

		Expect(entry).To(Equal(uint64(0x2000)))
		Expect(mem.Read32(0x2000)).To(Equal(uint32(0xDDCCBBAA)))
	})

	It("zero-fills the BSS portion of a segment beyond its file data", func() {
		prog := &loader.Program{
			EntryPoint: 0x3000,
			Segments: []loader.Segment{{
				VirtAddr: 0x3000,
				Data:     []byte{0x01, 0x02},
				MemSize:  8,
			}},
		}
		mem := emu.NewMemory()

		loader.LoadInto(mem, prog)

		Expect(mem.Read8(0x3000)).To(Equal(uint8(0x01)))
		Expect(mem.Read8(0x3001)).To(Equal(uint8(0x02)))
		for i := uint64(2); i < 8; i++ {
			Expect(mem.Read8(0x3000 + i)).To(Equal(uint8(0)))
		}
	})

	It("copies every segment when a program has more than one", func() {
		prog := &loader.Program{
			EntryPoint: 0x1000,
			Segments: []loader.Segment{
				{VirtAddr: 0x1000, Data: []byte{0x11}, MemSize: 1},
				{VirtAddr: 0x5000, Data: []byte{0x22}, MemSize: 1},
			},
		}
		mem := emu.NewMemory()

		loader.LoadInto(mem, prog)

		Expect(mem.Read8(0x1000)).To(Equal(uint8(0x11)))
		Expect(mem.Read8(0x5000)).To(Equal(uint8(0x22)))
	})
})
