package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv64sim/rv64sim/emu"
)

var _ = Describe("Memory", func() {
	var m *emu.Memory

	BeforeEach(func() {
		m = emu.NewMemory()
	})

	It("reads unwritten bytes as zero", func() {
		Expect(m.Read64(0x1000)).To(Equal(uint64(0)))
	})

	It("round-trips a little-endian doubleword", func() {
		m.Write64(0x2000, 0x1122334455667788)
		Expect(m.Read64(0x2000)).To(Equal(uint64(0x1122334455667788)))
		Expect(m.Read8(0x2000)).To(Equal(uint8(0x88)))
		Expect(m.Read8(0x2007)).To(Equal(uint8(0x11)))
	})

	It("round-trips sized reads and writes for every granularity", func() {
		m.WriteSized(0x3000, 1, 0xAB)
		Expect(m.ReadSized(0x3000, 1)).To(Equal(uint64(0xAB)))

		m.WriteSized(0x3010, 2, 0xCAFE)
		Expect(m.ReadSized(0x3010, 2)).To(Equal(uint64(0xCAFE)))

		m.WriteSized(0x3020, 4, 0xDEADBEEF)
		Expect(m.ReadSized(0x3020, 4)).To(Equal(uint64(0xDEADBEEF)))
	})

	It("allocates pages lazily across a page boundary write", func() {
		m.Write8(4095, 0x01)
		m.Write8(4096, 0x02)
		Expect(m.Read8(4095)).To(Equal(uint8(0x01)))
		Expect(m.Read8(4096)).To(Equal(uint8(0x02)))
	})

	It("faults on an out-of-bounds access", func() {
		small := emu.NewMemoryWithLimit(16)
		Expect(func() { small.Read8(100) }).To(PanicWith(BeAssignableToTypeOf(&emu.MemoryFault{})))
	})
})
