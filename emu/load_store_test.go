package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv64sim/rv64sim/emu"
	"github.com/rv64sim/rv64sim/insts"
)

var _ = Describe("Load and Store", func() {
	var m *emu.Memory

	BeforeEach(func() {
		m = emu.NewMemory()
	})

	It("sign-extends lb/lh/lw", func() {
		m.Write8(0x100, 0xFF)
		Expect(emu.Load(m, insts.OpLb, 0x100)).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))

		m.Write16(0x200, 0xFFFF)
		Expect(emu.Load(m, insts.OpLh, 0x200)).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))

		m.Write32(0x300, 0xFFFFFFFF)
		Expect(emu.Load(m, insts.OpLw, 0x300)).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
	})

	It("zero-extends lbu/lhu/lwu", func() {
		m.Write8(0x100, 0xFF)
		Expect(emu.Load(m, insts.OpLbu, 0x100)).To(Equal(uint64(0xFF)))

		m.Write32(0x300, 0xFFFFFFFF)
		Expect(emu.Load(m, insts.OpLwu, 0x300)).To(Equal(uint64(0xFFFFFFFF)))
	})

	It("round-trips a store followed by a matching-width load", func() {
		emu.Store(m, insts.OpSd, 0x400, 0x1122334455667788)
		Expect(emu.Load(m, insts.OpLd, 0x400)).To(Equal(uint64(0x1122334455667788)))
	})

	It("stores only the low bytes for a narrower store width", func() {
		emu.Store(m, insts.OpSw, 0x500, 0xFFFFFFFFDEADBEEF)
		Expect(m.Read64(0x500)).To(Equal(uint64(0xDEADBEEF)))
	})
})
