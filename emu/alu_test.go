package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv64sim/rv64sim/emu"
	"github.com/rv64sim/rv64sim/insts"
)

var _ = Describe("Execute", func() {
	It("performs basic integer arithmetic", func() {
		Expect(emu.Execute(insts.OpAdd, 3, 4)).To(Equal(uint64(7)))
		Expect(emu.Execute(insts.OpSub, 10, 3)).To(Equal(uint64(7)))
	})

	It("sign-extends a 32-bit word-width result to 64 bits", func() {
		minusOne := uint64(0xFFFFFFFFFFFFFFFF)
		Expect(emu.Execute(insts.OpSlliw, minusOne, 0)).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
	})

	It("shifts arithmetic right preserving sign", func() {
		Expect(emu.Execute(insts.OpSra, 0xFFFFFFFFFFFFFFF0, 4)).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
	})

	It("compares signed values for slt", func() {
		negOne := uint64(0xFFFFFFFFFFFFFFFF)
		Expect(emu.Execute(insts.OpSlt, negOne, 1)).To(Equal(uint64(1)))
		Expect(emu.Execute(insts.OpSltu, negOne, 1)).To(Equal(uint64(0)))
	})

	Describe("division edge cases", func() {
		It("yields all-ones quotient and the dividend as remainder on divide by zero", func() {
			Expect(emu.Execute(insts.OpDiv, 10, 0)).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
			Expect(emu.Execute(insts.OpRem, 10, 0)).To(Equal(uint64(10)))
		})

		It("yields MIN/0 with no trap on signed overflow", func() {
			min := uint64(1) << 63
			negOne := uint64(0xFFFFFFFFFFFFFFFF)
			Expect(emu.Execute(insts.OpDiv, min, negOne)).To(Equal(min))
			Expect(emu.Execute(insts.OpRem, min, negOne)).To(Equal(uint64(0)))
		})

		It("yields 1 for divw of -1 by -1", func() {
			negOne := uint64(0xFFFFFFFFFFFFFFFF)
			Expect(emu.Execute(insts.OpDivw, negOne, negOne)).To(Equal(uint64(1)))
		})
	})

	Describe("multiply high variants", func() {
		It("computes mulhu as the high 64 bits of an unsigned product", func() {
			a := uint64(0xFFFFFFFFFFFFFFFF)
			Expect(emu.Execute(insts.OpMulhu, a, 2)).To(Equal(uint64(1)))
		})

		It("computes mulh consistently with signed multiplication", func() {
			negOne := uint64(0xFFFFFFFFFFFFFFFF)
			Expect(emu.Execute(insts.OpMulh, negOne, negOne)).To(Equal(uint64(0)))
		})
	})
})
