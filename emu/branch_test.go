package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv64sim/rv64sim/emu"
	"github.com/rv64sim/rv64sim/insts"
)

var _ = Describe("EvalBranch", func() {
	It("evaluates equality and signed/unsigned comparisons", func() {
		Expect(emu.EvalBranch(insts.OpBeq, 5, 5)).To(BeTrue())
		Expect(emu.EvalBranch(insts.OpBne, 5, 5)).To(BeFalse())

		negOne := uint64(0xFFFFFFFFFFFFFFFF)
		Expect(emu.EvalBranch(insts.OpBlt, negOne, 1)).To(BeTrue())
		Expect(emu.EvalBranch(insts.OpBltu, negOne, 1)).To(BeFalse())
		Expect(emu.EvalBranch(insts.OpBgeu, negOne, 1)).To(BeTrue())
		Expect(emu.EvalBranch(insts.OpBge, negOne, 1)).To(BeFalse())
	})
})

var _ = Describe("BranchTarget", func() {
	It("computes a pc-relative target", func() {
		Expect(emu.BranchTarget(0x1000, 12)).To(Equal(uint64(0x100C)))
	})
})

var _ = Describe("JalrTarget", func() {
	It("clears bit 0 of the computed target", func() {
		Expect(emu.JalrTarget(0x1001, 4)).To(Equal(uint64(0x1004)))
	})
})
