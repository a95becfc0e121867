package emu_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv64sim/rv64sim/emu"
)

func TestEmu(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Emu Suite")
}

var _ = Describe("RegFile", func() {
	var r *emu.RegFile

	BeforeEach(func() {
		r = &emu.RegFile{}
	})

	It("reads x0 as zero even after a write", func() {
		r.WriteReg(0, 0xDEADBEEF)
		Expect(r.ReadReg(0)).To(Equal(uint64(0)))
	})

	It("reads back a value written to a general register", func() {
		r.WriteReg(5, 42)
		Expect(r.ReadReg(5)).To(Equal(uint64(42)))
	})

	It("sign-extends a 32-bit write to 64 bits", func() {
		r.WriteReg32(2, 0xFFFFFFFF)
		Expect(r.ReadReg(2)).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
	})

	It("resolves registers by ABI name", func() {
		r.WriteReg(10, 7)
		v, ok := r.RegByName("a0")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(uint64(7)))
	})

	It("resolves registers by numeric name", func() {
		r.WriteReg(10, 7)
		v, ok := r.RegByName("x10")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(uint64(7)))
	})

	It("resolves pc by name", func() {
		r.PC = 0x8000
		v, ok := r.RegByName("pc")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(uint64(0x8000)))
	})

	It("reports false for an unknown register name", func() {
		_, ok := r.RegByName("nope")
		Expect(ok).To(BeFalse())
	})
})
