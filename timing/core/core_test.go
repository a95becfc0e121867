package core_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv64sim/rv64sim/emu"
	"github.com/rv64sim/rv64sim/timing/core"
)

func TestCore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Core Suite")
}

func cAddi(rd, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)<<20)&0xfff00000 | (rs1 << 15) | (rd << 7) | 0b0010011
}

func cEbreak() uint32 {
	return (uint32(1) << 20) | 0b1110011
}

var _ = Describe("Core", func() {
	var (
		regFile *emu.RegFile
		memory  *emu.Memory
		c       *core.Core
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		memory = emu.NewMemory()
		c = core.NewCore(regFile, memory)

		memory.Write32(0x1000, cAddi(1, 0, 5))
		memory.Write32(0x1004, cAddi(2, 1, 7))
		memory.Write32(0x1008, cEbreak())
		c.SetPC(0x1000)
	})

	It("reports pc and register values by ABI name", func() {
		Expect(c.PC()).To(Equal(uint64(0x1000)))
		v, err := c.RegValByName("a0")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(0)))
	})

	It("errors on an unknown register name", func() {
		_, err := c.RegValByName("bogus")
		Expect(err).To(HaveOccurred())
	})

	It("reads memory at every granularity through the debugger accessors", func() {
		memory.Write64(0x2000, 0x1122334455667788)
		Expect(c.MRead8(0x2000)).To(Equal(uint8(0x88)))
		Expect(c.MRead16(0x2000)).To(Equal(uint16(0x7788)))
		Expect(c.MRead32(0x2000)).To(Equal(uint32(0x55667788)))
		Expect(c.MRead64(0x2000)).To(Equal(uint64(0x1122334455667788)))
	})

	It("steps one cycle at a time via ExecOnce", func() {
		for i := 0; i < 20 && !c.Halted(); i++ {
			c.ExecOnce()
		}
		Expect(c.Halted()).To(BeTrue())
	})

	It("runs to completion with CPUExec(0)", func() {
		stillRunning := c.CPUExec(0)
		Expect(stillRunning).To(BeFalse())
		Expect(c.Halted()).To(BeTrue())
		Expect(c.ExitCode()).To(Equal(int64(0)))
	})

	It("stops early when CPUExec is given a cycle limit it can't finish in", func() {
		stillRunning := c.CPUExec(1)
		Expect(stillRunning).To(BeTrue())
		Expect(c.Halted()).To(BeFalse())
	})

	It("resets latches, counters, and pc without touching the register file", func() {
		c.CPUExec(0)
		Expect(c.Halted()).To(BeTrue())

		regFile.WriteReg(1, 999)
		c.Reset(0x1000)

		Expect(c.Halted()).To(BeFalse())
		Expect(c.PC()).To(Equal(uint64(0x1000)))
		Expect(regFile.ReadReg(1)).To(Equal(uint64(999)))
	})
})
