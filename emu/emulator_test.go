package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rv64sim/rv64sim/emu"
)

// Hand-assembled RV64IM encodings for the emulator scenarios below. Each
// helper mirrors the bit layout in insts/decoder.go's immX helpers.

func asmRType(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func asmIType(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)<<20)&0xfff00000 | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func asmSType(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	hi := (u >> 5) & 0x7f
	lo := u & 0x1f
	return (hi << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (lo << 7) | opcode
}

func asmBType(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	b12 := (u >> 12) & 0x1
	b11 := (u >> 11) & 0x1
	b10_5 := (u >> 5) & 0x3f
	b4_1 := (u >> 1) & 0xf
	return (b12 << 31) | (b10_5 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (b4_1 << 8) | (b11 << 7) | opcode
}

func asmJType(opcode, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	b20 := (u >> 20) & 0x1
	b19_12 := (u >> 12) & 0xff
	b11 := (u >> 11) & 0x1
	b10_1 := (u >> 1) & 0x3ff
	return (b20 << 31) | (b10_1 << 21) | (b11 << 20) | (b19_12 << 12) | (rd << 7) | opcode
}

func addi(rd, rs1 uint32, imm int32) uint32 { return asmIType(0b0010011, rd, 0, rs1, imm) }
func ebreak() uint32                        { return asmIType(0b1110011, 0, 0, 0, 1) }
func ld(rd, rs1 uint32) uint32              { return asmIType(0b0000011, rd, 0b011, rs1, 0) }
func sd(rs1, rs2 uint32) uint32             { return asmSType(0b0100011, 0b011, rs1, rs2, 0) }
func beq(rs1, rs2 uint32, imm int32) uint32 { return asmBType(0b1100011, 0b000, rs1, rs2, imm) }
func jal(rd uint32, imm int32) uint32       { return asmJType(0b1101111, rd, imm) }
func jalr(rd, rs1 uint32) uint32            { return asmIType(0b1100111, rd, 0, rs1, 0) }
func slliw(rd, rs1, shamt uint32) uint32    { return asmIType(0b0011011, rd, 0b001, rs1, int32(shamt)) }
func divw(rd, rs1, rs2 uint32) uint32       { return asmRType(0b0111011, rd, 0b100, rs1, rs2, 0b0000001) }
func div(rd, rs1, rs2 uint32) uint32        { return asmRType(0b0110011, rd, 0b100, rs1, rs2, 0b0000001) }

func loadProgram(e *emu.Emulator, entry uint64, words ...uint32) {
	e.SetEntry(entry)
	for i, w := range words {
		e.Memory().Write32(entry+uint64(4*i), w)
	}
}

var _ = Describe("Emulator scenarios", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	It("S1: chains three addi instructions to the expected registers", func() {
		loadProgram(e, 0x1000,
			addi(1, 0, 5),   // addi x1, x0, 5
			addi(2, 1, 7),   // addi x2, x1, 7
			addi(3, 2, -3),  // addi x3, x2, -3
			ebreak(),
		)
		exitCode := e.Run()
		Expect(e.RegFile().ReadReg(1)).To(Equal(uint64(5)))
		Expect(e.RegFile().ReadReg(2)).To(Equal(uint64(12)))
		Expect(e.RegFile().ReadReg(3)).To(Equal(uint64(9)))
		Expect(exitCode).To(Equal(int64(0)))
	})

	It("S2: loads a stored doubleword and propagates it to the exit code", func() {
		loadProgram(e, 0x1000,
			addi(6, 0, 0), // placeholder, address patched below
			ld(5, 6),
			addi(7, 5, 1),
			addi(10, 7, 0),
			ebreak(),
		)
		addr := uint64(0x2000)
		e.Memory().Write64(addr, 0x1122334455667788)
		e.RegFile().WriteReg(6, addr)
		// Overwrite the placeholder addi with a no-op so x6 keeps the address
		// set directly above (this test exercises Load/Store, not immediate
		// address construction).
		e.Memory().Write32(0x1000, addi(0, 0, 0))

		exitCode := e.Run()
		Expect(exitCode).To(Equal(int64(0x1122334455667789)))
	})

	It("S3: a taken branch skips the instruction immediately after it", func() {
		loadProgram(e, 0x1000,
			addi(1, 0, 1),
			addi(2, 0, 1),
			beq(1, 2, 8), // to pc+8, skipping the next addi
			addi(10, 0, 99),
			addi(10, 0, 7),
			ebreak(),
		)
		exitCode := e.Run()
		Expect(exitCode).To(Equal(int64(7)))
	})

	It("S4: jal calls forward over dead code and jalr returns to the link address", func() {
		loadProgram(e, 0x1000,
			jal(1, 12),     // jal x1, +12 -> pc 0x100C, link x1=0x1004
			ebreak(),       // 0x1004: the return address; must run last, after the call
			addi(10, 0, 99), // 0x1008: dead code, never reached
			addi(10, 0, 1), // 0x100C: subroutine body
			jalr(0, 1),     // 0x1010: return to x1 (0x1004)
		)
		exitCode := e.Run()
		Expect(exitCode).To(Equal(int64(1)))
	})

	It("S5: slliw by zero sign-extends a 32-bit -1 to 64 bits", func() {
		loadProgram(e, 0x1000,
			addi(1, 0, -1),
			slliw(2, 1, 0),
			addi(10, 2, 0),
			ebreak(),
		)
		exitCode := e.Run()
		Expect(uint64(exitCode)).To(Equal(uint64(0xFFFFFFFFFFFFFFFF)))
	})

	It("S6: divw and div/MIN overflow match RISC-V no-trap semantics", func() {
		loadProgram(e, 0x1000,
			addi(1, 0, -1),
			divw(2, 1, 1),
			ebreak(),
		)
		e.Run()
		Expect(e.RegFile().ReadReg(2)).To(Equal(uint64(1)))

		e2 := emu.NewEmulator()
		minVal := uint64(1) << 63
		loadProgram(e2, 0x1000,
			addi(1, 0, -1),
			ebreak(),
		)
		e2.RegFile().WriteReg(4, minVal)
		e2.Memory().Write32(0x1000+4, div(3, 4, 1))
		e2.Memory().Write32(0x1000+8, ebreak())
		e2.Run()
		Expect(e2.RegFile().ReadReg(3)).To(Equal(minVal))
	})
})
