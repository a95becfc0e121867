// Package insts provides RV64IM instruction definitions and decoding.
//
// Decode maps a 32-bit RISC-V encoding plus its fetch PC onto a uniform
// Instruction control record. Every downstream pipeline stage dispatches on
// the record's AluOp tag rather than on the encoding, so decode is the only
// place that knows about opcode/funct3/funct7/funct6 bit layouts.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(0x00000013, 0x1000) // addi x0, x0, 0 at pc 0x1000
package insts

import "fmt"

// AluOp is the closed set of RV64IM opcodes a decoded instruction can carry.
// Stage logic downstream of decode dispatches on this tag; it never
// re-inspects the raw encoding.
type AluOp uint8

// The RV64IM opcode tags named in the instruction set reference, plus
// OpNone, the zero value, which no decoded instruction carries (pipeline
// bubbles carry OpAddi; see Bubble).
const (
	OpNone AluOp = iota

	// OP_IMM
	OpAddi
	OpSlti
	OpSltiu
	OpXori
	OpOri
	OpAndi
	OpSlli
	OpSrli
	OpSrai

	// OP_IMM_32
	OpAddiw
	OpSlliw
	OpSrliw
	OpSraiw

	// OP
	OpAdd
	OpSub
	OpSll
	OpSlt
	OpSltu
	OpXor
	OpSrl
	OpSra
	OpOr
	OpAnd
	OpMul
	OpMulh
	OpMulhsu
	OpMulhu
	OpDiv
	OpDivu
	OpRem
	OpRemu

	// OP_32
	OpAddw
	OpSubw
	OpSllw
	OpSrlw
	OpSraw
	OpMulw
	OpDivw
	OpDivuw
	OpRemw
	OpRemuw

	// LUI / AUIPC
	OpLui
	OpAuipc

	// LOAD
	OpLb
	OpLh
	OpLw
	OpLd
	OpLbu
	OpLhu
	OpLwu

	// STORE
	OpSb
	OpSh
	OpSw
	OpSd

	// BRANCH
	OpBeq
	OpBne
	OpBlt
	OpBge
	OpBltu
	OpBgeu

	// JAL / JALR
	OpJal
	OpJalr

	// SYSTEM
	OpEcall
	OpEbreak
	OpCsrrw
	OpCsrrs
	OpCsrrc
	OpCsrrwi
	OpCsrrsi
	OpCsrrci
)

func (op AluOp) String() string {
	if s, ok := aluOpNames[op]; ok {
		return s
	}
	return fmt.Sprintf("AluOp(%d)", uint8(op))
}

var aluOpNames = map[AluOp]string{
	OpNone: "none",

	OpAddi: "addi", OpSlti: "slti", OpSltiu: "sltiu", OpXori: "xori",
	OpOri: "ori", OpAndi: "andi", OpSlli: "slli", OpSrli: "srli", OpSrai: "srai",

	OpAddiw: "addiw", OpSlliw: "slliw", OpSrliw: "srliw", OpSraiw: "sraiw",

	OpAdd: "add", OpSub: "sub", OpSll: "sll", OpSlt: "slt", OpSltu: "sltu",
	OpXor: "xor", OpSrl: "srl", OpSra: "sra", OpOr: "or", OpAnd: "and",
	OpMul: "mul", OpMulh: "mulh", OpMulhsu: "mulhsu", OpMulhu: "mulhu",
	OpDiv: "div", OpDivu: "divu", OpRem: "rem", OpRemu: "remu",

	OpAddw: "addw", OpSubw: "subw", OpSllw: "sllw", OpSrlw: "srlw", OpSraw: "sraw",
	OpMulw: "mulw", OpDivw: "divw", OpDivuw: "divuw", OpRemw: "remw", OpRemuw: "remuw",

	OpLui: "lui", OpAuipc: "auipc",

	OpLb: "lb", OpLh: "lh", OpLw: "lw", OpLd: "ld",
	OpLbu: "lbu", OpLhu: "lhu", OpLwu: "lwu",

	OpSb: "sb", OpSh: "sh", OpSw: "sw", OpSd: "sd",

	OpBeq: "beq", OpBne: "bne", OpBlt: "blt", OpBge: "bge", OpBltu: "bltu", OpBgeu: "bgeu",

	OpJal: "jal", OpJalr: "jalr",

	OpEcall: "ecall", OpEbreak: "ebreak",
	OpCsrrw: "csrrw", OpCsrrs: "csrrs", OpCsrrc: "csrrc",
	OpCsrrwi: "csrrwi", OpCsrrsi: "csrrsi", OpCsrrci: "csrrci",
}

// Sext identifies which immediate layout an instruction's encoding uses,
// and therefore how its bits reconstruct a sign-extended 64-bit immediate.
type Sext uint8

// The six immediate kinds (five real layouts plus None for formats with no
// immediate operand).
const (
	SextNone Sext = iota
	SextI
	SextS
	SextB
	SextU
	SextJ
)

func (s Sext) String() string {
	switch s {
	case SextI:
		return "I"
	case SextS:
		return "S"
	case SextB:
		return "B"
	case SextU:
		return "U"
	case SextJ:
		return "J"
	default:
		return "None"
	}
}

// Instruction is the uniform decoded form every encoding format is mapped
// onto, per the data model's instruction record.
type Instruction struct {
	// PC is the address this instruction was fetched from. Carried through
	// every latch unchanged, all the way to writeback.
	PC uint64

	AluOp AluOp
	Sext  Sext

	// AluSrc selects the immediate (true) or REG[rs2] (false) as the ALU's
	// second operand.
	AluSrc bool

	MemRead  bool
	MemWrite bool

	// Branch is true for the six conditional BRANCH-format instructions.
	// Unconditional control transfer (jal/jalr) is tracked separately via
	// Jump, since it is always taken once it reaches EX.
	Branch bool
	Jump   bool

	// MemToReg: writeback sources the memory result rather than the ALU
	// result.
	MemToReg bool

	// RegWrite: this instruction writes rd. Derived at decode time from
	// mem_to_reg || (ALU produces a value) && rd != 0, matching the data
	// model's invariant that x0 is never a real write target.
	RegWrite bool

	Rs1, Rs2, Rd uint8

	// Imm is the 64-bit sign-extended immediate, already reconstructed per
	// Sext by the decoder. Zero when Sext == SextNone.
	Imm uint64

	// Funct3 is retained from the encoding for inspection. No stage reads
	// it: branch conditions and load/store size and signedness are all
	// selected from AluOp, which fully implies it.
	Funct3 uint8

	// CSR is the zero-extended 12-bit CSR address for SYSTEM/CSR
	// instructions.
	CSR uint16
}

// IsBubble reports whether inst is a pipeline bubble: a synthetic no-op with
// no register or memory effect, as injected by the hazard unit on a
// load-use stall or by a taken-branch flush.
func (inst *Instruction) IsBubble() bool {
	return inst != nil && inst.AluOp == OpAddi && !inst.RegWrite && !inst.MemRead && !inst.MemWrite && !inst.Branch && !inst.Jump
}

// Bubble returns a synthetic no-op record carrying pc, matching spec's
// bubble shape: alu_op=addi, rd=0, reg_write=mem_read=mem_write=branch=false.
func Bubble(pc uint64) *Instruction {
	return &Instruction{PC: pc, AluOp: OpAddi, Sext: SextI}
}
