// Package pipeline implements a classical 5-stage in-order RV64IM pipeline:
// IF, ID, EX, MEM, WB, connected by four latches ticked in reverse order
// each cycle so every stage reads the previous cycle's latch contents.
package pipeline

import (
	"github.com/rv64sim/rv64sim/insts"
)

// IFIDRegister holds state latched between Fetch and Decode.
type IFIDRegister struct {
	Valid bool

	// PC of the fetched instruction.
	PC uint64

	// InstructionWord is the raw 32-bit encoding fetched from memory.
	InstructionWord uint32
}

// IDEXRegister holds state latched between Decode and Execute.
type IDEXRegister struct {
	Valid bool

	PC uint64

	// Inst is the decoded control record driving every downstream stage.
	Inst *insts.Instruction

	// Rs1Value and Rs2Value are the register values read during decode,
	// already resolved by register-file internal forwarding against a
	// same-cycle writeback.
	Rs1Value uint64
	Rs2Value uint64

	Rd  uint8
	Rs1 uint8
	Rs2 uint8

	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool
	Branch   bool
	Jump     bool
}

// EXMEMRegister holds state latched between Execute and Memory.
type EXMEMRegister struct {
	Valid bool

	PC   uint64
	Inst *insts.Instruction

	// ALUResult is the ALU output, a computed memory address, or a
	// jump-and-link return address, depending on Inst.
	ALUResult uint64

	Rd uint8

	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool

	// BranchTaken and BranchTarget are set when Inst resolves a taken
	// branch or an unconditional jump in this cycle, driving the pipeline's
	// two-bubble flush.
	BranchTaken  bool
	BranchTarget uint64
}

// MEMWBRegister holds state latched between Memory and Writeback.
type MEMWBRegister struct {
	Valid bool

	PC   uint64
	Inst *insts.Instruction

	// ALUResult is carried through for non-memory instructions.
	ALUResult uint64

	// MemData is the sign/zero-extended result of a completed load.
	MemData uint64

	Rd uint8

	RegWrite bool
	MemToReg bool
}

// Clear resets the register to an invalid bubble.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// Clear resets the register to an invalid bubble.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// Clear resets the register to an invalid bubble.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// Clear resets the register to an invalid bubble.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}
