package pipeline

import (
	"github.com/rv64sim/rv64sim/emu"
	"github.com/rv64sim/rv64sim/insts"
)

// FetchStage reads the instruction word at a given PC.
type FetchStage struct {
	memory *emu.Memory
}

// NewFetchStage creates a fetch stage reading from memory.
func NewFetchStage(memory *emu.Memory) *FetchStage {
	return &FetchStage{memory: memory}
}

// Fetch reads the instruction word at pc.
func (s *FetchStage) Fetch(pc uint64) uint32 {
	return s.memory.Read32(pc)
}

// DecodeStage decodes a fetched word and reads its source operands.
type DecodeStage struct {
	regFile *emu.RegFile
	decoder *insts.Decoder
}

// NewDecodeStage creates a decode stage reading registers from regFile.
func NewDecodeStage(regFile *emu.RegFile) *DecodeStage {
	return &DecodeStage{regFile: regFile, decoder: insts.NewDecoder()}
}

// DecodeResult holds the outputs of decode: the control record plus the
// register-file reads (already subject to same-cycle internal forwarding,
// since RegFile.ReadReg/WriteReg operate on the same backing array within
// one Tick).
type DecodeResult struct {
	Inst *insts.Instruction
	Err  error

	Rs1Value uint64
	Rs2Value uint64
}

// Decode decodes word (fetched from pc) and reads its source registers.
func (s *DecodeStage) Decode(word uint32, pc uint64) DecodeResult {
	inst, err := s.decoder.Decode(word, pc)
	if err != nil {
		return DecodeResult{Err: err}
	}
	return DecodeResult{
		Inst:     inst,
		Rs1Value: s.regFile.ReadReg(inst.Rs1),
		Rs2Value: s.regFile.ReadReg(inst.Rs2),
	}
}

// ExecuteStage performs ALU computation, branch resolution, and address
// calculation.
type ExecuteStage struct{}

// NewExecuteStage creates an execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{}
}

// ExecuteResult holds the outputs of execute.
type ExecuteResult struct {
	ALUResult uint64

	BranchTaken  bool
	BranchTarget uint64
}

// Execute computes this cycle's ALU/address/branch result for the
// instruction latched in idex, given its two operands post-forwarding.
func (s *ExecuteStage) Execute(idex *IDEXRegister, rs1Val, rs2Val uint64) ExecuteResult {
	var result ExecuteResult
	inst := idex.Inst
	if inst == nil {
		return result
	}

	switch inst.AluOp {
	case insts.OpJal:
		result.BranchTaken = true
		result.BranchTarget = emu.BranchTarget(idex.PC, inst.Imm)
		result.ALUResult = idex.PC + 4

	case insts.OpJalr:
		result.BranchTaken = true
		result.BranchTarget = emu.JalrTarget(rs1Val, inst.Imm)
		result.ALUResult = idex.PC + 4

	case insts.OpEcall, insts.OpEbreak:
		// No architectural effect at EX; WB observes ebreak directly off
		// the latched instruction and REG[10].

	case insts.OpCsrrw, insts.OpCsrrs, insts.OpCsrrc, insts.OpCsrrwi, insts.OpCsrrsi, insts.OpCsrrci:
		// CSR reads/writes are resolved in WB against the Environment; EX
		// has nothing to compute.

	default:
		if idex.Branch {
			taken := emu.EvalBranch(inst.AluOp, rs1Val, rs2Val)
			if taken {
				result.BranchTaken = true
				result.BranchTarget = emu.BranchTarget(idex.PC, inst.Imm)
			}
			break
		}

		operand2 := rs2Val
		if inst.AluSrc {
			operand2 = inst.Imm
		}

		switch inst.AluOp {
		case insts.OpLui:
			result.ALUResult = inst.Imm
		case insts.OpAuipc:
			result.ALUResult = idex.PC + inst.Imm
		default:
			result.ALUResult = emu.Execute(inst.AluOp, rs1Val, operand2)
		}

		if idex.MemRead || idex.MemWrite {
			result.ALUResult = rs1Val + inst.Imm
		}
	}

	return result
}

// MemoryStage performs the data memory access for load/store instructions.
type MemoryStage struct {
	regFile *emu.RegFile
	memory  *emu.Memory
}

// NewMemoryStage creates a memory stage operating on regFile and memory.
func NewMemoryStage(regFile *emu.RegFile, memory *emu.Memory) *MemoryStage {
	return &MemoryStage{regFile: regFile, memory: memory}
}

// MemoryResult holds the output of the memory stage.
type MemoryResult struct {
	MemData uint64
}

// Access performs the load or store latched in exmem. A store's data operand
// isn't needed until here, one stage later than the ALU operands read in EX,
// so it is read fresh from the register file rather than carried through
// EX/MEM: writeback for this same cycle has already run by the time Access
// runs, so a same-cycle producer is visible exactly like an older one.
func (s *MemoryStage) Access(exmem *EXMEMRegister) MemoryResult {
	var result MemoryResult
	if !exmem.Valid || exmem.Inst == nil {
		return result
	}

	switch {
	case exmem.MemRead:
		result.MemData = emu.Load(s.memory, exmem.Inst.AluOp, exmem.ALUResult)
	case exmem.MemWrite:
		storeValue := s.regFile.ReadReg(exmem.Inst.Rs2)
		emu.Store(s.memory, exmem.Inst.AluOp, exmem.ALUResult, storeValue)
	}

	return result
}

// WritebackStage commits a result to the register file.
type WritebackStage struct {
	regFile *emu.RegFile
	env     *emu.Environment
}

// NewWritebackStage creates a writeback stage operating on regFile.
func NewWritebackStage(regFile *emu.RegFile, env *emu.Environment) *WritebackStage {
	return &WritebackStage{regFile: regFile, env: env}
}

// EbreakHalt is returned by Writeback when an ebreak instruction reaches
// writeback, carrying its exit code (REG[10]).
type EbreakHalt struct {
	ExitCode int64
}

// Writeback commits memwb's result, if any, and reports an ebreak halt.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) *EbreakHalt {
	if !memwb.Valid || memwb.Inst == nil {
		return nil
	}

	if memwb.Inst.AluOp == insts.OpEbreak {
		return &EbreakHalt{ExitCode: int64(s.regFile.ReadReg(10))}
	}

	if isCSR(memwb.Inst.AluOp) {
		s.writebackCSR(memwb.Inst)
		return nil
	}

	if !memwb.RegWrite {
		return nil
	}

	if memwb.MemToReg {
		s.regFile.WriteReg(memwb.Rd, memwb.MemData)
	} else {
		s.regFile.WriteReg(memwb.Rd, memwb.ALUResult)
	}
	return nil
}

func isCSR(op insts.AluOp) bool {
	switch op {
	case insts.OpCsrrw, insts.OpCsrrs, insts.OpCsrrc, insts.OpCsrrwi, insts.OpCsrrsi, insts.OpCsrrci:
		return true
	default:
		return false
	}
}

// writebackCSR resolves a CSR instruction's read-modify-write in WB, the
// stage architectural state changes become visible, mirroring how every
// other instruction's register write is deferred to WB.
func (s *WritebackStage) writebackCSR(inst *insts.Instruction) {
	old := s.env.ReadCSR(inst.CSR)

	var src uint64
	switch inst.AluOp {
	case insts.OpCsrrwi, insts.OpCsrrsi, insts.OpCsrrci:
		src = uint64(inst.Rs1)
	default:
		src = s.regFile.ReadReg(inst.Rs1)
	}

	var next uint64
	write := true
	switch inst.AluOp {
	case insts.OpCsrrw, insts.OpCsrrwi:
		next = src
	case insts.OpCsrrs, insts.OpCsrrsi:
		next = old | src
		write = inst.Rs1 != 0
	case insts.OpCsrrc, insts.OpCsrrci:
		next = old &^ src
		write = inst.Rs1 != 0
	}
	if write {
		s.env.WriteCSR(inst.CSR, next)
	}
	if inst.Rd != 0 {
		s.regFile.WriteReg(inst.Rd, old)
	}
}
