// Package pipeline implements the classic RV64IM 5-stage design:
//   - Fetch (IF): read the instruction word from memory
//   - Decode (ID): decode the word, read source registers
//   - Execute (EX): ALU computation, address calculation, branch resolution
//   - Memory (MEM): load/store data memory access
//   - Writeback (WB): commit the result to the register file
//
// Stages are ticked in reverse (WB, MEM, EX, ID, IF) each cycle so that every
// stage reads the latch contents left by the previous cycle before any stage
// overwrites them. Data hazards are resolved by forwarding from EX/MEM and
// MEM/WB wherever possible; a load-use hazard that forwarding cannot resolve
// stalls IF and ID for one cycle and injects a bubble into EX. A taken branch
// or jump resolves in EX and flushes the two instructions fetched after it
// (predict-not-taken: there is never a branch predictor or speculative
// fetch past a conditional branch).
package pipeline

import (
	"github.com/rv64sim/rv64sim/emu"
	"github.com/rv64sim/rv64sim/insts"
)

// Pipeline is a 5-stage RV64IM instruction pipeline.
type Pipeline struct {
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	nextIfid  IFIDRegister
	nextIdex  IDEXRegister
	nextExmem EXMEMRegister
	nextMemwb MEMWBRegister

	hazardUnit *HazardUnit

	regFile *emu.RegFile
	memory  *emu.Memory
	env     *emu.Environment
	pc      uint64

	cycleCount       uint64
	instructionCount uint64
	stallCount       uint64
	branchCount      uint64
	flushCount       uint64

	halted   bool
	exitCode int64
	fault    error

	// backtrace is a best-effort call stack: jal with rd != 0 pushes the
	// link address, a jalr whose target matches the top entry pops it. It
	// is purely a debugging aid and never affects architectural state.
	backtrace []uint64
}

// NewPipeline creates a 5-stage pipeline driving regFile and memory.
func NewPipeline(regFile *emu.RegFile, memory *emu.Memory) *Pipeline {
	env := emu.NewEnvironment()
	return &Pipeline{
		fetchStage:     NewFetchStage(memory),
		decodeStage:    NewDecodeStage(regFile),
		executeStage:   NewExecuteStage(),
		memoryStage:    NewMemoryStage(regFile, memory),
		writebackStage: NewWritebackStage(regFile, env),
		hazardUnit:     NewHazardUnit(),
		regFile:        regFile,
		memory:         memory,
		env:            env,
	}
}

// SetPC sets the program counter (entry point).
func (p *Pipeline) SetPC(pc uint64) {
	p.pc = pc
	p.regFile.PC = pc
}

// PC returns the address IF will fetch next.
func (p *Pipeline) PC() uint64 { return p.pc }

// Halted reports whether the pipeline has stopped (ebreak reached WB, or a
// fault occurred).
func (p *Pipeline) Halted() bool { return p.halted }

// ExitCode returns the exit code once Halted is true.
func (p *Pipeline) ExitCode() int64 { return p.exitCode }

// Fault returns the decode or memory fault that halted the pipeline, if any.
func (p *Pipeline) Fault() error { return p.fault }

// Backtrace returns the current best-effort call stack of return addresses,
// most recent call last.
func (p *Pipeline) Backtrace() []uint64 {
	out := make([]uint64, len(p.backtrace))
	copy(out, p.backtrace)
	return out
}

// Stats reports pipeline performance counters.
type Stats struct {
	Cycles       uint64
	Instructions uint64
	Stalls       uint64
	Branches     uint64
	Flushes      uint64
	CPI          float64
}

// Stats returns the pipeline's performance counters.
func (p *Pipeline) Stats() Stats {
	s := Stats{
		Cycles:       p.cycleCount,
		Instructions: p.instructionCount,
		Stalls:       p.stallCount,
		Branches:     p.branchCount,
		Flushes:      p.flushCount,
	}
	if s.Instructions > 0 {
		s.CPI = float64(s.Cycles) / float64(s.Instructions)
	}
	return s
}

// Tick advances the pipeline by one cycle.
func (p *Pipeline) Tick() {
	if p.halted {
		return
	}

	p.cycleCount++

	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*emu.MemoryFault)
			if !ok {
				panic(r)
			}
			p.halted = true
			p.exitCode = -1
			p.fault = f
		}
	}()

	p.doWriteback()
	p.doMemory()
	branchTaken, branchTarget := p.doExecute()
	loadUseHazard, decodeHeld := p.doDecode()
	p.doFetch()

	if p.halted {
		return
	}

	stallResult := p.hazardUnit.ComputeStalls(loadUseHazard || decodeHeld, branchTaken)

	if (stallResult.StallIF || stallResult.StallID) && !decodeHeld {
		p.stallCount++
	}

	if stallResult.InsertBubbleEX {
		p.nextIdex.Clear()
	}

	if branchTaken {
		p.branchCount++
		p.flushCount++
		p.nextIfid.Clear()
		p.nextIdex.Clear()
		p.pc = branchTarget
	}

	if stallResult.StallIF {
		p.nextIfid = p.ifid
	}

	p.ifid = p.nextIfid
	p.idex = p.nextIdex
	p.exmem = p.nextExmem
	p.memwb = p.nextMemwb

	if !stallResult.StallIF && !branchTaken {
		p.pc += 4
	}
}

func (p *Pipeline) doFetch() {
	word := p.fetchStage.Fetch(p.pc)
	p.nextIfid.Valid = true
	p.nextIfid.PC = p.pc
	p.nextIfid.InstructionWord = word
}

// doDecode performs the decode stage and reports whether the instruction it
// decoded must stall for a load-use hazard against the load currently in
// ID/EX, and whether an undecodable word is being held in IF/ID because
// older instructions are still in flight.
func (p *Pipeline) doDecode() (loadUse, held bool) {
	if !p.ifid.Valid {
		p.nextIdex.Clear()
		return false, false
	}

	result := p.decodeStage.Decode(p.ifid.InstructionWord, p.ifid.PC)
	if result.Err != nil {
		if p.halted || p.idex.Valid || p.exmem.Valid {
			// An older instruction may still halt (ebreak) or redirect
			// (taken branch) the pipeline, so the decode fault is raised
			// only once nothing older remains in flight.
			return false, true
		}
		p.halted = true
		p.exitCode = -1
		p.fault = result.Err
		return false, false
	}
	inst := result.Inst

	usesRs1 := true
	usesRs2 := inst.MemWrite || inst.Branch || (inst.RegWrite && !inst.AluSrc)
	if p.hazardUnit.DetectLoadUseHazard(&p.idex, inst.Rs1, inst.Rs2, usesRs1, usesRs2) {
		return true, false
	}

	p.nextIdex.Valid = true
	p.nextIdex.PC = p.ifid.PC
	p.nextIdex.Inst = inst
	p.nextIdex.Rs1Value = result.Rs1Value
	p.nextIdex.Rs2Value = result.Rs2Value
	p.nextIdex.Rd = inst.Rd
	p.nextIdex.Rs1 = inst.Rs1
	p.nextIdex.Rs2 = inst.Rs2
	p.nextIdex.MemRead = inst.MemRead
	p.nextIdex.MemWrite = inst.MemWrite
	p.nextIdex.RegWrite = inst.RegWrite
	p.nextIdex.MemToReg = inst.MemToReg
	p.nextIdex.Branch = inst.Branch
	p.nextIdex.Jump = inst.Jump

	return false, false
}

func (p *Pipeline) doExecute() (branchTaken bool, branchTarget uint64) {
	if !p.idex.Valid {
		p.nextExmem.Clear()
		return false, 0
	}

	forwarding := p.hazardUnit.DetectForwarding(&p.idex, &p.exmem, &p.memwb)
	rs1Val := p.hazardUnit.ResolveOperand(forwarding.ForwardRs1, p.idex.Rs1Value, &p.exmem, &p.memwb)
	rs2Val := p.hazardUnit.ResolveOperand(forwarding.ForwardRs2, p.idex.Rs2Value, &p.exmem, &p.memwb)

	result := p.executeStage.Execute(&p.idex, rs1Val, rs2Val)

	p.nextExmem.Valid = true
	p.nextExmem.PC = p.idex.PC
	p.nextExmem.Inst = p.idex.Inst
	p.nextExmem.ALUResult = result.ALUResult
	p.nextExmem.Rd = p.idex.Rd
	p.nextExmem.MemRead = p.idex.MemRead
	p.nextExmem.MemWrite = p.idex.MemWrite
	p.nextExmem.RegWrite = p.idex.RegWrite
	p.nextExmem.MemToReg = p.idex.MemToReg
	p.nextExmem.BranchTaken = result.BranchTaken
	p.nextExmem.BranchTarget = result.BranchTarget

	p.trackBacktrace(p.idex.Inst, result)

	return result.BranchTaken, result.BranchTarget
}

func (p *Pipeline) trackBacktrace(inst *insts.Instruction, result ExecuteResult) {
	if inst == nil {
		return
	}
	switch inst.AluOp {
	case insts.OpJal:
		if inst.Rd != 0 {
			p.backtrace = append(p.backtrace, inst.PC+4)
		}
	case insts.OpJalr:
		if n := len(p.backtrace); n > 0 && result.BranchTarget == p.backtrace[n-1] {
			p.backtrace = p.backtrace[:n-1]
		}
	}
}

func (p *Pipeline) doMemory() {
	if !p.exmem.Valid {
		p.nextMemwb.Clear()
		return
	}

	result := p.memoryStage.Access(&p.exmem)

	p.nextMemwb.Valid = true
	p.nextMemwb.PC = p.exmem.PC
	p.nextMemwb.Inst = p.exmem.Inst
	p.nextMemwb.ALUResult = p.exmem.ALUResult
	p.nextMemwb.MemData = result.MemData
	p.nextMemwb.Rd = p.exmem.Rd
	p.nextMemwb.RegWrite = p.exmem.RegWrite
	p.nextMemwb.MemToReg = p.exmem.MemToReg
}

func (p *Pipeline) doWriteback() {
	if !p.memwb.Valid {
		return
	}

	if halt := p.writebackStage.Writeback(&p.memwb); halt != nil {
		p.halted = true
		p.exitCode = halt.ExitCode
	}
	p.instructionCount++
}

// Run executes the pipeline until it halts, returning the exit code.
func (p *Pipeline) Run() int64 {
	for !p.halted {
		p.Tick()
	}
	return p.exitCode
}

// RunCycles executes up to n cycles, stopping early if the pipeline halts.
// It reports whether the pipeline is still running.
func (p *Pipeline) RunCycles(n uint64) bool {
	for i := uint64(0); i < n && !p.halted; i++ {
		p.Tick()
	}
	return !p.halted
}

// GetIFID returns the current IF/ID latch contents for inspection.
func (p *Pipeline) GetIFID() IFIDRegister { return p.ifid }

// GetIDEX returns the current ID/EX latch contents for inspection.
func (p *Pipeline) GetIDEX() IDEXRegister { return p.idex }

// GetEXMEM returns the current EX/MEM latch contents for inspection.
func (p *Pipeline) GetEXMEM() EXMEMRegister { return p.exmem }

// GetMEMWB returns the current MEM/WB latch contents for inspection.
func (p *Pipeline) GetMEMWB() MEMWBRegister { return p.memwb }

// Reset clears all latches and counters and re-arms the pipeline at pc. The
// register file and memory are left untouched; callers that want a clean
// architectural state construct a new RegFile/Memory themselves.
func (p *Pipeline) Reset(pc uint64) {
	p.ifid.Clear()
	p.idex.Clear()
	p.exmem.Clear()
	p.memwb.Clear()
	p.nextIfid.Clear()
	p.nextIdex.Clear()
	p.nextExmem.Clear()
	p.nextMemwb.Clear()

	p.cycleCount = 0
	p.instructionCount = 0
	p.stallCount = 0
	p.branchCount = 0
	p.flushCount = 0

	p.halted = false
	p.exitCode = 0
	p.fault = nil
	p.backtrace = nil

	p.SetPC(pc)
}
