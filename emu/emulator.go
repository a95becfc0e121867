package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/rv64sim/rv64sim/insts"
)

// StepResult reports the outcome of executing a single instruction.
type StepResult struct {
	// Exited is true once an ebreak has halted the program.
	Exited bool

	// ExitCode is REG[10] (a0) at the point ebreak executed.
	ExitCode int64

	// Err is set if fetch, decode, or execution faulted.
	Err error
}

// Emulator is a single-cycle RV64IM reference interpreter: it executes one
// instruction to completion per Step call, with no pipelining, hazards, or
// stalls. It exists to cross-check the pipelined engine in package
// timing/pipeline against the same decoder and ALU: both consume
// insts.Decoder output and emu.Execute, so architectural state after N
// instructions must agree between the two engines.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder
	env     *Environment

	stdout io.Writer
	stderr io.Writer

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption configures an Emulator at construction time.
type EmulatorOption func(*Emulator)

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) EmulatorOption {
	return func(e *Emulator) { e.stdout = w }
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) EmulatorOption {
	return func(e *Emulator) { e.stderr = w }
}

// WithMaxInstructions bounds the number of instructions Run will execute
// before giving up. Zero means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) { e.maxInstructions = max }
}

// NewEmulator creates a single-cycle RV64IM emulator with an empty register
// file and memory.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		memory:  NewMemory(),
		decoder: insts.NewDecoder(),
		env:     NewEnvironment(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile { return e.regFile }

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory { return e.memory }

// InstructionCount returns the number of instructions executed so far.
func (e *Emulator) InstructionCount() uint64 { return e.instructionCount }

// SetEntry sets the program counter to entry, the usual first step after
// loading a program into Memory.
func (e *Emulator) SetEntry(entry uint64) { e.regFile.PC = entry }

// Step fetches, decodes, and executes one instruction.
func (e *Emulator) Step() (result StepResult) {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: fmt.Errorf("max instructions reached")}
	}

	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*MemoryFault)
			if !ok {
				panic(r)
			}
			result = StepResult{Err: f}
		}
	}()

	pc := e.regFile.PC
	word := e.memory.Read32(pc)

	inst, err := e.decoder.Decode(word, pc)
	if err != nil {
		return StepResult{Err: err}
	}

	result = e.execute(inst)
	e.instructionCount++
	return result
}

// Run executes instructions until ebreak halts the program or an error
// occurs, returning the exit code (-1 on error).
func (e *Emulator) Run() int64 {
	for {
		result := e.Step()
		if result.Exited {
			return result.ExitCode
		}
		if result.Err != nil {
			_, _ = fmt.Fprintf(e.stderr, "execution error: %v\n", result.Err)
			return -1
		}
	}
}

// execute carries out the decoded instruction against register and memory
// state, returning its StepResult and leaving regFile.PC pointing at the
// next instruction to fetch.
func (e *Emulator) execute(inst *insts.Instruction) StepResult {
	switch inst.AluOp {
	case insts.OpEbreak:
		return StepResult{Exited: true, ExitCode: int64(e.regFile.ReadReg(10))}

	case insts.OpEcall:
		e.env.Ecall(e.regFile)
		e.regFile.PC += 4
		return StepResult{}

	case insts.OpCsrrw, insts.OpCsrrs, insts.OpCsrrc, insts.OpCsrrwi, insts.OpCsrrsi, insts.OpCsrrci:
		e.executeCSR(inst)
		e.regFile.PC += 4
		return StepResult{}

	case insts.OpJal:
		link := inst.PC + 4
		target := BranchTarget(inst.PC, inst.Imm)
		e.regFile.WriteReg(inst.Rd, link)
		e.regFile.PC = target
		return StepResult{}

	case insts.OpJalr:
		link := inst.PC + 4
		rs1Val := e.regFile.ReadReg(inst.Rs1)
		target := JalrTarget(rs1Val, inst.Imm)
		e.regFile.WriteReg(inst.Rd, link)
		e.regFile.PC = target
		return StepResult{}
	}

	if inst.Branch {
		a := e.regFile.ReadReg(inst.Rs1)
		b := e.regFile.ReadReg(inst.Rs2)
		if EvalBranch(inst.AluOp, a, b) {
			e.regFile.PC = BranchTarget(inst.PC, inst.Imm)
		} else {
			e.regFile.PC += 4
		}
		return StepResult{}
	}

	if inst.MemWrite {
		base := e.regFile.ReadReg(inst.Rs1)
		addr := base + inst.Imm
		Store(e.memory, inst.AluOp, addr, e.regFile.ReadReg(inst.Rs2))
		e.regFile.PC += 4
		return StepResult{}
	}

	if inst.MemRead {
		base := e.regFile.ReadReg(inst.Rs1)
		addr := base + inst.Imm
		e.regFile.WriteReg(inst.Rd, Load(e.memory, inst.AluOp, addr))
		e.regFile.PC += 4
		return StepResult{}
	}

	if inst.AluOp == insts.OpLui {
		e.regFile.WriteReg(inst.Rd, inst.Imm)
		e.regFile.PC += 4
		return StepResult{}
	}

	if inst.AluOp == insts.OpAuipc {
		e.regFile.WriteReg(inst.Rd, inst.PC+inst.Imm)
		e.regFile.PC += 4
		return StepResult{}
	}

	a := e.regFile.ReadReg(inst.Rs1)
	var b uint64
	if inst.AluSrc {
		b = inst.Imm
	} else {
		b = e.regFile.ReadReg(inst.Rs2)
	}
	if inst.RegWrite {
		e.regFile.WriteReg(inst.Rd, Execute(inst.AluOp, a, b))
	}
	e.regFile.PC += 4
	return StepResult{}
}

func (e *Emulator) executeCSR(inst *insts.Instruction) {
	old := e.env.ReadCSR(inst.CSR)

	var src uint64
	switch inst.AluOp {
	case insts.OpCsrrwi, insts.OpCsrrsi, insts.OpCsrrci:
		src = uint64(inst.Rs1)
	default:
		src = e.regFile.ReadReg(inst.Rs1)
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
		e.env.WriteCSR(inst.CSR, next)
	}
	if inst.Rd != 0 {
		e.regFile.WriteReg(inst.Rd, old)
	}
}
