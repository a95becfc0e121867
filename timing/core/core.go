// Package core wraps the pipelined engine with the narrow, read-mostly
// interface an interactive debugger front-end drives: step one cycle, run to
// completion or a cycle limit, and inspect architectural state between
// cycles. The register file and memory remain owned by the engine; Core
// grants the debugger read-only accessors and a single mutation path
// (stepping).
package core

import (
	"fmt"

	"github.com/rv64sim/rv64sim/emu"
	"github.com/rv64sim/rv64sim/timing/pipeline"
)

// Stats holds performance statistics for the core.
type Stats struct {
	Cycles       uint64
	Instructions uint64
	Stalls       uint64
	Branches     uint64
	Flushes      uint64
	CPI          float64
}

// Core is a cycle-accurate RV64IM core: a 5-stage pipeline plus the register
// file and memory it operates on.
type Core struct {
	Pipeline *pipeline.Pipeline

	regFile *emu.RegFile
	memory  *emu.Memory
}

// NewCore creates a Core driving regFile and memory.
func NewCore(regFile *emu.RegFile, memory *emu.Memory) *Core {
	return &Core{
		Pipeline: pipeline.NewPipeline(regFile, memory),
		regFile:  regFile,
		memory:   memory,
	}
}

// SetPC sets the program counter (entry point).
func (c *Core) SetPC(pc uint64) {
	c.Pipeline.SetPC(pc)
}

// PC returns the architectural PC: the address IF will fetch next.
func (c *Core) PC() uint64 {
	return c.Pipeline.PC()
}

// RegValByName resolves a register by ABI name ("a0", "sp"), numeric name
// ("x10"), or "pc", for debugger display.
func (c *Core) RegValByName(name string) (uint64, error) {
	v, ok := c.regFile.RegByName(name)
	if !ok {
		return 0, fmt.Errorf("no such register: %q", name)
	}
	return v, nil
}

// MRead8 reads one byte from memory.
func (c *Core) MRead8(vaddr uint64) uint8 { return c.memory.Read8(vaddr) }

// MRead16 reads a little-endian halfword from memory.
func (c *Core) MRead16(vaddr uint64) uint16 { return c.memory.Read16(vaddr) }

// MRead32 reads a little-endian word from memory.
func (c *Core) MRead32(vaddr uint64) uint32 { return c.memory.Read32(vaddr) }

// MRead64 reads a little-endian doubleword from memory.
func (c *Core) MRead64(vaddr uint64) uint64 { return c.memory.Read64(vaddr) }

// ExecOnce advances the core by one cycle.
func (c *Core) ExecOnce() {
	c.Pipeline.Tick()
}

// CPUExec runs until halt or until limit cycles have elapsed (limit == 0
// means no limit), returning whether the core is still running.
func (c *Core) CPUExec(limit uint64) bool {
	if limit == 0 {
		c.Pipeline.Run()
		return !c.Pipeline.Halted()
	}
	return c.Pipeline.RunCycles(limit)
}

// Backtrace enumerates saved return addresses, most recent call last. Shape
// is best-effort and purely diagnostic.
func (c *Core) Backtrace() []uint64 {
	return c.Pipeline.Backtrace()
}

// Halted reports whether the core has stopped.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// ExitCode returns the exit code once Halted is true.
func (c *Core) ExitCode() int64 {
	return c.Pipeline.ExitCode()
}

// Fault returns the decode or memory fault that halted the core, if any.
func (c *Core) Fault() error {
	return c.Pipeline.Fault()
}

// Stats returns performance counters for the core.
func (c *Core) Stats() Stats {
	s := c.Pipeline.Stats()
	return Stats{
		Cycles:       s.Cycles,
		Instructions: s.Instructions,
		Stalls:       s.Stalls,
		Branches:     s.Branches,
		Flushes:      s.Flushes,
		CPI:          s.CPI,
	}
}

// Run executes the core until it halts, returning the exit code.
func (c *Core) Run() int64 {
	return c.Pipeline.Run()
}

// RunCycles executes up to n cycles, returning whether the core is still
// running.
func (c *Core) RunCycles(cycles uint64) bool {
	return c.Pipeline.RunCycles(cycles)
}

// Reset clears the pipeline's latches, counters and halt state and re-arms
// it at pc. The register file and memory are left untouched.
func (c *Core) Reset(pc uint64) {
	c.Pipeline.Reset(pc)
}
