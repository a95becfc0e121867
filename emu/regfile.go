// Package emu provides functional RV64IM emulation: the register file, flat
// memory, integer ALU, and a single-cycle reference interpreter used to
// cross-check the pipelined engine in package timing/pipeline.
package emu

// RegFile represents the RV64I general-purpose register file: 32 64-bit
// registers with x0 hardwired to zero, plus the program counter.
type RegFile struct {
	// X holds general-purpose registers x0-x31. X[0] always reads as zero;
	// writes to it are silently dropped.
	X [32]uint64

	// PC is the program counter.
	PC uint64
}

// ReadReg reads a register value. x0 always reads as 0.
func (r *RegFile) ReadReg(reg uint8) uint64 {
	if reg == 0 {
		return 0
	}
	return r.X[reg&0x1f]
}

// WriteReg writes a value to a register. Writes to x0 are silently dropped.
func (r *RegFile) WriteReg(reg uint8, value uint64) {
	if reg == 0 {
		return
	}
	r.X[reg&0x1f] = value
}

// abiNames gives each register's RISC-V calling-convention name, in x0..x31
// order, for debugger lookups by name.
var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegByName resolves a register by its ABI name (e.g. "a0", "sp"), its
// numeric name ("x10"), or "pc" for the program counter, reporting false if
// name matches none of these.
func (r *RegFile) RegByName(name string) (uint64, bool) {
	if name == "pc" {
		return r.PC, true
	}
	for i, n := range abiNames {
		if n == name {
			return r.ReadReg(uint8(i)), true
		}
	}
	if len(name) > 1 && name[0] == 'x' {
		n := 0
		for _, c := range name[1:] {
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + int(c-'0')
		}
		if n < 0 || n > 31 {
			return 0, false
		}
		return r.ReadReg(uint8(n)), true
	}
	return 0, false
}

// ReadReg32 reads the low 32 bits of a register.
func (r *RegFile) ReadReg32(reg uint8) uint32 {
	return uint32(r.ReadReg(reg))
}

// WriteReg32 writes a sign-extended 32-bit value to a register, as RV64's
// word-width (*w) instructions do.
func (r *RegFile) WriteReg32(reg uint8, value uint32) {
	r.WriteReg(reg, uint64(int64(int32(value))))
}
