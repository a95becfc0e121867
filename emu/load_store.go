package emu

import "github.com/rv64sim/rv64sim/insts"

// LoadSize returns the access width in bytes for a LOAD-format AluOp.
func LoadSize(op insts.AluOp) int {
	switch op {
	case insts.OpLb, insts.OpLbu:
		return 1
	case insts.OpLh, insts.OpLhu:
		return 2
	case insts.OpLw, insts.OpLwu:
		return 4
	case insts.OpLd:
		return 8
	default:
		return 0
	}
}

// StoreSize returns the access width in bytes for a STORE-format AluOp.
func StoreSize(op insts.AluOp) int {
	switch op {
	case insts.OpSb:
		return 1
	case insts.OpSh:
		return 2
	case insts.OpSw:
		return 4
	case insts.OpSd:
		return 8
	default:
		return 0
	}
}

// ExtendLoad takes the raw little-endian bytes a sized read produced (as a
// zero-extended uint64 from Memory.ReadSized) and applies the load
// instruction's own extension rule: lb/lh/lw sign-extend, lbu/lhu/lwu/ld
// zero-extend (ld never needs extending — it is already 64 bits wide).
func ExtendLoad(op insts.AluOp, raw uint64) uint64 {
	switch op {
	case insts.OpLb:
		return uint64(int64(int8(raw)))
	case insts.OpLh:
		return uint64(int64(int16(raw)))
	case insts.OpLw:
		return uint64(int64(int32(raw)))
	default:
		// lbu, lhu, lwu, ld: Memory.ReadSized already zero-extends.
		return raw
	}
}

// Load reads the value a LOAD-format instruction addresses, applying its
// sign/zero-extension rule.
func Load(mem *Memory, op insts.AluOp, addr uint64) uint64 {
	return ExtendLoad(op, mem.ReadSized(addr, LoadSize(op)))
}

// Store writes the low StoreSize(op) bytes of value at addr.
func Store(mem *Memory, op insts.AluOp, addr, value uint64) {
	mem.WriteSized(addr, StoreSize(op), value)
}
