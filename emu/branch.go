package emu

import "github.com/rv64sim/rv64sim/insts"

// EvalBranch evaluates a BRANCH-format instruction's condition against its
// two register operands (already read, and already forwarded if the caller
// is the pipelined engine) and reports whether the branch is taken.
func EvalBranch(op insts.AluOp, a, b uint64) bool {
	switch op {
	case insts.OpBeq:
		return a == b
	case insts.OpBne:
		return a != b
	case insts.OpBlt:
		return int64(a) < int64(b)
	case insts.OpBge:
		return int64(a) >= int64(b)
	case insts.OpBltu:
		return a < b
	case insts.OpBgeu:
		return a >= b
	default:
		return false
	}
}

// BranchTarget computes the PC-relative target for a taken BRANCH or for an
// unconditional JAL: pc + imm.
func BranchTarget(pc, imm uint64) uint64 {
	return pc + imm
}

// JalrTarget computes a JALR target: (regval1 + imm) with bit 0 cleared, per
// the RV64I indirect-jump encoding rule.
func JalrTarget(rs1Val, imm uint64) uint64 {
	return (rs1Val + imm) &^ 1
}
