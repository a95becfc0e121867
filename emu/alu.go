package emu

import (
	"math/bits"

	"github.com/rv64sim/rv64sim/insts"
)

// Execute performs the RV64IM integer/shift operation named by op on
// operands a and b, returning the 64-bit result. It is a pure function of
// its inputs: no register or memory state is touched, which lets both the
// pipelined execute stage (post-forwarding operands) and the single-cycle
// reference interpreter share one implementation of RISC-V ALU semantics.
func Execute(op insts.AluOp, a, b uint64) uint64 {
	switch op {
	case insts.OpAdd, insts.OpAddi:
		return a + b
	case insts.OpSub:
		return a - b
	case insts.OpSll, insts.OpSlli:
		return a << (b & 0x3f)
	case insts.OpSlt, insts.OpSlti:
		if int64(a) < int64(b) {
			return 1
		}
		return 0
	case insts.OpSltu, insts.OpSltiu:
		if a < b {
			return 1
		}
		return 0
	case insts.OpXor, insts.OpXori:
		return a ^ b
	case insts.OpSrl, insts.OpSrli:
		return a >> (b & 0x3f)
	case insts.OpSra, insts.OpSrai:
		return uint64(int64(a) >> (b & 0x3f))
	case insts.OpOr, insts.OpOri:
		return a | b
	case insts.OpAnd, insts.OpAndi:
		return a & b

	case insts.OpAddw, insts.OpAddiw:
		return signExtend32(uint32(a) + uint32(b))
	case insts.OpSubw:
		return signExtend32(uint32(a) - uint32(b))
	case insts.OpSllw, insts.OpSlliw:
		return signExtend32(uint32(a) << (uint32(b) & 0x1f))
	case insts.OpSrlw, insts.OpSrliw:
		return signExtend32(uint32(a) >> (uint32(b) & 0x1f))
	case insts.OpSraw, insts.OpSraiw:
		return signExtend32(uint32(int32(uint32(a)) >> (uint32(b) & 0x1f)))

	case insts.OpMul:
		return a * b
	case insts.OpMulh:
		return mulhSigned(int64(a), int64(b))
	case insts.OpMulhu:
		hi, _ := bits.Mul64(a, b)
		return hi
	case insts.OpMulhsu:
		return mulhSignedUnsigned(int64(a), b)
	case insts.OpDiv:
		return divSigned(int64(a), int64(b))
	case insts.OpDivu:
		return divUnsigned(a, b)
	case insts.OpRem:
		return remSigned(int64(a), int64(b))
	case insts.OpRemu:
		return remUnsigned(a, b)

	case insts.OpMulw:
		return signExtend32(uint32(a) * uint32(b))
	case insts.OpDivw:
		return signExtend32(uint32(divSigned(int64(int32(uint32(a))), int64(int32(uint32(b))))))
	case insts.OpDivuw:
		return signExtend32(uint32(divUnsigned(uint64(uint32(a)), uint64(uint32(b)))))
	case insts.OpRemw:
		return signExtend32(uint32(remSigned(int64(int32(uint32(a))), int64(int32(uint32(b))))))
	case insts.OpRemuw:
		return signExtend32(uint32(remUnsigned(uint64(uint32(a)), uint64(uint32(b)))))

	case insts.OpLui:
		return b
	case insts.OpAuipc, insts.OpJal, insts.OpJalr:
		return a + b

	default:
		return 0
	}
}

func signExtend32(v uint32) uint64 {
	return uint64(int64(int32(v)))
}

// mulhSigned computes the high 64 bits of the signed*signed 128-bit product.
func mulhSigned(a, b int64) uint64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	hi -= uint64(a>>63) & uint64(b)
	hi -= uint64(b>>63) & uint64(a)
	return hi
}

// mulhSignedUnsigned computes the high 64 bits of the signed(a)*unsigned(b) product.
func mulhSignedUnsigned(a int64, b uint64) uint64 {
	hi, _ := bits.Mul64(uint64(a), b)
	hi -= uint64(a>>63) & b
	return hi
}

// divSigned implements RV64 signed division: divide-by-zero yields -1;
// MIN/-1 overflow yields MIN, matching RISC-V semantics (no trap).
func divSigned(a, b int64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	if a == minInt64 && b == -1 {
		return uint64(a)
	}
	return uint64(a / b)
}

// remSigned implements RV64 signed remainder: divide-by-zero yields the
// dividend; MIN/-1 overflow yields 0.
func remSigned(a, b int64) uint64 {
	if b == 0 {
		return uint64(a)
	}
	if a == minInt64 && b == -1 {
		return 0
	}
	return uint64(a % b)
}

func divUnsigned(a, b uint64) uint64 {
	if b == 0 {
		return ^uint64(0)
	}
	return a / b
}

func remUnsigned(a, b uint64) uint64 {
	if b == 0 {
		return a
	}
	return a % b
}

const minInt64 = -1 << 63
