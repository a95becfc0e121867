package insts

import "fmt"

// DecodeError reports an unrecognized primary opcode, an unrecognized
// funct3/funct7/funct6 field within a recognized opcode class, or an
// encoding from a reserved/unimplemented class (LOAD_FP, STORE_FP, AMO,
// MADD/MSUB/NMSUB/NMADD, OP_FP, MISC_MEM). DecodeError is fatal: it is
// never silently downgraded to a pass-through no-op.
type DecodeError struct {
	PC     uint64
	Word   uint32
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error at pc=0x%x word=0x%08x: %s", e.PC, e.Word, e.Reason)
}

// Primary opcode field, bits [6:0].
const (
	opcLoad    = 0b0000011
	opcLoadFP  = 0b0000111
	opcMiscMem = 0b0001111
	opcOpImm   = 0b0010011
	opcAuipc   = 0b0010111
	opcOpImm32 = 0b0011011
	opcStore   = 0b0100011
	opcStoreFP = 0b0100111
	opcAmo     = 0b0101111
	opcOp      = 0b0110011
	opcLui     = 0b0110111
	opcOp32    = 0b0111011
	opcMadd    = 0b1000011
	opcMsub    = 0b1000111
	opcNmsub   = 0b1001011
	opcNmadd   = 0b1001111
	opcOpFP    = 0b1010011
	opcBranch  = 0b1100011
	opcJalr    = 0b1100111
	opcJal     = 0b1101111
	opcSystem  = 0b1110011
)

// Decoder decodes RV64IM machine code into Instruction records. It is a
// pure function of (word, pc); it owns all immediate extraction and is the
// only place in the engine that inspects raw encoding bits.
type Decoder struct{}

// NewDecoder creates a new RV64IM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode maps a 32-bit instruction word fetched from pc onto a uniform
// Instruction record, or returns a DecodeError for an unknown or reserved
// encoding.
func (d *Decoder) Decode(word uint32, pc uint64) (*Instruction, error) {
	opcode := word & 0x7f

	switch opcode {
	case opcLoad:
		return d.decodeLoad(word, pc)
	case opcOpImm:
		return d.decodeOpImm(word, pc)
	case opcAuipc:
		return d.decodeAuipc(word, pc)
	case opcOpImm32:
		return d.decodeOpImm32(word, pc)
	case opcStore:
		return d.decodeStore(word, pc)
	case opcOp:
		return d.decodeOp(word, pc)
	case opcLui:
		return d.decodeLui(word, pc)
	case opcOp32:
		return d.decodeOp32(word, pc)
	case opcBranch:
		return d.decodeBranch(word, pc)
	case opcJalr:
		return d.decodeJalr(word, pc)
	case opcJal:
		return d.decodeJal(word, pc)
	case opcSystem:
		return d.decodeSystem(word, pc)
	case opcLoadFP, opcStoreFP, opcAmo, opcMadd, opcMsub, opcNmsub, opcNmadd, opcOpFP, opcMiscMem:
		return nil, &DecodeError{PC: pc, Word: word, Reason: fmt.Sprintf("reserved opcode class 0x%02x is not implemented by this core", opcode)}
	default:
		return nil, &DecodeError{PC: pc, Word: word, Reason: fmt.Sprintf("unrecognized primary opcode 0x%02x", opcode)}
	}
}

func rd(word uint32) uint8     { return uint8((word >> 7) & 0x1f) }
func funct3(word uint32) uint8 { return uint8((word >> 12) & 0x7) }
func rs1(word uint32) uint8    { return uint8((word >> 15) & 0x1f) }
func rs2(word uint32) uint8    { return uint8((word >> 20) & 0x1f) }
func funct7(word uint32) uint8 { return uint8((word >> 25) & 0x7f) }
func funct6(word uint32) uint8 { return uint8((word >> 26) & 0x3f) }
func shamt6(word uint32) uint8 { return uint8((word >> 20) & 0x3f) }
func shamt5(word uint32) uint8 { return uint8((word >> 20) & 0x1f) }

// immI sign-extends the I-type immediate: inst[31:20].
func immI(word uint32) uint64 {
	return uint64(int64(int32(word) >> 20))
}

// immS sign-extends the S-type immediate: inst[31:25]|inst[11:7].
func immS(word uint32) uint64 {
	hi := (word >> 25) & 0x7f
	lo := (word >> 7) & 0x1f
	raw := (hi << 5) | lo
	return signExtend(uint64(raw), 12)
}

// immB sign-extends the SB-type immediate: inst[31|7|30:25|11:8], low bit 0.
func immB(word uint32) uint64 {
	b12 := (word >> 31) & 0x1
	b11 := (word >> 7) & 0x1
	b10_5 := (word >> 25) & 0x3f
	b4_1 := (word >> 8) & 0xf
	raw := (b12 << 12) | (b11 << 11) | (b10_5 << 5) | (b4_1 << 1)
	return signExtend(uint64(raw), 13)
}

// immU takes the U-type immediate: inst[31:12] in the top bits, low 12 bits
// zero, sign-extended to 64 bits (bit 31 of the encoding is the sign bit).
func immU(word uint32) uint64 {
	return uint64(int64(int32(word & 0xfffff000)))
}

// immJ sign-extends the UJ-type immediate: inst[31|19:12|20|30:21], low bit 0.
func immJ(word uint32) uint64 {
	b20 := (word >> 31) & 0x1
	b19_12 := (word >> 12) & 0xff
	b11 := (word >> 20) & 0x1
	b10_1 := (word >> 21) & 0x3ff
	raw := (b20 << 20) | (b19_12 << 12) | (b11 << 11) | (b10_1 << 1)
	return signExtend(uint64(raw), 21)
}

// signExtend sign-extends the low bits-wide field of v to 64 bits.
func signExtend(v uint64, bits uint) uint64 {
	shift := 64 - bits
	return uint64(int64(v<<shift) >> shift)
}

func (d *Decoder) decodeLoad(word uint32, pc uint64) (*Instruction, error) {
	inst := &Instruction{PC: pc, Sext: SextI, AluSrc: true, MemRead: true, MemToReg: true,
		Rs1: rs1(word), Rd: rd(word), Imm: immI(word), Funct3: funct3(word)}
	switch funct3(word) {
	case 0b000:
		inst.AluOp = OpLb
	case 0b001:
		inst.AluOp = OpLh
	case 0b010:
		inst.AluOp = OpLw
	case 0b011:
		inst.AluOp = OpLd
	case 0b100:
		inst.AluOp = OpLbu
	case 0b101:
		inst.AluOp = OpLhu
	case 0b110:
		inst.AluOp = OpLwu
	default:
		return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized LOAD funct3"}
	}
	inst.RegWrite = inst.Rd != 0
	return inst, nil
}

func (d *Decoder) decodeOpImm(word uint32, pc uint64) (*Instruction, error) {
	inst := &Instruction{PC: pc, Sext: SextI, AluSrc: true, Rs1: rs1(word), Rd: rd(word), Funct3: funct3(word)}
	switch funct3(word) {
	case 0b000:
		inst.AluOp, inst.Imm = OpAddi, immI(word)
	case 0b010:
		inst.AluOp, inst.Imm = OpSlti, immI(word)
	case 0b011:
		inst.AluOp, inst.Imm = OpSltiu, immI(word)
	case 0b100:
		inst.AluOp, inst.Imm = OpXori, immI(word)
	case 0b110:
		inst.AluOp, inst.Imm = OpOri, immI(word)
	case 0b111:
		inst.AluOp, inst.Imm = OpAndi, immI(word)
	case 0b001:
		if funct6(word) != 0b000000 {
			return nil, &DecodeError{PC: pc, Word: word, Reason: "slli requires funct6=0"}
		}
		inst.AluOp, inst.Imm = OpSlli, uint64(shamt6(word))
	case 0b101:
		switch funct6(word) {
		case 0b000000:
			inst.AluOp = OpSrli
		case 0b010000:
			inst.AluOp = OpSrai
		default:
			return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized srli/srai funct6"}
		}
		inst.Imm = uint64(shamt6(word))
	default:
		return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized OP_IMM funct3"}
	}
	inst.RegWrite = inst.Rd != 0
	return inst, nil
}

func (d *Decoder) decodeOpImm32(word uint32, pc uint64) (*Instruction, error) {
	inst := &Instruction{PC: pc, Sext: SextI, AluSrc: true, Rs1: rs1(word), Rd: rd(word), Funct3: funct3(word)}
	switch funct3(word) {
	case 0b000:
		inst.AluOp, inst.Imm = OpAddiw, immI(word)
	case 0b001:
		if funct7(word) != 0b0000000 {
			return nil, &DecodeError{PC: pc, Word: word, Reason: "slliw requires funct7=0"}
		}
		inst.AluOp, inst.Imm = OpSlliw, uint64(shamt5(word))
	case 0b101:
		switch funct7(word) {
		case 0b0000000:
			inst.AluOp = OpSrliw
		case 0b0100000:
			inst.AluOp = OpSraiw
		default:
			return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized srliw/sraiw funct7"}
		}
		inst.Imm = uint64(shamt5(word))
	default:
		return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized OP_IMM_32 funct3"}
	}
	inst.RegWrite = inst.Rd != 0
	return inst, nil
}

func (d *Decoder) decodeOp(word uint32, pc uint64) (*Instruction, error) {
	inst := &Instruction{PC: pc, Sext: SextNone, AluSrc: false, Rs1: rs1(word), Rs2: rs2(word), Rd: rd(word), Funct3: funct3(word)}
	f7 := funct7(word)
	switch f7 {
	case 0b0000000:
		switch funct3(word) {
		case 0b000:
			inst.AluOp = OpAdd
		case 0b001:
			inst.AluOp = OpSll
		case 0b010:
			inst.AluOp = OpSlt
		case 0b011:
			inst.AluOp = OpSltu
		case 0b100:
			inst.AluOp = OpXor
		case 0b101:
			inst.AluOp = OpSrl
		case 0b110:
			inst.AluOp = OpOr
		case 0b111:
			inst.AluOp = OpAnd
		}
	case 0b0100000:
		switch funct3(word) {
		case 0b000:
			inst.AluOp = OpSub
		case 0b101:
			inst.AluOp = OpSra
		default:
			return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized OP funct3 for funct7=0100000"}
		}
	case 0b0000001:
		switch funct3(word) {
		case 0b000:
			inst.AluOp = OpMul
		case 0b001:
			inst.AluOp = OpMulh
		case 0b010:
			inst.AluOp = OpMulhsu
		case 0b011:
			inst.AluOp = OpMulhu
		case 0b100:
			inst.AluOp = OpDiv
		case 0b101:
			inst.AluOp = OpDivu
		case 0b110:
			inst.AluOp = OpRem
		case 0b111:
			inst.AluOp = OpRemu
		}
	default:
		return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized OP funct7"}
	}
	inst.RegWrite = inst.Rd != 0
	return inst, nil
}

func (d *Decoder) decodeOp32(word uint32, pc uint64) (*Instruction, error) {
	inst := &Instruction{PC: pc, Sext: SextNone, AluSrc: false, Rs1: rs1(word), Rs2: rs2(word), Rd: rd(word), Funct3: funct3(word)}
	switch funct7(word) {
	case 0b0000000:
		switch funct3(word) {
		case 0b000:
			inst.AluOp = OpAddw
		case 0b001:
			inst.AluOp = OpSllw
		case 0b101:
			inst.AluOp = OpSrlw
		default:
			return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized OP_32 funct3 for funct7=0"}
		}
	case 0b0100000:
		switch funct3(word) {
		case 0b000:
			inst.AluOp = OpSubw
		case 0b101:
			inst.AluOp = OpSraw
		default:
			return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized OP_32 funct3 for funct7=0100000"}
		}
	case 0b0000001:
		switch funct3(word) {
		case 0b000:
			inst.AluOp = OpMulw
		case 0b100:
			inst.AluOp = OpDivw
		case 0b101:
			inst.AluOp = OpDivuw
		case 0b110:
			inst.AluOp = OpRemw
		case 0b111:
			inst.AluOp = OpRemuw
		default:
			return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized OP_32 funct3 for funct7=1"}
		}
	default:
		return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized OP_32 funct7"}
	}
	inst.RegWrite = inst.Rd != 0
	return inst, nil
}

func (d *Decoder) decodeLui(word uint32, pc uint64) (*Instruction, error) {
	inst := &Instruction{PC: pc, Sext: SextU, AluSrc: true, AluOp: OpLui, Rd: rd(word), Imm: immU(word)}
	inst.RegWrite = inst.Rd != 0
	return inst, nil
}

func (d *Decoder) decodeAuipc(word uint32, pc uint64) (*Instruction, error) {
	inst := &Instruction{PC: pc, Sext: SextU, AluSrc: true, AluOp: OpAuipc, Rd: rd(word), Imm: immU(word)}
	inst.RegWrite = inst.Rd != 0
	return inst, nil
}

func (d *Decoder) decodeStore(word uint32, pc uint64) (*Instruction, error) {
	inst := &Instruction{PC: pc, Sext: SextS, AluSrc: true, MemWrite: true,
		Rs1: rs1(word), Rs2: rs2(word), Imm: immS(word), Funct3: funct3(word)}
	switch funct3(word) {
	case 0b000:
		inst.AluOp = OpSb
	case 0b001:
		inst.AluOp = OpSh
	case 0b010:
		inst.AluOp = OpSw
	case 0b011:
		inst.AluOp = OpSd
	default:
		return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized STORE funct3"}
	}
	return inst, nil
}

func (d *Decoder) decodeBranch(word uint32, pc uint64) (*Instruction, error) {
	inst := &Instruction{PC: pc, Sext: SextB, AluSrc: false, Branch: true,
		Rs1: rs1(word), Rs2: rs2(word), Imm: immB(word), Funct3: funct3(word)}
	switch funct3(word) {
	case 0b000:
		inst.AluOp = OpBeq
	case 0b001:
		inst.AluOp = OpBne
	case 0b100:
		inst.AluOp = OpBlt
	case 0b101:
		inst.AluOp = OpBge
	case 0b110:
		inst.AluOp = OpBltu
	case 0b111:
		inst.AluOp = OpBgeu
	default:
		return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized BRANCH funct3"}
	}
	return inst, nil
}

func (d *Decoder) decodeJalr(word uint32, pc uint64) (*Instruction, error) {
	if funct3(word) != 0 {
		return nil, &DecodeError{PC: pc, Word: word, Reason: "JALR requires funct3=0"}
	}
	inst := &Instruction{PC: pc, Sext: SextI, AluSrc: true, Jump: true, AluOp: OpJalr,
		Rs1: rs1(word), Rd: rd(word), Imm: immI(word)}
	inst.RegWrite = inst.Rd != 0
	return inst, nil
}

func (d *Decoder) decodeJal(word uint32, pc uint64) (*Instruction, error) {
	inst := &Instruction{PC: pc, Sext: SextJ, AluSrc: true, Jump: true, AluOp: OpJal,
		Rd: rd(word), Imm: immJ(word)}
	inst.RegWrite = inst.Rd != 0
	return inst, nil
}

func (d *Decoder) decodeSystem(word uint32, pc uint64) (*Instruction, error) {
	f3 := funct3(word)
	if f3 == 0b000 {
		imm := (word >> 20) & 0xfff
		inst := &Instruction{PC: pc, Sext: SextNone}
		switch imm {
		case 0:
			inst.AluOp = OpEcall
		case 1:
			inst.AluOp = OpEbreak
		default:
			return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized SYSTEM immediate for funct3=0"}
		}
		return inst, nil
	}

	inst := &Instruction{PC: pc, Sext: SextNone, Rs1: rs1(word), Rd: rd(word),
		CSR: uint16((word >> 20) & 0xfff), Funct3: f3}
	switch f3 {
	case 0b001:
		inst.AluOp = OpCsrrw
	case 0b010:
		inst.AluOp = OpCsrrs
	case 0b011:
		inst.AluOp = OpCsrrc
	case 0b101:
		inst.AluOp = OpCsrrwi
	case 0b110:
		inst.AluOp = OpCsrrsi
	case 0b111:
		inst.AluOp = OpCsrrci
	default:
		return nil, &DecodeError{PC: pc, Word: word, Reason: "unrecognized SYSTEM/CSR funct3"}
	}
	inst.RegWrite = inst.Rd != 0
	return inst, nil
}
