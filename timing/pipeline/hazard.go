package pipeline

// HazardUnit detects data hazards and drives forwarding and stalling.
type HazardUnit struct{}

// NewHazardUnit creates a hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// ForwardingSource indicates where an operand's value should come from.
type ForwardingSource uint8

const (
	// ForwardNone: use the value already latched in ID/EX.
	ForwardNone ForwardingSource = iota
	// ForwardFromEXMEM: forward the EX/MEM latch's ALU result.
	ForwardFromEXMEM
	// ForwardFromMEMWB: forward the MEM/WB latch's writeback value.
	ForwardFromMEMWB
)

// ForwardingResult carries the forwarding decision for an instruction's two
// ALU operands, read in EX. A store's data operand is not covered here: it
// isn't read until MEM, where MemoryStage reads it fresh from the register
// file instead.
type ForwardingResult struct {
	ForwardRs1 ForwardingSource
	ForwardRs2 ForwardingSource
}

// DetectForwarding resolves RAW hazards against the instruction currently in
// ID/EX by checking the EX/MEM and MEM/WB latches, EX/MEM first since it
// holds the more recently produced result.
func (h *HazardUnit) DetectForwarding(idex *IDEXRegister, exmem *EXMEMRegister, memwb *MEMWBRegister) ForwardingResult {
	var result ForwardingResult
	if !idex.Valid {
		return result
	}

	if idex.Rs1 != 0 {
		switch {
		case exmem.Valid && exmem.RegWrite && exmem.Rd == idex.Rs1:
			result.ForwardRs1 = ForwardFromEXMEM
		case memwb.Valid && memwb.RegWrite && memwb.Rd == idex.Rs1:
			result.ForwardRs1 = ForwardFromMEMWB
		}
	}

	if idex.Rs2 != 0 {
		switch {
		case exmem.Valid && exmem.RegWrite && exmem.Rd == idex.Rs2:
			result.ForwardRs2 = ForwardFromEXMEM
		case memwb.Valid && memwb.RegWrite && memwb.Rd == idex.Rs2:
			result.ForwardRs2 = ForwardFromMEMWB
		}
	}

	return result
}

// DetectLoadUseHazard reports whether the load in ID/EX and the instruction
// decoded this cycle in ID conflict: ID/EX is a load whose destination is
// read by the instruction now in decode. Forwarding cannot resolve this
// because the loaded value isn't available until the end of MEM, one cycle
// after EX needs it.
func (h *HazardUnit) DetectLoadUseHazard(idex *IDEXRegister, rs1, rs2 uint8, usesRs1, usesRs2 bool) bool {
	if !idex.Valid || !idex.MemRead || idex.Rd == 0 {
		return false
	}
	if usesRs1 && rs1 == idex.Rd {
		return true
	}
	if usesRs2 && rs2 == idex.Rd {
		return true
	}
	return false
}

// ResolveOperand applies a forwarding decision to an operand value.
func (h *HazardUnit) ResolveOperand(source ForwardingSource, original uint64, exmem *EXMEMRegister, memwb *MEMWBRegister) uint64 {
	switch source {
	case ForwardFromEXMEM:
		return exmem.ALUResult
	case ForwardFromMEMWB:
		if memwb.MemToReg {
			return memwb.MemData
		}
		return memwb.ALUResult
	default:
		return original
	}
}

// StallResult indicates the pipeline control actions a cycle requires.
type StallResult struct {
	// StallIF holds IF/ID in place, re-presenting the same instruction to ID
	// next cycle (a load-use stall). StallID marks that same cycle as a
	// stall for stats purposes; ID/EX itself is bubbled via InsertBubbleEX,
	// never re-fed the stalled instruction.
	StallIF bool
	StallID bool

	// InsertBubbleEX injects a bubble into ID/EX instead of the decoded
	// instruction, because that instruction must wait one more cycle.
	InsertBubbleEX bool

	// FlushIF and FlushID discard IF/ID and ID/EX: the two instructions
	// fetched after a taken branch, annulled once the branch resolves in EX.
	FlushIF bool
	FlushID bool
}

// ComputeStalls combines load-use and branch-resolution signals into the
// cycle's control actions. A branch flush takes precedence over a
// load-use stall detected in the same cycle: the instructions being
// stalled for are themselves annulled by the flush.
func (h *HazardUnit) ComputeStalls(loadUseHazard, branchTaken bool) StallResult {
	if branchTaken {
		return StallResult{FlushIF: true, FlushID: true}
	}
	if loadUseHazard {
		return StallResult{StallIF: true, StallID: true, InsertBubbleEX: true}
	}
	return StallResult{}
}
