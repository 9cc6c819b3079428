package cpu

import (
	"github.com/kryptonyte/core/alu"
	"github.com/kryptonyte/core/branch"
	"github.com/kryptonyte/core/decode"
)

// ExecResult is the combinational result of executing one decoded RV32I
// base-ISA instruction (everything but MulDiv/System/Fence, which need
// CSR/divider state the family members manage on their own timing) given
// its operands. This is spec §4.8's Execute1 contract, factored out so
// every family member computes it identically — ZeroNyte in one cycle,
// OctoNyte in its Execute1 stage.
type ExecResult struct {
	ALUResult  uint32
	DoRegWrite bool
	CtrlTaken  bool
	CtrlTarget uint32
	EffAddr    uint32 // load/store effective address
	StoreData  uint32 // pre-mask store data (rs2Data)
}

// ExecuteBase evaluates ALU-reg/imm, Load, Store, Branch, JAL, JALR,
// LUI, and AUIPC per spec §4.8's operand-mux + dispatch description.
// Fence, System, and MulDiv classes are not handled here — the caller
// checks those flags first.
func ExecuteBase(s decode.Signals, pc, rs1Data, rs2Data uint32) ExecResult {
	switch {
	case s.IsLUI:
		return ExecResult{ALUResult: uint32(s.Imm), DoRegWrite: true}
	case s.IsAUIPC:
		return ExecResult{ALUResult: pc + uint32(s.Imm), DoRegWrite: true}
	case s.IsJAL:
		return ExecResult{
			ALUResult:  pc + 4,
			DoRegWrite: true,
			CtrlTaken:  true,
			CtrlTarget: pc + uint32(s.Imm),
		}
	case s.IsJALR:
		target := (rs1Data + uint32(s.Imm)) &^ 1
		return ExecResult{
			ALUResult:  pc + 4,
			DoRegWrite: true,
			CtrlTaken:  true,
			CtrlTarget: target,
		}
	case s.IsBranch:
		r := branch.Eval(rs1Data, rs2Data, pc, s.Imm, branch.Op(s.Funct3), true)
		return ExecResult{CtrlTaken: r.Taken, CtrlTarget: r.Target}
	case s.IsLoad:
		return ExecResult{EffAddr: rs1Data + uint32(s.Imm), DoRegWrite: true}
	case s.IsStore:
		return ExecResult{EffAddr: rs1Data + uint32(s.Imm), StoreData: rs2Data}
	case s.IsALU:
		operandB := rs2Data
		if s.ImmAsOperandB {
			operandB = uint32(s.Imm)
		}
		return ExecResult{ALUResult: alu.Exec(s.AluOp, rs1Data, operandB), DoRegWrite: true}
	}
	return ExecResult{}
}

// BranchMisaligned reports whether a taken branch/JAL/JALR's target is
// misaligned, using the same target[1:0] != 0 test spec §4.3's
// BranchUnit defines for conditional branches (spec §4.3 applies it to
// all control-flow targets uniformly; there is no compressed-instruction
// mode here to permit 2-byte-only alignment).
func BranchMisaligned(target uint32) bool {
	return target&0x3 != 0
}
