// Package decode classifies a single 32-bit RV32I/M instruction word into
// a control bundle the execute stages can dispatch on. It holds no state;
// Decode is a pure function of its input word.
package decode

import "fmt"

// Class is the recognized instruction class for one instruction word.
type Class int

const (
	ClassInvalid Class = iota // No is... flag set; treated as an illegal instruction by the core.
	ClassALUReg
	ClassALUImm
	ClassLoad
	ClassStore
	ClassBranch
	ClassJAL
	ClassJALR
	ClassLUI
	ClassAUIPC
	ClassFence
	ClassSystem
	ClassMulDiv
)

// AluOp is the 5-bit ALU operation tag shared by ALU-reg and ALU-imm forms.
type AluOp int

const (
	OpADD AluOp = iota
	OpSUB
	OpAND
	OpOR
	OpXOR
	OpSLL
	OpSRL
	OpSRA
	OpSLT
	OpSLTU
)

// MulDivOp is the RV32M multiply/divide operation tag, carried
// separately from AluOp since the M-extension reuses the ALU-reg major
// opcode (0x33) but funct7=0x01 selects this family instead (spec §2's
// "Multiplier / Divider" component).
type MulDivOp int

const (
	OpMUL MulDivOp = iota
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU
)

// SystemOp distinguishes the System-class sub-operations (ECALL/EBREAK/CSR*).
type SystemOp int

const (
	SysNone SystemOp = iota
	SysECALL
	SysEBREAK
	SysCSRRW
	SysCSRRS
	SysCSRRC
	SysCSRRWI
	SysCSRRSI
	SysCSRRCI
)

// Signals is the decoder's full output for one instruction word.
type Signals struct {
	Class    Class
	AluOp    AluOp
	MulDivOp MulDivOp
	Sys      SystemOp

	Rd, Rs1, Rs2 uint8
	Funct3       uint8

	// Imm is the sign-extended immediate appropriate to Class; for CSR
	// instructions it carries the zero-extended CSR address in bits
	// [11:0]. The *I forms' zero-extended 5-bit uimm sits in the rs1
	// field and is returned by CSRZimm().
	Imm int32

	IsALU, IsLoad, IsStore, IsBranch bool
	IsJAL, IsJALR                    bool
	IsLUI, IsAUIPC                   bool
	IsFence, IsSystem                bool
	IsMulDiv                         bool

	// ImmAsOperandB is true for classes where ALU operand B is the
	// immediate rather than rs2 (ALU-imm, Load, Store, JALR, AUIPC).
	ImmAsOperandB bool
}

// CSRAddr returns the 12-bit CSR address encoded in imm for System-class
// CSR instructions.
func (s Signals) CSRAddr() uint16 {
	return uint16(s.Imm) & 0xFFF
}

// CSRZimm returns the 5-bit zero-extended immediate used by the CSR*I
// forms, which is encoded in place of rs1.
func (s Signals) CSRZimm() uint32 {
	return uint32(s.Rs1)
}

const nop = uint32(0x00000013) // ADDI x0, x0, 0

// IsCanonicalNOP reports whether instr is the canonical NOP encoding.
func IsCanonicalNOP(instr uint32) bool {
	return instr == nop
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// Decode classifies instr and produces its control bundle. Decode never
// errors: an unrecognized opcode produces a zero-value Class (ClassInvalid)
// with no is... flag set.
func Decode(instr uint32) Signals {
	opcode := instr & 0x7F
	rd := uint8((instr >> 7) & 0x1F)
	funct3 := uint8((instr >> 12) & 0x7)
	rs1 := uint8((instr >> 15) & 0x1F)
	rs2 := uint8((instr >> 20) & 0x1F)
	funct7 := uint8((instr >> 25) & 0x7F)

	s := Signals{Rd: rd, Rs1: rs1, Rs2: rs2, Funct3: funct3}

	switch opcode {
	case 0x33: // ALU reg-reg, or RV32M reg-reg (funct7 = 0x01)
		if funct7 == 0x01 {
			s.Class = ClassMulDiv
			s.IsMulDiv = true
			s.MulDivOp = mulDivOpFor(funct3)
		} else {
			s.Class = ClassALUReg
			s.IsALU = true
			s.AluOp = aluOpFor(funct3, funct7)
		}
	case 0x13: // ALU reg-imm
		s.Class = ClassALUImm
		s.IsALU = true
		s.ImmAsOperandB = true
		s.Imm = signExtend(instr>>20, 12)
		// Imm already holds the full sign-extended 12-bit field. For the
		// shift forms that field is {funct7[6:0], shamt[4:0]}; ALU32 only
		// ever consults b[4:0] for shift amounts (spec §4.2), so the
		// funct7 bits folded into Imm's upper bits are harmless noise.
		switch funct3 {
		case 0x1:
			s.AluOp = OpSLL
		case 0x5:
			if funct7 == 0x20 {
				s.AluOp = OpSRA
			} else {
				s.AluOp = OpSRL
			}
		default:
			s.AluOp = aluOpFor(funct3, 0)
		}
	case 0x03: // Load
		s.Class = ClassLoad
		s.IsLoad = true
		s.ImmAsOperandB = true
		s.Imm = signExtend(instr>>20, 12)
	case 0x23: // Store
		s.Class = ClassStore
		s.IsStore = true
		s.ImmAsOperandB = true
		imm := ((instr >> 25) << 5) | ((instr >> 7) & 0x1F)
		s.Imm = signExtend(imm, 12)
	case 0x63: // Branch
		s.Class = ClassBranch
		s.IsBranch = true
		imm := ((instr >> 31) << 12) | (((instr >> 7) & 0x1) << 11) |
			(((instr >> 25) & 0x3F) << 5) | (((instr >> 8) & 0xF) << 1)
		s.Imm = signExtend(imm, 13)
	case 0x6F: // JAL
		s.Class = ClassJAL
		s.IsJAL = true
		imm := ((instr >> 31) << 20) | (((instr >> 12) & 0xFF) << 12) |
			(((instr >> 20) & 0x1) << 11) | (((instr >> 21) & 0x3FF) << 1)
		s.Imm = signExtend(imm, 21)
	case 0x67: // JALR
		s.Class = ClassJALR
		s.IsJALR = true
		s.ImmAsOperandB = true
		s.Imm = signExtend(instr>>20, 12)
	case 0x37: // LUI
		s.Class = ClassLUI
		s.IsLUI = true
		s.Imm = int32(instr & 0xFFFFF000)
	case 0x17: // AUIPC
		s.Class = ClassAUIPC
		s.IsAUIPC = true
		s.ImmAsOperandB = true
		s.Imm = int32(instr & 0xFFFFF000)
	case 0x0F: // FENCE / FENCE.I
		s.Class = ClassFence
		s.IsFence = true
	case 0x73: // SYSTEM: ECALL/EBREAK/CSR*
		s.Class = ClassSystem
		s.IsSystem = true
		s.Imm = int32((instr >> 20) & 0xFFF)
		switch funct3 {
		case 0x0:
			if (instr>>20)&0xFFF == 0x1 {
				s.Sys = SysEBREAK
			} else {
				s.Sys = SysECALL
			}
		case 0x1:
			s.Sys = SysCSRRW
		case 0x2:
			s.Sys = SysCSRRS
		case 0x3:
			s.Sys = SysCSRRC
		case 0x5:
			s.Sys = SysCSRRWI
		case 0x6:
			s.Sys = SysCSRRSI
		case 0x7:
			s.Sys = SysCSRRCI
		}
	default:
		// ClassInvalid: zero value, no is... flag. The core top decides
		// whether to trap (see SPEC_FULL.md §4.8.1) or treat as NOP.
	}
	return s
}

func aluOpFor(funct3, funct7 uint8) AluOp {
	switch funct3 {
	case 0x0:
		if funct7 == 0x20 {
			return OpSUB
		}
		return OpADD
	case 0x1:
		return OpSLL
	case 0x2:
		return OpSLT
	case 0x3:
		return OpSLTU
	case 0x4:
		return OpXOR
	case 0x5:
		if funct7 == 0x20 {
			return OpSRA
		}
		return OpSRL
	case 0x6:
		return OpOR
	case 0x7:
		return OpAND
	}
	// Unreachable: funct3 is 3 bits.
	panic(fmt.Sprintf("decode: impossible funct3 %d", funct3))
}

func mulDivOpFor(funct3 uint8) MulDivOp {
	switch funct3 {
	case 0x0:
		return OpMUL
	case 0x1:
		return OpMULH
	case 0x2:
		return OpMULHSU
	case 0x3:
		return OpMULHU
	case 0x4:
		return OpDIV
	case 0x5:
		return OpDIVU
	case 0x6:
		return OpREM
	case 0x7:
		return OpREMU
	}
	// Unreachable: funct3 is 3 bits.
	panic(fmt.Sprintf("decode: impossible funct3 %d", funct3))
}
