// Package disassemble implements a disassembler for RV32I/M opcodes. It is
// the descendant of the teacher's 6502 disassemble.go: one table driving a
// mnemonic+operand string per instruction, except here the table is
// decode.Decode itself, since RV32I/M's fixed-width encoding already gives
// a clean Class/AluOp/MulDivOp/Sys split instead of a flat 256-entry byte
// opcode space.
package disassemble

import (
	"fmt"

	"github.com/kryptonyte/core/decode"
	"github.com/kryptonyte/core/memory"
)

var aluMnemonic = map[decode.AluOp]string{
	decode.OpADD:  "ADD",
	decode.OpSUB:  "SUB",
	decode.OpAND:  "AND",
	decode.OpOR:   "OR",
	decode.OpXOR:  "XOR",
	decode.OpSLL:  "SLL",
	decode.OpSRL:  "SRL",
	decode.OpSRA:  "SRA",
	decode.OpSLT:  "SLT",
	decode.OpSLTU: "SLTU",
}

// aluImmMnemonic maps an ALU-imm's AluOp to its *I mnemonic. SLL/SRL/SRA
// become SLLI/SRLI/SRAI; the rest just gain an I suffix.
var aluImmMnemonic = map[decode.AluOp]string{
	decode.OpADD:  "ADDI",
	decode.OpAND:  "ANDI",
	decode.OpOR:   "ORI",
	decode.OpXOR:  "XORI",
	decode.OpSLL:  "SLLI",
	decode.OpSRL:  "SRLI",
	decode.OpSRA:  "SRAI",
	decode.OpSLT:  "SLTI",
	decode.OpSLTU: "SLTIU",
}

var mulDivMnemonic = map[decode.MulDivOp]string{
	decode.OpMUL:    "MUL",
	decode.OpMULH:   "MULH",
	decode.OpMULHSU: "MULHSU",
	decode.OpMULHU:  "MULHU",
	decode.OpDIV:    "DIV",
	decode.OpDIVU:   "DIVU",
	decode.OpREM:    "REM",
	decode.OpREMU:   "REMU",
}

var loadMnemonic = map[uint8]string{
	0x0: "LB", 0x1: "LH", 0x2: "LW", 0x4: "LBU", 0x5: "LHU",
}

var storeMnemonic = map[uint8]string{
	0x0: "SB", 0x1: "SH", 0x2: "SW",
}

var branchMnemonic = map[uint8]string{
	0x0: "BEQ", 0x1: "BNE", 0x4: "BLT", 0x5: "BGE", 0x6: "BLTU", 0x7: "BGEU",
}

var csrMnemonic = map[decode.SystemOp]string{
	decode.SysCSRRW:   "CSRRW",
	decode.SysCSRRS:   "CSRRS",
	decode.SysCSRRC:   "CSRRC",
	decode.SysCSRRWI:  "CSRRWI",
	decode.SysCSRRSI:  "CSRRSI",
	decode.SysCSRRCI:  "CSRRCI",
}

// Step disassembles the instruction word at pc, read from bank, returning
// a formatted "ADDR  HEXWORD  MNEMONIC operands" line and the PC of the
// next instruction (always pc+4: RV32I/M has no compressed forms). This
// does not interpret the instruction, so a JAL followed by its target
// still disassembles in straight memory order.
func Step(pc uint32, bank memory.Bank) (string, uint32) {
	instr := bank.ReadWord(pc)
	s := decode.Decode(instr)
	return fmt.Sprintf("%08x  %08x  %s", pc, instr, format(pc, s)), pc + 4
}

func reg(n uint8) string { return fmt.Sprintf("x%d", n) }

func format(pc uint32, s decode.Signals) string {
	switch {
	case s.Class == decode.ClassInvalid:
		return "UNIMPLEMENTED"
	case s.IsMulDiv:
		return fmt.Sprintf("%-6s %s, %s, %s", mulDivMnemonic[s.MulDivOp], reg(s.Rd), reg(s.Rs1), reg(s.Rs2))
	case s.IsALU && !s.ImmAsOperandB:
		return fmt.Sprintf("%-6s %s, %s, %s", aluMnemonic[s.AluOp], reg(s.Rd), reg(s.Rs1), reg(s.Rs2))
	case s.IsALU && s.ImmAsOperandB:
		switch s.AluOp {
		case decode.OpSLL, decode.OpSRL, decode.OpSRA:
			return fmt.Sprintf("%-6s %s, %s, %d", aluImmMnemonic[s.AluOp], reg(s.Rd), reg(s.Rs1), s.Imm&0x1F)
		default:
			return fmt.Sprintf("%-6s %s, %s, %d", aluImmMnemonic[s.AluOp], reg(s.Rd), reg(s.Rs1), s.Imm)
		}
	case s.IsLoad:
		return fmt.Sprintf("%-6s %s, %d(%s)", loadMnemonic[s.Funct3], reg(s.Rd), s.Imm, reg(s.Rs1))
	case s.IsStore:
		return fmt.Sprintf("%-6s %s, %d(%s)", storeMnemonic[s.Funct3], reg(s.Rs2), s.Imm, reg(s.Rs1))
	case s.IsBranch:
		return fmt.Sprintf("%-6s %s, %s, %#x", branchMnemonic[s.Funct3], reg(s.Rs1), reg(s.Rs2), pc+uint32(s.Imm))
	case s.IsJAL:
		return fmt.Sprintf("%-6s %s, %#x", "JAL", reg(s.Rd), pc+uint32(s.Imm))
	case s.IsJALR:
		return fmt.Sprintf("%-6s %s, %d(%s)", "JALR", reg(s.Rd), s.Imm, reg(s.Rs1))
	case s.IsLUI:
		return fmt.Sprintf("%-6s %s, %#x", "LUI", reg(s.Rd), uint32(s.Imm)>>12)
	case s.IsAUIPC:
		return fmt.Sprintf("%-6s %s, %#x", "AUIPC", reg(s.Rd), uint32(s.Imm)>>12)
	case s.IsFence:
		if s.Funct3 == 0x1 {
			return "FENCE.I"
		}
		return "FENCE"
	case s.IsSystem:
		switch s.Sys {
		case decode.SysECALL:
			return "ECALL"
		case decode.SysEBREAK:
			return "EBREAK"
		case decode.SysCSRRWI, decode.SysCSRRSI, decode.SysCSRRCI:
			return fmt.Sprintf("%-6s %s, %#x, %d", csrMnemonic[s.Sys], reg(s.Rd), s.CSRAddr(), s.CSRZimm())
		default:
			return fmt.Sprintf("%-6s %s, %#x, %s", csrMnemonic[s.Sys], reg(s.Rd), s.CSRAddr(), reg(s.Rs1))
		}
	default:
		return "UNIMPLEMENTED"
	}
}
