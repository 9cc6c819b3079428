// Package asm is a small RV32I/M instruction encoder: one function per
// mnemonic, each returning the 32-bit instruction word. It is the
// descendant of the teacher's hand_asm tool, turned into an importable
// library so tests build instruction words the same way the teacher's
// test programs build opcode bytes by hand, plus cmd/hand_asm for
// assembling a line-oriented text source into a flat binary image.
package asm

// Register field widths are 5 bits (x0-x31); callers pass plain ints and
// encoding masks them, matching decode.Decode's own field extraction.

func encodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return (funct7&0x7F)<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 | (rd&0x1F)<<7 | (opcode & 0x7F)
}

func encodeI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return uint32(imm&0xFFF)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 | (rd&0x1F)<<7 | (opcode & 0x7F)
}

func encodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7F)<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 | (u&0x1F)<<7 | (opcode & 0x7F)
}

func encodeB(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>12&0x1)<<31 | (u>>5&0x3F)<<25 | (rs2&0x1F)<<20 | (rs1&0x1F)<<15 | (funct3&0x7)<<12 |
		(u>>11&0x1)<<7 | (u>>1&0xF)<<8 | (opcode & 0x7F)
}

func encodeU(opcode, rd uint32, imm int32) uint32 {
	return uint32(imm)&0xFFFFF000 | (rd&0x1F)<<7 | (opcode & 0x7F)
}

func encodeJ(opcode, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>20&0x1)<<31 | (u>>1&0x3FF)<<21 | (u>>11&0x1)<<20 | (u>>12&0xFF)<<12 | (rd&0x1F)<<7 | (opcode & 0x7F)
}

const (
	opALUReg  = 0x33
	opALUImm  = 0x13
	opLoad    = 0x03
	opStore   = 0x23
	opBranch  = 0x63
	opJAL     = 0x6F
	opJALR    = 0x67
	opLUI     = 0x37
	opAUIPC   = 0x17
	opFence   = 0x0F
	opSystem  = 0x73
	funct7Alt = 0x20 // SUB/SRA/SRAI
	funct7Mul = 0x01 // RV32M reg-reg
)

// ALU reg-reg (opcode 0x33, funct7 0x00/0x20).

func ADD(rd, rs1, rs2 uint32) uint32  { return encodeR(opALUReg, rd, 0x0, rs1, rs2, 0x00) }
func SUB(rd, rs1, rs2 uint32) uint32  { return encodeR(opALUReg, rd, 0x0, rs1, rs2, funct7Alt) }
func SLL(rd, rs1, rs2 uint32) uint32  { return encodeR(opALUReg, rd, 0x1, rs1, rs2, 0x00) }
func SLT(rd, rs1, rs2 uint32) uint32  { return encodeR(opALUReg, rd, 0x2, rs1, rs2, 0x00) }
func SLTU(rd, rs1, rs2 uint32) uint32 { return encodeR(opALUReg, rd, 0x3, rs1, rs2, 0x00) }
func XOR(rd, rs1, rs2 uint32) uint32  { return encodeR(opALUReg, rd, 0x4, rs1, rs2, 0x00) }
func SRL(rd, rs1, rs2 uint32) uint32  { return encodeR(opALUReg, rd, 0x5, rs1, rs2, 0x00) }
func SRA(rd, rs1, rs2 uint32) uint32  { return encodeR(opALUReg, rd, 0x5, rs1, rs2, funct7Alt) }
func OR(rd, rs1, rs2 uint32) uint32   { return encodeR(opALUReg, rd, 0x6, rs1, rs2, 0x00) }
func AND(rd, rs1, rs2 uint32) uint32  { return encodeR(opALUReg, rd, 0x7, rs1, rs2, 0x00) }

// ALU reg-imm (opcode 0x13).

func ADDI(rd, rs1 uint32, imm int32) uint32  { return encodeI(opALUImm, rd, 0x0, rs1, imm) }
func SLTI(rd, rs1 uint32, imm int32) uint32  { return encodeI(opALUImm, rd, 0x2, rs1, imm) }
func SLTIU(rd, rs1 uint32, imm int32) uint32 { return encodeI(opALUImm, rd, 0x3, rs1, imm) }
func XORI(rd, rs1 uint32, imm int32) uint32  { return encodeI(opALUImm, rd, 0x4, rs1, imm) }
func ORI(rd, rs1 uint32, imm int32) uint32   { return encodeI(opALUImm, rd, 0x6, rs1, imm) }
func ANDI(rd, rs1 uint32, imm int32) uint32  { return encodeI(opALUImm, rd, 0x7, rs1, imm) }

// SLLI/SRLI/SRAI encode the shift amount in imm[4:0]; imm[11:5] carries
// funct7 (0x00 for SRLI/SLLI, 0x20 for SRAI), folded in the same way the
// ALU-imm decoder recovers it from the raw 12-bit Imm field.
func SLLI(rd, rs1, shamt uint32) uint32 { return encodeI(opALUImm, rd, 0x1, rs1, int32(shamt&0x1F)) }
func SRLI(rd, rs1, shamt uint32) uint32 { return encodeI(opALUImm, rd, 0x5, rs1, int32(shamt&0x1F)) }
func SRAI(rd, rs1, shamt uint32) uint32 {
	return encodeI(opALUImm, rd, 0x5, rs1, int32(shamt&0x1F)|(funct7Alt<<5))
}

// Load/Store (opcodes 0x03/0x23).

func LB(rd, rs1 uint32, imm int32) uint32  { return encodeI(opLoad, rd, 0x0, rs1, imm) }
func LH(rd, rs1 uint32, imm int32) uint32  { return encodeI(opLoad, rd, 0x1, rs1, imm) }
func LW(rd, rs1 uint32, imm int32) uint32  { return encodeI(opLoad, rd, 0x2, rs1, imm) }
func LBU(rd, rs1 uint32, imm int32) uint32 { return encodeI(opLoad, rd, 0x4, rs1, imm) }
func LHU(rd, rs1 uint32, imm int32) uint32 { return encodeI(opLoad, rd, 0x5, rs1, imm) }

func SB(rs1, rs2 uint32, imm int32) uint32 { return encodeS(opStore, 0x0, rs1, rs2, imm) }
func SH(rs1, rs2 uint32, imm int32) uint32 { return encodeS(opStore, 0x1, rs1, rs2, imm) }
func SW(rs1, rs2 uint32, imm int32) uint32 { return encodeS(opStore, 0x2, rs1, rs2, imm) }

// Branch (opcode 0x63). imm is the byte offset from the branch's own PC.

func BEQ(rs1, rs2 uint32, imm int32) uint32  { return encodeB(opBranch, 0x0, rs1, rs2, imm) }
func BNE(rs1, rs2 uint32, imm int32) uint32  { return encodeB(opBranch, 0x1, rs1, rs2, imm) }
func BLT(rs1, rs2 uint32, imm int32) uint32  { return encodeB(opBranch, 0x4, rs1, rs2, imm) }
func BGE(rs1, rs2 uint32, imm int32) uint32  { return encodeB(opBranch, 0x5, rs1, rs2, imm) }
func BLTU(rs1, rs2 uint32, imm int32) uint32 { return encodeB(opBranch, 0x6, rs1, rs2, imm) }
func BGEU(rs1, rs2 uint32, imm int32) uint32 { return encodeB(opBranch, 0x7, rs1, rs2, imm) }

// Jumps, LUI/AUIPC.

func JAL(rd uint32, imm int32) uint32   { return encodeJ(opJAL, rd, imm) }
func JALR(rd, rs1 uint32, imm int32) uint32 { return encodeI(opJALR, rd, 0x0, rs1, imm) }
func LUI(rd uint32, imm int32) uint32   { return encodeU(opLUI, rd, imm) }
func AUIPC(rd uint32, imm int32) uint32 { return encodeU(opAUIPC, rd, imm) }

// FENCE / FENCE.I (opcode 0x0F).

func FENCE() uint32   { return encodeI(opFence, 0, 0x0, 0, 0) }
func FENCEI() uint32  { return encodeI(opFence, 0, 0x1, 0, 0) }

// SYSTEM: ECALL/EBREAK/CSR* (opcode 0x73).

func ECALL() uint32  { return encodeI(opSystem, 0, 0x0, 0, 0) }
func EBREAK() uint32 { return encodeI(opSystem, 0, 0x0, 0, 1) }

func CSRRW(rd, csr, rs1 uint32) uint32  { return encodeI(opSystem, rd, 0x1, rs1, int32(csr)) }
func CSRRS(rd, csr, rs1 uint32) uint32  { return encodeI(opSystem, rd, 0x2, rs1, int32(csr)) }
func CSRRC(rd, csr, rs1 uint32) uint32  { return encodeI(opSystem, rd, 0x3, rs1, int32(csr)) }
func CSRRWI(rd, csr, zimm uint32) uint32 { return encodeI(opSystem, rd, 0x5, zimm, int32(csr)) }
func CSRRSI(rd, csr, zimm uint32) uint32 { return encodeI(opSystem, rd, 0x6, zimm, int32(csr)) }
func CSRRCI(rd, csr, zimm uint32) uint32 { return encodeI(opSystem, rd, 0x7, zimm, int32(csr)) }

// RV32M multiply/divide (opcode 0x33, funct7 0x01).

func MUL(rd, rs1, rs2 uint32) uint32    { return encodeR(opALUReg, rd, 0x0, rs1, rs2, funct7Mul) }
func MULH(rd, rs1, rs2 uint32) uint32   { return encodeR(opALUReg, rd, 0x1, rs1, rs2, funct7Mul) }
func MULHSU(rd, rs1, rs2 uint32) uint32 { return encodeR(opALUReg, rd, 0x2, rs1, rs2, funct7Mul) }
func MULHU(rd, rs1, rs2 uint32) uint32  { return encodeR(opALUReg, rd, 0x3, rs1, rs2, funct7Mul) }
func DIV(rd, rs1, rs2 uint32) uint32    { return encodeR(opALUReg, rd, 0x4, rs1, rs2, funct7Mul) }
func DIVU(rd, rs1, rs2 uint32) uint32   { return encodeR(opALUReg, rd, 0x5, rs1, rs2, funct7Mul) }
func REM(rd, rs1, rs2 uint32) uint32    { return encodeR(opALUReg, rd, 0x6, rs1, rs2, funct7Mul) }
func REMU(rd, rs1, rs2 uint32) uint32   { return encodeR(opALUReg, rd, 0x7, rs1, rs2, funct7Mul) }

// NOP is the canonical ADDI x0, x0, 0 encoding (decode.IsCanonicalNOP).
func NOP() uint32 { return ADDI(0, 0, 0) }
