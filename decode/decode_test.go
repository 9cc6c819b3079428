package decode

import "testing"

func TestCanonicalNOP(t *testing.T) {
	s := Decode(nop)
	if !s.IsALU || s.Class != ClassALUImm {
		t.Fatalf("decode(nop) = %+v, want ALU-imm", s)
	}
	if s.Rd != 0 || s.Rs1 != 0 || s.Imm != 0 {
		t.Fatalf("decode(nop) rd/rs1/imm = %d/%d/%d, want 0/0/0", s.Rd, s.Rs1, s.Imm)
	}
	if !IsCanonicalNOP(nop) {
		t.Fatal("IsCanonicalNOP(nop) = false")
	}
}

func TestExactlyOneFlag(t *testing.T) {
	tests := []uint32{
		0x00000013, // ADDI (nop)
		0x003100b3, // ADD x1, x2, x3
		0x0000a103, // LW x2, 0(x1)
		0x0020a023, // SW x2, 0(x1)
		0x00208463, // BEQ x1, x2, +8
		0x008000ef, // JAL x1, +8
		0x00008067, // JALR x0, 0(x1)
		0x000010b7, // LUI x1, 1
		0x00001097, // AUIPC x1, 1
		0x0000000f, // FENCE
		0x00000073, // ECALL
	}
	for _, instr := range tests {
		s := Decode(instr)
		flags := []bool{s.IsALU, s.IsLoad, s.IsStore, s.IsBranch, s.IsJAL, s.IsJALR, s.IsLUI, s.IsAUIPC, s.IsFence, s.IsSystem}
		n := 0
		for _, f := range flags {
			if f {
				n++
			}
		}
		if n != 1 {
			t.Errorf("decode(%#08x) set %d is... flags, want exactly 1: %+v", instr, n, s)
		}
	}
}

func TestInvalidOpcode(t *testing.T) {
	// opcode bits [6:0] = 0x7F is not assigned in RV32I.
	s := Decode(0xFFFFFFFF)
	if s.Class != ClassInvalid {
		t.Fatalf("decode(0xFFFFFFFF).Class = %v, want ClassInvalid", s.Class)
	}
}

func TestImmediateForms(t *testing.T) {
	// ADDI x1, x0, -1: imm = 0xFFF (all ones, I-type).
	s := Decode(0xfff00093)
	if s.Imm != -1 {
		t.Fatalf("ADDI x1,x0,-1 imm = %d, want -1", s.Imm)
	}

	// SW x2, -4(x1): S-type immediate spread across two fields.
	// imm[11:5]=0x7F rs2=2 rs1=1 funct3=2 imm[4:0]=0x1C opcode=0x23
	s = Decode(0xfe20ae23)
	if !s.IsStore {
		t.Fatalf("expected store, got %+v", s)
	}
	if s.Imm != -4 {
		t.Fatalf("SW x2,-4(x1) imm = %d, want -4", s.Imm)
	}
}

func TestBranchImmediate(t *testing.T) {
	// BEQ x0, x0, -2: imm field all ones except bit0.
	instr := uint32(0xfe000fe3)
	s := Decode(instr)
	if !s.IsBranch {
		t.Fatalf("expected branch, got %+v", s)
	}
	if s.Imm != -2 {
		t.Fatalf("BEQ x0,x0,-2 imm = %d, want -2", s.Imm)
	}
}

func TestJALImmediate(t *testing.T) {
	// JAL x1, -4
	instr := uint32(0xffdff0ef)
	s := Decode(instr)
	if !s.IsJAL {
		t.Fatalf("expected JAL, got %+v", s)
	}
	if s.Imm != -4 {
		t.Fatalf("JAL x1,-4 imm = %d, want -4", s.Imm)
	}
}

func TestMulDivDecode(t *testing.T) {
	// MUL x1, x2, x3: funct7=0x01 funct3=0x0 opcode=0x33
	instr := uint32(0x01)<<25 | uint32(3)<<20 | uint32(2)<<15 | uint32(1)<<7 | 0x33
	s := Decode(instr)
	if !s.IsMulDiv || s.Class != ClassMulDiv {
		t.Fatalf("decode(MUL) = %+v, want ClassMulDiv", s)
	}
	if s.MulDivOp != OpMUL {
		t.Fatalf("MulDivOp = %v, want OpMUL", s.MulDivOp)
	}
	if s.IsALU {
		t.Fatal("MUL should not also set IsALU")
	}

	// DIVU x1, x2, x3: funct3=0x5
	instr = uint32(0x01)<<25 | uint32(3)<<20 | uint32(2)<<15 | uint32(0x5)<<12 | uint32(1)<<7 | 0x33
	s = Decode(instr)
	if s.MulDivOp != OpDIVU {
		t.Fatalf("MulDivOp = %v, want OpDIVU", s.MulDivOp)
	}
}

func TestCSRDecode(t *testing.T) {
	// CSRRW x1, mstatus(0x300), x2: csr<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
	instr := uint32(0x300)<<20 | uint32(2)<<15 | uint32(0x1)<<12 | uint32(1)<<7 | 0x73
	s := Decode(instr)
	if !s.IsSystem || s.Sys != SysCSRRW {
		t.Fatalf("decode(CSRRW) = %+v, want SysCSRRW", s)
	}
	if s.CSRAddr() != 0x300 {
		t.Fatalf("CSRAddr() = %#x, want 0x300", s.CSRAddr())
	}
}
