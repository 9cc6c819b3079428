// Package cpu implements the KryptoNyte RV32I/M core family: ZeroNyte
// (single-cycle reference), PipeNyte (single-thread 5-stage pipeline),
// TetraNyte (4-thread barrel), and OctoNyte (the canonical 8-stage/
// 8-thread barrel core). Each family member wires the shared functional
// units (decode, alu, branch, lsu, regfile, muldiv, scheduler) into
// a different pipeline topology, per spec §2.
//
// Every family member follows the teacher's Tick()/TickDone() two-phase
// commit discipline: Tick computes next-state into shadow fields from
// the current state, and TickDone swaps shadow into live state. This
// keeps "compute all next-states, then commit atomically" (spec §5) a
// property of the code structure rather than something each call site
// has to get right by convention.
package cpu

import (
	"fmt"

	"github.com/kryptonyte/core/decode"
	"github.com/kryptonyte/core/lsu"
	"github.com/kryptonyte/core/memory"
	"github.com/kryptonyte/core/muldiv"
	"github.com/kryptonyte/core/regfile"
)

// ZeroNyte is the single-cycle, single-thread reference core (spec §4.8
// "ZeroNyte variant"). It has no pipeline registers: fetch, decode,
// execute, and commit all happen within one Tick. Every other family
// member's retired register/memory trace must match ZeroNyte's on the
// same program (spec §8's round-trip property).
type ZeroNyte struct {
	Regs *regfile.RegFile
	CSR  *CSRFile
	IMem memory.Bank
	DMem memory.Bank

	pc uint32

	// shadow fields for the two-phase commit.
	nextPC      uint32
	write       regfile.WritePort
	lastInstr   uint32
	lastTrapped bool
}

// NewZeroNyte allocates a ZeroNyte core. imem and dmem may be the same
// underlying memory.Bank (the simulation memory map is a single RAM
// window, spec §6) but are kept as separate handles the way the
// external interface in spec §6 describes separate imem/dmem buses.
func NewZeroNyte(imem, dmem memory.Bank) *ZeroNyte {
	return &ZeroNyte{
		Regs: regfile.New(1),
		CSR:  NewCSRFile(),
		IMem: imem,
		DMem: dmem,
		pc:   memory.Base,
	}
}

// PC returns the current program counter.
func (z *ZeroNyte) PC() uint32 { return z.pc }

// LastInstr returns the most recently fetched instruction word, for
// debug/test introspection.
func (z *ZeroNyte) LastInstr() uint32 { return z.lastInstr }

// Debug returns a short human-readable snapshot of architectural state,
// in the spirit of the teacher's per-chip Debug() strings used by
// --debug in vcs_main.go.
func (z *ZeroNyte) Debug() string {
	return fmt.Sprintf("pc=%#08x instr=%#08x", z.pc, z.lastInstr)
}

// Tick fetches, decodes, and executes one instruction, computing next
// state into shadow fields. TickDone commits it.
func (z *ZeroNyte) Tick() {
	instr := z.IMem.ReadWord(z.pc)
	z.lastInstr = instr
	s := decode.Decode(instr)
	rs1, rs2 := z.Regs.Read(regfile.ReadPort{ThreadID: 0, SrcA: s.Rs1, SrcB: s.Rs2})

	z.CSR.IncrCycle()

	z.nextPC = z.pc + 4
	z.write = regfile.WritePort{ThreadID: 0, Wen: false}
	z.lastTrapped = false

	switch {
	case s.Class == decode.ClassInvalid:
		z.nextPC = z.CSR.Trap(z.pc, CauseIllegalInstruction, instr)
		z.lastTrapped = true
	case s.IsFence:
		// No multi-hart visibility ordering in this single-memory-image
		// model; FENCE/FENCE.I retire as NOPs (SPEC_FULL.md §4.8.1).
	case s.IsSystem:
		r := ExecSystem(z.CSR, s, z.pc, rs1)
		z.nextPC = r.NextPC
		z.write = regfile.WritePort{ThreadID: 0, Dst: s.Rd, Data: r.RdVal, Wen: r.DoRegWrite}
	case s.IsMulDiv:
		var result uint32
		if muldiv.IsDivOp(s.MulDivOp) {
			q, r := softDivide(rs1, rs2, muldiv.DivSigned(s.MulDivOp))
			result = muldiv.DivResult(s.MulDivOp, q, r)
		} else {
			result = muldiv.ExecMul(s.MulDivOp, rs1, rs2)
		}
		z.write = regfile.WritePort{ThreadID: 0, Dst: s.Rd, Data: result, Wen: true}
	default:
		res := ExecuteBase(s, z.pc, rs1, rs2)
		switch {
		case s.IsLoad:
			width := widthFor(s.Funct3)
			if lsu.LoadMisaligned(res.EffAddr, width) {
				z.nextPC = z.CSR.Trap(z.pc, CauseMisalignedLoad, res.EffAddr)
				z.lastTrapped = true
				break
			}
			word := z.DMem.ReadWord(res.EffAddr)
			signExtend := s.Funct3 == 0x0 || s.Funct3 == 0x1
			val := lsu.Load(res.EffAddr, word, width, signExtend)
			z.write = regfile.WritePort{ThreadID: 0, Dst: s.Rd, Data: val, Wen: true}
		case s.IsStore:
			width := widthFor(s.Funct3)
			sr := lsu.Store(res.EffAddr, res.StoreData, width)
			if sr.Misaligned {
				z.nextPC = z.CSR.Trap(z.pc, CauseMisalignedStore, res.EffAddr)
				z.lastTrapped = true
				break
			}
			z.DMem.WriteWord(res.EffAddr, sr.MemWrite, sr.Mask)
		default:
			if res.CtrlTaken {
				z.nextPC = res.CtrlTarget
			}
			if res.DoRegWrite {
				z.write = regfile.WritePort{ThreadID: 0, Dst: s.Rd, Data: res.ALUResult, Wen: true}
			}
		}
	}

	if !z.lastTrapped {
		z.CSR.IncrInstret()
	}
}

// TickDone commits the register write and PC update computed by the
// most recent Tick, in the same cycle (spec §4.8's ZeroNyte variant).
func (z *ZeroNyte) TickDone() {
	z.Regs.Stage(z.write)
	z.Regs.Commit()
	z.pc = z.nextPC
}

// widthFor maps an I-type load/S-type store's funct3 to lsu.Width. Bits
// [1:0] select byte/half/word for both load and store encodings.
func widthFor(funct3 uint8) lsu.Width {
	switch funct3 & 0x3 {
	case 0:
		return lsu.Byte
	case 1:
		return lsu.Half
	default:
		return lsu.Word
	}
}
