package cpu

import "github.com/kryptonyte/core/decode"

// CSR addresses for the machine-mode subset spec §3 lists as
// architectural state: mstatus, mie, mip, mtvec, mepc, mcause, mtval,
// mscratch, mcycle, minstret.
const (
	CSRMstatus  = uint16(0x300)
	CSRMie      = uint16(0x304)
	CSRMtvec    = uint16(0x305)
	CSRMscratch = uint16(0x340)
	CSRMepc     = uint16(0x341)
	CSRMcause   = uint16(0x342)
	CSRMtval    = uint16(0x343)
	CSRMip      = uint16(0x344)
	CSRMcycle   = uint16(0xB00)
	CSRMinstret = uint16(0xB02)
)

// Trap cause codes used by the System/illegal-instruction/misaligned-
// access execution resolved in SPEC_FULL.md §4.8.1.
const (
	CauseIllegalInstruction = uint32(2)
	CauseBreakpoint         = uint32(3)
	CauseMisalignedLoad     = uint32(4)
	CauseMisalignedStore    = uint32(6)
	CauseECallMMode         = uint32(11)
)

// CSRFile is the machine CSR subset from SPEC_FULL.md §3.2. Each core
// holds a single CSRFile; TetraNyte and OctoNyte share it across all of
// their hardware threads, so CSR state is per core, not per thread.
// Addresses not in the listed subset read and write as zero (there is no
// CSR space beyond what this core implements).
type CSRFile struct {
	regs map[uint16]uint32
}

// NewCSRFile allocates a zeroed CSR file for the listed subset.
func NewCSRFile() *CSRFile {
	f := &CSRFile{regs: make(map[uint16]uint32, 10)}
	for _, addr := range []uint16{
		CSRMstatus, CSRMie, CSRMtvec, CSRMscratch, CSRMepc,
		CSRMcause, CSRMtval, CSRMip, CSRMcycle, CSRMinstret,
	} {
		f.regs[addr] = 0
	}
	return f
}

// Implemented reports whether addr is part of the listed CSR subset.
func (f *CSRFile) Implemented(addr uint16) bool {
	_, ok := f.regs[addr]
	return ok
}

// Read returns the CSR at addr, or 0 for an address outside the
// implemented subset.
func (f *CSRFile) Read(addr uint16) uint32 {
	return f.regs[addr]
}

// Write updates the CSR at addr. A write to an address outside the
// implemented subset is a no-op.
func (f *CSRFile) Write(addr uint16, val uint32) {
	if _, ok := f.regs[addr]; ok {
		f.regs[addr] = val
	}
}

// IncrCycle and IncrInstret back mcycle/minstret, which SPEC_FULL.md §3.2
// wires to "every cycle" and "every committed instruction" respectively;
// on the barrel cores the count covers every thread.
func (f *CSRFile) IncrCycle()   { f.regs[CSRMcycle]++ }
func (f *CSRFile) IncrInstret() { f.regs[CSRMinstret]++ }

// Trap is the CSR-update-and-redirect sequence from SPEC_FULL.md §4.8.1:
// mepc = the trapping PC, mcause = cause, mtval = val, and the next PC
// for this thread becomes mtvec. Apart from explicit CSR instructions
// (ExecCSR), Trap is the only writer of mepc/mcause/mtval;
// ECALL/EBREAK/illegal-instruction/misaligned-access
// all funnel through this one helper (Design Note §9's "single source of
// truth" principle extended to trap entry).
func (f *CSRFile) Trap(pc uint32, cause, val uint32) (nextPC uint32) {
	f.Write(CSRMepc, pc)
	f.Write(CSRMcause, cause)
	f.Write(CSRMtval, val)
	return f.Read(CSRMtvec)
}

// ExecCSR performs one CSRRW/CSRRS/CSRRC(/immediate form): reads the
// addressed CSR's old value (the instruction's rd result), computes the
// new value per sys and operand, and writes it back unless the RV32
// "don't write" elision applies (rs1=x0 for the register forms, zimm=0
// for the immediate forms) per SPEC_FULL.md §4.8.1. operand is rs1Data
// for the register forms or the zero-extended 5-bit immediate for the
// *I forms; the caller sets elideWrite when the elision rule for the
// instruction's form applies.
func ExecCSR(csr *CSRFile, addr uint16, sys decode.SystemOp, operand uint32, elideWrite bool) (rdVal uint32) {
	old := csr.Read(addr)
	if elideWrite {
		return old
	}
	var next uint32
	switch sys {
	case decode.SysCSRRW, decode.SysCSRRWI:
		next = operand
	case decode.SysCSRRS, decode.SysCSRRSI:
		next = old | operand
	case decode.SysCSRRC, decode.SysCSRRCI:
		next = old &^ operand
	default:
		return old
	}
	csr.Write(addr, next)
	return old
}
