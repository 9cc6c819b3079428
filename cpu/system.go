package cpu

import "github.com/kryptonyte/core/decode"

// SystemResult is ExecSystem's output: either a completed CSR
// read-modify-write (with register writeback) or a trap entry from
// ECALL/EBREAK. NextPC already reflects pc+4 or the trap vector so
// callers never need to special-case which happened.
type SystemResult struct {
	DoRegWrite bool
	RdVal      uint32
	NextPC     uint32
	Trapped    bool // true for ECALL/EBREAK: NextPC is a trap vector, not pc+4
}

// ExecSystem implements SPEC_FULL.md §4.8.1's resolution of Open
// Question 5: ECALL sets mcause=11, EBREAK sets mcause=3, and
// CSRRW/CSRRS/CSRRC(/immediate forms) read-modify-write the addressed
// CSR with the RV32-defined "don't write" elision.
func ExecSystem(csr *CSRFile, s decode.Signals, pc uint32, rs1Data uint32) SystemResult {
	switch s.Sys {
	case decode.SysECALL:
		return SystemResult{NextPC: csr.Trap(pc, CauseECallMMode, 0), Trapped: true}
	case decode.SysEBREAK:
		return SystemResult{NextPC: csr.Trap(pc, CauseBreakpoint, 0), Trapped: true}
	}

	addr := s.CSRAddr()
	var operand uint32
	var elide bool
	switch s.Sys {
	case decode.SysCSRRW:
		operand = rs1Data
	case decode.SysCSRRS:
		operand = rs1Data
		elide = s.Rs1 == 0
	case decode.SysCSRRC:
		operand = rs1Data
		elide = s.Rs1 == 0
	case decode.SysCSRRWI:
		operand = s.CSRZimm()
	case decode.SysCSRRSI:
		operand = s.CSRZimm()
		elide = s.CSRZimm() == 0
	case decode.SysCSRRCI:
		operand = s.CSRZimm()
		elide = s.CSRZimm() == 0
	}
	rd := ExecCSR(csr, addr, s.Sys, operand, elide)
	return SystemResult{DoRegWrite: true, RdVal: rd, NextPC: pc + 4}
}

// softDivide computes RV32M DIV/DIVU/REM/REMU semantics in a single
// call, including the divide-by-zero and INT_MIN/-1 special cases from
// spec §4.6 — used by ZeroNyte, TetraNyte and OctoNyte, none of which
// holds an instruction across the iterative Div32Radix4's 16-cycle
// stall; only PipeNyte drives the iterative muldiv.Divider (see DESIGN.md).
func softDivide(dividend, divisor uint32, signed bool) (quotient, remainder uint32) {
	if divisor == 0 {
		return 0xFFFFFFFF, dividend
	}
	if signed && dividend == 0x80000000 && divisor == 0xFFFFFFFF {
		return 0x80000000, 0
	}
	if !signed {
		return dividend / divisor, dividend % divisor
	}
	sd, sv := int32(dividend), int32(divisor)
	return uint32(sd / sv), uint32(sd % sv)
}
