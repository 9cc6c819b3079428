package cpu

import "github.com/kryptonyte/core/decode"

// Bundle is the PipelineRegister payload from spec §3: everything an
// instruction's control bundle, operands, and partially computed result
// carry from one stage boundary to the next.
type Bundle struct {
	ThreadID   uint8
	PC         uint32
	Instr      uint32
	Decode     decode.Signals
	Rs1Data    uint32
	Rs2Data    uint32
	ALUResult  uint32
	CtrlTaken  bool
	CtrlTarget uint32
	DoRegWrite bool
	Rd         uint8
	MemRdata   uint32

	// Trap is set when this instruction raised an illegal-instruction or
	// misaligned-access trap per SPEC_FULL.md §4.8.1 (ECALL/EBREAK enter
	// the trap through ExecSystem and redirect via CtrlTaken instead).
	// The stage that settles the thread's next PC performs the CSR trap
	// entry; Writeback commits no register write and no minstret for it.
	Trap      bool
	TrapCause uint32
	TrapVal   uint32
}

// Entry is a pipeline register slot: per Design Note §9, a tagged sum
// type (`Bubble | Valid(bundle)`) instead of a struct with a bare valid
// bool, so "did we populate this stage" is a constructed property a
// consumer cannot skip checking. Bubble() and Valid() are the only ways
// to build one; IsBubble() must be checked before Payload() is called.
type Entry struct {
	valid  bool
	bundle Bundle
}

// Bubble constructs an invalid pipeline entry. A bubble never mutates
// architectural state (spec §3, §5 invariant 1).
func Bubble() Entry {
	return Entry{}
}

// Valid constructs a populated pipeline entry carrying bundle.
func Valid(bundle Bundle) Entry {
	return Entry{valid: true, bundle: bundle}
}

// IsBubble reports whether this entry carries no instruction.
func (e Entry) IsBubble() bool {
	return !e.valid
}

// Payload returns the carried bundle. Panics if called on a bubble —
// every consumer must check IsBubble first, which is the point of the
// tagged representation.
func (e Entry) Payload() Bundle {
	if !e.valid {
		panic("cpu: Payload() called on a bubble pipeline entry")
	}
	return e.bundle
}
