package cpu

import "fmt"

// StateError is the typed-error shape carried over from the teacher's
// InvalidCPUState/HaltOpcode pattern: an error implementing the error
// interface with a Reason field for context, never a bare errors.New for
// a core-internal fault.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cpu: invalid state: %s", e.Reason)
}

// ErrInvalidState reports a configuration the core cannot run with (a
// bad thread/stage count, an uninitialized memory port).
func ErrInvalidState(reason string) error {
	return &StateError{Reason: reason}
}

// HaltError reports that the simulation harness's tohost protocol ended
// the run; Code carries the value written to tohost (1 == pass).
type HaltError struct {
	Code uint32
}

func (e *HaltError) Error() string {
	return fmt.Sprintf("cpu: halted via tohost, code=%#x", e.Code)
}

// ErrHalted constructs a HaltError for the given tohost value.
func ErrHalted(code uint32) error {
	return &HaltError{Code: code}
}

// IllegalInstructionError is returned by a family member's Tick only in
// configurations that choose not to trap (none currently do — see
// SPEC_FULL.md §4.8.1, Open Question 1 resolved in favor of trapping —
// but the type is kept so a future lenient-mode core top has somewhere
// to report it without inventing a new error shape).
type IllegalInstructionError struct {
	PC    uint32
	Instr uint32
}

func (e *IllegalInstructionError) Error() string {
	return fmt.Sprintf("cpu: illegal instruction %#08x at pc %#08x", e.Instr, e.PC)
}

// ErrIllegalInstruction constructs an IllegalInstructionError.
func ErrIllegalInstruction(pc, instr uint32) error {
	return &IllegalInstructionError{PC: pc, Instr: instr}
}
