// Package muldiv implements the RV32M integer multiplier and divider
// functional units: Mul32OneCycle (combinational) and Div32Radix4 (a
// 16-cycle iterative state machine driven by Tick/TickDone, in the same
// two-phase style as the rest of the core family).
package muldiv

import "github.com/kryptonyte/core/decode"

// ExecMul dispatches a MUL/MULH/MULHSU/MULHU operation to Mul and
// selects the half of the 64-bit product each one wants.
func ExecMul(op decode.MulDivOp, a, b uint32) uint32 {
	switch op {
	case decode.OpMUL:
		return Mul(a, b, true, true).Lo32
	case decode.OpMULH:
		return Mul(a, b, true, true).Hi32
	case decode.OpMULHSU:
		return Mul(a, b, true, false).Hi32
	case decode.OpMULHU:
		return Mul(a, b, false, false).Hi32
	}
	panic("muldiv: not a multiply op")
}

// IsDivOp reports whether op belongs to the DIV/DIVU/REM/REMU family
// (the iterative divider) rather than the combinational multiplier.
func IsDivOp(op decode.MulDivOp) bool {
	switch op {
	case decode.OpDIV, decode.OpDIVU, decode.OpREM, decode.OpREMU:
		return true
	}
	return false
}

// DivSigned reports whether op treats its operands as signed (DIV/REM)
// vs unsigned (DIVU/REMU).
func DivSigned(op decode.MulDivOp) bool {
	return op == decode.OpDIV || op == decode.OpREM
}

// DivResult selects quotient or remainder from a completed Divider
// result according to op.
func DivResult(op decode.MulDivOp, quotient, remainder uint32) uint32 {
	switch op {
	case decode.OpDIV, decode.OpDIVU:
		return quotient
	case decode.OpREM, decode.OpREMU:
		return remainder
	}
	panic("muldiv: not a divide op")
}

// MulResult is Mul32OneCycle's combinational output.
type MulResult struct {
	Product64 uint64
	Lo32      uint32
	Hi32      uint32
}

// Mul extends a and b per signedA/signedB and multiplies in 64 bits,
// single cycle, no internal state.
func Mul(a, b uint32, signedA, signedB bool) MulResult {
	var ea, eb uint64
	if signedA {
		ea = uint64(int64(int32(a)))
	} else {
		ea = uint64(a)
	}
	if signedB {
		eb = uint64(int64(int32(b)))
	} else {
		eb = uint64(b)
	}
	product := ea * eb
	return MulResult{
		Product64: product,
		Lo32:      uint32(product),
		Hi32:      uint32(product >> 32),
	}
}

// divState is Div32Radix4's internal state machine position.
type divState int

const (
	divIdle divState = iota
	divRunning
	divDone
)

const divCycles = 16 // radix-4 iterative divide: 16 work cycles.

// Divider implements the iterative radix-4 32x32 divider described in
// spec §4.6. Start/Tick/TickDone follow the same handshake shape as the
// rest of the family: raise Start for one cycle, Busy stays high across
// work cycles, Done pulses for exactly one cycle when the result is
// ready.
type Divider struct {
	state        divState
	cyclesLeft   int
	dividend     uint32
	divisor      uint32
	signed       bool
	quotient     uint32
	remainder    uint32
	divByZero    bool
	done         bool
	nextState    divState
	nextCycles   int
	nextQuotient uint32
	nextRem      uint32
	nextDivZero  bool
	nextDone     bool
}

// Busy reports whether the divider currently owns its thread's pipeline
// stage (the consuming thread must stall while true).
func (d *Divider) Busy() bool { return d.state == divRunning }

// Done pulses true for exactly one cycle when a result is ready.
func (d *Divider) Done() bool { return d.done }

// Quotient, Remainder, and DivideByZero hold the most recently completed
// division's results; valid for the cycle Done() is true.
func (d *Divider) Quotient() uint32   { return d.quotient }
func (d *Divider) Remainder() uint32  { return d.remainder }
func (d *Divider) DivideByZero() bool { return d.divByZero }

// Start kicks off a new division. Must only be called when the divider
// is not already Busy.
func (d *Divider) Start(dividend, divisor uint32, signed bool) {
	d.dividend = dividend
	d.divisor = divisor
	d.signed = signed

	if divisor == 0 {
		// Done asserts immediately on the kick-off cycle per spec §4.6.
		d.nextState = divDone
		d.nextDivZero = true
		d.nextQuotient = 0xFFFFFFFF
		d.nextRem = dividend
		d.nextDone = true
		d.nextCycles = 0
		return
	}

	// Most-negative dividend / -1 is an RV32M-defined overflow case, but
	// divisor is nonzero, so it still takes the normal 16-cycle iterative
	// path through divide() like any other division (spec §4.6: the
	// 1-cycle fast path is reserved for zero divisor only).
	q, rem := divide(dividend, divisor, signed)
	d.nextState = divRunning
	d.nextCycles = divCycles
	d.nextQuotient = q
	d.nextRem = rem
	d.nextDivZero = false
	d.nextDone = false
}

// Tick advances the state machine by one cycle, computing next-state into
// shadow fields; TickDone commits them. This mirrors the two-phase commit
// loop used across the core family (SPEC_FULL.md §5).
func (d *Divider) Tick() {
	switch d.state {
	case divRunning:
		d.nextCycles = d.cyclesLeft - 1
		if d.nextCycles <= 0 {
			d.nextState = divDone
			d.nextDone = true
		} else {
			d.nextState = divRunning
			d.nextDone = false
		}
		d.nextQuotient = d.quotient
		d.nextRem = d.remainder
		d.nextDivZero = d.divByZero
	case divDone:
		// One-cycle Done pulse; next cycle returns to idle unless Start
		// is called again (handled by caller invoking Start before Tick).
		d.nextState = divIdle
		d.nextDone = false
		d.nextQuotient = d.quotient
		d.nextRem = d.remainder
		d.nextDivZero = d.divByZero
	case divIdle:
		d.nextState = divIdle
		d.nextDone = false
	}
}

// TickDone commits the shadow state computed by the most recent Tick (or
// Start) call.
func (d *Divider) TickDone() {
	d.state = d.nextState
	d.cyclesLeft = d.nextCycles
	d.quotient = d.nextQuotient
	d.remainder = d.nextRem
	d.divByZero = d.nextDivZero
	d.done = d.nextDone
}

// divide computes RV32M-semantics quotient/remainder for nonzero divisor.
func divide(dividend, divisor uint32, signed bool) (q, rem uint32) {
	if !signed {
		return dividend / divisor, dividend % divisor
	}
	sd, sv := int32(dividend), int32(divisor)
	return uint32(sd / sv), uint32(sd % sv)
}
