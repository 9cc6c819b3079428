// Package io defines the single-bit input port interfaces used to wire
// external signal lines into a KryptoNyte core without coupling the core
// to whatever drives them (a test harness, a conformance fixture, or a
// debug front panel). The shape is carried over unchanged from the
// 6502-family core this was built from, where the same interface wired
// console switches and joystick lines into a chip without the chip
// needing to know their source.
package io

// PortIn1 defines a single-bit input line, read fresh every cycle.
type PortIn1 interface {
	// Input returns the current value of the line.
	Input() bool
}

// ConstLine is a PortIn1 that always returns a fixed value; used for
// tying a line permanently high or low (e.g. an unused interrupt source,
// or "thread always enabled").
type ConstLine bool

// Input implements PortIn1.
func (c ConstLine) Input() bool { return bool(c) }

// Toggle is a PortIn1 a test or harness can flip under program control
// (e.g. a reset button, or a thread-enable switch).
type Toggle struct {
	v bool
}

// Input implements PortIn1.
func (t *Toggle) Input() bool { return t.v }

// Set updates the line's value.
func (t *Toggle) Set(v bool) { t.v = v }
