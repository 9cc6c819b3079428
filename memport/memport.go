// Package memport implements the MemPort TileLink-UL shim described in
// spec §4.11: it adapts a core's legacy single-beat
// {valid,addr,writeData,writeMask} request onto a TileLink-UL A-channel
// master beat, and turns a D-channel response back into writeback data
// routed by source.
//
// Request/Execute are kept as pure functions over plain structs, per
// Design Note §9 ("functional units as pure functions... unit-test in
// isolation"), the same style alu/branch/lsu already use. The one piece
// of state, the per-source outstanding-request table, lives in Tracker.
package memport

import "github.com/kryptonyte/core/memory"

// Opcode is the TL-UL A-channel opcode subset this master ever issues.
type Opcode uint8

const (
	PutFullData    Opcode = 0
	PutPartialData Opcode = 1
	Get            Opcode = 4
)

// DOpcode is the TL-UL D-channel opcode subset this master ever receives.
type DOpcode uint8

const (
	AccessAck     DOpcode = 0
	AccessAckData DOpcode = 1
)

// ABeat is one outgoing TileLink-UL A-channel request.
type ABeat struct {
	Opcode  Opcode
	Param   uint8
	Size    uint8 // byte population of Mask, log2: 0=1B,1=2B,2=4B
	Source  uint32
	Address uint32
	Mask    uint8
	Data    uint32
	Corrupt bool
}

// DBeat is one incoming TileLink-UL D-channel response.
type DBeat struct {
	Opcode  DOpcode
	Size    uint8
	Source  uint32
	Data    uint32
	Corrupt bool
}

// sizeFor encodes byte population in mask into a TL size field per
// spec §4.11: 1 bit set => size 0, 2 contiguous => size 1, all four =>
// size 2. Loads always request a full word (size 2).
func sizeFor(mask uint8, isLoad bool) uint8 {
	if isLoad {
		return 2
	}
	switch mask {
	case 0b0001, 0b0010, 0b0100, 0b1000:
		return 0
	case 0b0011, 0b1100:
		return 1
	case 0b1111:
		return 2
	}
	return 2
}

// Request builds the A-channel beat for one core-side single-beat
// access. writeMask == 0 means a load (opcode Get); writeMask == 0xF is
// a full-word store (PutFullData); any other nonzero mask is a
// sub-word store (PutPartialData). source is the requesting thread's ID
// (SPEC_FULL.md §4.8.1, Open Question 3: per-thread, not hardcoded 0).
func Request(source uint32, addr uint32, writeData uint32, writeMask uint8) ABeat {
	isLoad := writeMask == 0
	op := Get
	switch {
	case isLoad:
		op = Get
	case writeMask == 0xF:
		op = PutFullData
	default:
		op = PutPartialData
	}
	mask := writeMask
	if isLoad {
		mask = 0xF
	}
	data := uint32(0)
	if !isLoad {
		data = writeData
	}
	return ABeat{
		Opcode:  op,
		Size:    sizeFor(writeMask, isLoad),
		Source:  source,
		Address: addr,
		Mask:    mask,
		Data:    data,
	}
}

// Execute performs one TL-UL beat synchronously against mem and returns
// the D-channel response. This models a single-cycle memory target; the
// tlaxi package provides a slower AXI-Lite-bridged alternative exercised
// by cmd/octonyte-sim's -mem_backend=axi path.
func Execute(mem memory.Bank, beat ABeat) DBeat {
	switch beat.Opcode {
	case Get:
		return DBeat{Opcode: AccessAckData, Size: beat.Size, Source: beat.Source, Data: mem.ReadWord(beat.Address)}
	case PutFullData, PutPartialData:
		mem.WriteWord(beat.Address, beat.Data, beat.Mask)
		return DBeat{Opcode: AccessAck, Size: beat.Size, Source: beat.Source}
	}
	return DBeat{}
}

// PendingEntry is the typed sum-of-kinds Design Note §9 calls for: a
// tracked outstanding request is either a load (which must route data to
// a thread/rd on response) or a store (which only needs an ack to
// unblock its thread).
type PendingEntry struct {
	ThreadID uint8
	Rd       uint8
	IsLoad   bool
}

// Tracker maps outstanding TL sources to the thread/rd waiting on their
// response, per spec §3 ("each outstanding load carries a source ID...
// at most one response per source").
type Tracker struct {
	entries map[uint32]PendingEntry
}

// NewTracker allocates an empty source tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[uint32]PendingEntry)}
}

// Issue records that source now has an outstanding request for
// (threadID, rd). Issuing a second request on an already-outstanding
// source is a caller bug (at most one response per source); Issue
// overwrites, matching "last write wins" elsewhere in this codebase, but
// callers should never rely on that — one source per outstanding load is
// the whole point of per-thread source IDs.
func (t *Tracker) Issue(source uint32, e PendingEntry) {
	t.entries[source] = e
}

// Resolve looks up and clears the pending entry for source, reporting
// whether one was outstanding.
func (t *Tracker) Resolve(source uint32) (PendingEntry, bool) {
	e, ok := t.entries[source]
	if ok {
		delete(t.entries, source)
	}
	return e, ok
}
