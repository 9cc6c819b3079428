// Package tlaxi implements the TileLink-UL -> AXI4-Lite bridge from spec
// §4.11: it maps a TL Get to an AXI AR+R pair and a TL PutFull/Partial to
// a paired AW+W+B, preserving transaction identity (AXI id == TL source)
// end to end.
//
// AXIRAM is a minimal AXI4-Lite target backing store, wired in as an
// alternate memory backend for cmd/octonyte-sim's -mem_backend=axi path
// so the bridge has something concrete to drive instead of sitting
// unexercised.
package tlaxi

import (
	"github.com/kryptonyte/core/memory"
	"github.com/kryptonyte/core/memport"
)

// ARBeat is an AXI4-Lite read-address-channel beat.
type ARBeat struct {
	ID   uint32
	Addr uint32
	Prot uint8
}

// RBeat is an AXI4-Lite read-data-channel beat.
type RBeat struct {
	ID   uint32
	Data uint32
	Resp uint8 // 0 = OKAY
}

// AWBeat is an AXI4-Lite write-address-channel beat.
type AWBeat struct {
	ID   uint32
	Addr uint32
	Prot uint8
}

// WBeat is an AXI4-Lite write-data-channel beat.
type WBeat struct {
	Data uint32
	Strb uint8 // byte-lane write strobes, same shape as a TL mask
}

// BBeat is an AXI4-Lite write-response-channel beat.
type BBeat struct {
	ID   uint32
	Resp uint8
}

// ReadRequest translates a TL Get beat into the AR beat the bridge
// issues on the AXI side. Panics if beat is not a Get — callers must
// dispatch on beat.Opcode before calling.
func ReadRequest(beat memport.ABeat) ARBeat {
	if beat.Opcode != memport.Get {
		panic("tlaxi: ReadRequest called on a non-Get beat")
	}
	return ARBeat{ID: beat.Source, Addr: beat.Address}
}

// WriteRequest translates a TL Put{Full,Partial}Data beat into the
// AW/W beat pair the bridge issues on the AXI side. Panics if beat is a
// Get.
func WriteRequest(beat memport.ABeat) (AWBeat, WBeat) {
	if beat.Opcode == memport.Get {
		panic("tlaxi: WriteRequest called on a Get beat")
	}
	return AWBeat{ID: beat.Source, Addr: beat.Address}, WBeat{Data: beat.Data, Strb: beat.Mask}
}

// ReadResponse translates an AXI R beat back into the TL D-channel
// AccessAckData response the core-side consumer expects.
func ReadResponse(r RBeat, size uint8) memport.DBeat {
	return memport.DBeat{Opcode: memport.AccessAckData, Size: size, Source: r.ID, Data: r.Data}
}

// WriteResponse translates an AXI B beat back into the TL D-channel
// AccessAck response.
func WriteResponse(b BBeat, size uint8) memport.DBeat {
	return memport.DBeat{Opcode: memport.AccessAck, Size: size, Source: b.ID}
}

// AXIRAM is a single-beat-at-a-time AXI4-Lite target wrapping a
// memory.Bank, standing in for a synthesizable AXI-Lite peripheral in
// simulation. It is deliberately synchronous (AR->R and AW+W->B resolve
// in the same Read or Write call) since this spec does not define an AXI-side
// latency model beyond "single beat per transaction" (spec §6).
type AXIRAM struct {
	mem memory.Bank
}

// NewAXIRAM wraps mem as an AXI4-Lite target.
func NewAXIRAM(mem memory.Bank) *AXIRAM {
	return &AXIRAM{mem: mem}
}

// Read performs one AR->R transaction.
func (a *AXIRAM) Read(ar ARBeat) RBeat {
	return RBeat{ID: ar.ID, Data: a.mem.ReadWord(ar.Addr), Resp: 0}
}

// Write performs one AW+W->B transaction.
func (a *AXIRAM) Write(aw AWBeat, w WBeat) BBeat {
	a.mem.WriteWord(aw.Addr, w.Data, w.Strb)
	return BBeat{ID: aw.ID, Resp: 0}
}

// Execute drives one full TL beat through the bridge and the AXI target,
// returning the TL D-channel response a MemPort consumer expects. This
// is the bridged alternative to memport.Execute.
func Execute(target *AXIRAM, beat memport.ABeat) memport.DBeat {
	if beat.Opcode == memport.Get {
		r := target.Read(ReadRequest(beat))
		return ReadResponse(r, beat.Size)
	}
	aw, w := WriteRequest(beat)
	b := target.Write(aw, w)
	return WriteResponse(b, beat.Size)
}
