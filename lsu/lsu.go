// Package lsu implements LoadUnit and StoreUnit: pure combinational
// byte/half/word extraction and insertion against an aligned memory word.
package lsu

// Width selects the access width for both units.
type Width uint8

const (
	Byte Width = iota
	Half
	Word
)

// Load produces the sign- or zero-extended load result. addr is the
// original (possibly unaligned-within-word) effective address; dataIn is
// the full 32-bit word the memory returned for the aligned address
// containing addr. signExtend selects LB/LH (true) vs LBU/LHU (false);
// it is ignored for Word.
func Load(addr uint32, dataIn uint32, width Width, signExtend bool) uint32 {
	switch width {
	case Byte:
		shift := (addr & 0x3) * 8
		b := uint8(dataIn >> shift)
		if signExtend {
			return uint32(int32(int8(b)))
		}
		return uint32(b)
	case Half:
		shift := (addr & 0x2) * 8
		h := uint16(dataIn >> shift)
		if signExtend {
			return uint32(int32(int16(h)))
		}
		return uint32(h)
	case Word:
		return dataIn
	}
	panic("lsu: unknown width")
}

// LoadMisaligned reports whether addr is misaligned for width, mirroring
// StoreUnit's misalignment test for the load side (spec §7 treats both
// units as exposing a misaligned signal; LoadUnit's contract in spec
// §4.4 only describes extraction, so this helper supplies the natural
// counterpart the core's trap path needs).
func LoadMisaligned(addr uint32, width Width) bool {
	switch width {
	case Half:
		return addr&0x1 != 0
	case Word:
		return addr&0x3 != 0
	}
	return false
}

// StoreResult is StoreUnit's combinational output.
type StoreResult struct {
	MemWrite   uint32 // store data shifted into lane position
	Mask       uint8  // 4-bit lane enable, bit i enables byte i
	Misaligned bool
}

// Store produces the write data / byte mask / misalignment flag for a
// byte/half/word store of data to addr. Misaligned stores still produce
// a mask; the caller decides whether to reject or trap (spec §4.4, §7).
func Store(addr uint32, data uint32, width Width) StoreResult {
	switch width {
	case Byte:
		shift := (addr & 0x3) * 8
		return StoreResult{
			MemWrite: (data & 0xFF) << shift,
			Mask:     0x1 << (addr & 0x3),
		}
	case Half:
		shift := (addr & 0x2) * 8
		mask := uint8(0b0011)
		if addr&0x2 != 0 {
			mask = 0b1100
		}
		return StoreResult{
			MemWrite:   (data & 0xFFFF) << shift,
			Mask:       mask,
			Misaligned: addr&0x1 != 0,
		}
	case Word:
		return StoreResult{
			MemWrite:   data,
			Mask:       0b1111,
			Misaligned: addr&0x3 != 0,
		}
	}
	panic("lsu: unknown width")
}
