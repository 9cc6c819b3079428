package lsu

import "testing"

func TestLoad(t *testing.T) {
	word := uint32(0x89ABCDEF)
	tests := []struct {
		name       string
		addr       uint32
		width      Width
		signExtend bool
		want       uint32
	}{
		{"LB low byte", 0x100, Byte, true, 0xFFFFFFEF},  // 0xEF sign-extends negative
		{"LBU low byte", 0x100, Byte, false, 0xEF},
		{"LB byte 1", 0x101, Byte, true, 0xFFFFFFCD},
		{"LB byte 3 negative", 0x103, Byte, true, 0xFFFFFF89},
		{"LH low half", 0x100, Half, true, 0xFFFFCDEF},
		{"LHU low half", 0x100, Half, false, 0xCDEF},
		{"LH high half", 0x102, Half, true, 0xFFFF89AB},
		{"LW", 0x100, Word, false, 0x89ABCDEF},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Load(tc.addr, word, tc.width, tc.signExtend); got != tc.want {
				t.Errorf("Load(%#x) = %#x, want %#x", tc.addr, got, tc.want)
			}
		})
	}
}

func TestStore(t *testing.T) {
	tests := []struct {
		name           string
		addr           uint32
		data           uint32
		width          Width
		wantWrite      uint32
		wantMask       uint8
		wantMisaligned bool
	}{
		{"SB offset 0", 0x100, 0xAB, Byte, 0xAB, 0b0001, false},
		{"SB offset 2", 0x102, 0xAB, Byte, 0xAB0000, 0b0100, false},
		{"SH aligned low", 0x100, 0xBEEF, Half, 0xBEEF, 0b0011, false},
		{"SH aligned high", 0x102, 0xBEEF, Half, 0xBEEF0000, 0b1100, false},
		{"SH misaligned", 0x101, 0xBEEF, Half, 0, 0, true},
		{"SW aligned", 0x100, 0xDEADBEEF, Word, 0xDEADBEEF, 0b1111, false},
		{"SW misaligned", 0x101, 0xDEADBEEF, Word, 0xDEADBEEF, 0b1111, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Store(tc.addr, tc.data, tc.width)
			if tc.width != Half || !tc.wantMisaligned {
				if r.MemWrite != tc.wantWrite {
					t.Errorf("MemWrite = %#x, want %#x", r.MemWrite, tc.wantWrite)
				}
				if r.Mask != tc.wantMask {
					t.Errorf("Mask = %#b, want %#b", r.Mask, tc.wantMask)
				}
			}
			if r.Misaligned != tc.wantMisaligned {
				t.Errorf("Misaligned = %v, want %v", r.Misaligned, tc.wantMisaligned)
			}
		})
	}
}

func TestLoadMisaligned(t *testing.T) {
	if LoadMisaligned(0x101, Byte) {
		t.Fatal("byte load is never misaligned")
	}
	if !LoadMisaligned(0x101, Half) || LoadMisaligned(0x102, Half) {
		t.Fatal("half misalignment test wrong")
	}
	if !LoadMisaligned(0x101, Word) || LoadMisaligned(0x100, Word) {
		t.Fatal("word misalignment test wrong")
	}
}

func TestStoreLoadRoundTrip(t *testing.T) {
	// Storing a byte then loading the same byte sign/zero extended gives
	// the narrowed value of the stored data (spec §8 round-trip property).
	s := Store(0x102, 0xFFFFFF80, Byte) // store byte 0x80 at addr 2
	word := s.MemWrite                 // emulate the masked write landing directly in the aligned word
	got := Load(0x102, word, Byte, true)
	if got != 0xFFFFFF80 {
		t.Errorf("round trip byte = %#x, want 0xFFFFFF80 (sign extended 0x80)", got)
	}
	gotU := Load(0x102, word, Byte, false)
	if gotU != 0x80 {
		t.Errorf("round trip byte unsigned = %#x, want 0x80", gotU)
	}
}
