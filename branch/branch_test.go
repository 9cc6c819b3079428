package branch

import "testing"

func TestConditions(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		rs1, rs2 uint32
		want     bool
	}{
		{"BEQ equal", BEQ, 5, 5, true},
		{"BEQ not equal", BEQ, 5, 6, false},
		{"BNE not equal", BNE, 5, 6, true},
		{"BLT signed", BLT, 0xFFFFFFFF /* -1 */, 1, true},
		{"BLT signed false", BLT, 1, 0xFFFFFFFF, false},
		{"BGE signed", BGE, 1, 0xFFFFFFFF /* -1 */, true},
		{"BLTU unsigned", BLTU, 1, 0xFFFFFFFF, true},
		{"BGEU unsigned", BGEU, 0xFFFFFFFF, 1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Eval(tc.rs1, tc.rs2, 0x1000, 8, tc.op, true)
			if r.Taken != tc.want {
				t.Errorf("Eval(%v) taken = %v, want %v", tc.name, r.Taken, tc.want)
			}
		})
	}
}

func TestInvalidNeverTaken(t *testing.T) {
	r := Eval(5, 5, 0x1000, 8, BEQ, false)
	if r.Taken {
		t.Fatal("invalid branch bundle reported taken")
	}
}

func TestTargetAndMisalignment(t *testing.T) {
	r := Eval(1, 1, 0x1000, 4, BEQ, true)
	if !r.Taken || r.Target != 0x1004 {
		t.Fatalf("got taken=%v target=%#x, want taken target=0x1004", r.Taken, r.Target)
	}
	if r.Misaligned {
		t.Fatal("0x1004 should not be misaligned")
	}

	r = Eval(1, 1, 0x1000, 2, BEQ, true)
	if !r.Misaligned {
		t.Fatal("target 0x1002 should be reported misaligned")
	}
}

func TestNeverTakenOps(t *testing.T) {
	// funct3 values not in the condition table (010, 011) never branch.
	r := Eval(1, 1, 0x1000, 8, Op(0b010), true)
	if r.Taken {
		t.Fatal("reserved funct3 0b010 should never be taken")
	}
}
