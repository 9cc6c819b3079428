// Package functionality runs the end-to-end scenarios from spec.md/
// SPEC_FULL.md against the real cpu/asm/memory stack: whole programs
// built with the asm encoder, executed on the family member the
// scenario names, with the resulting architectural state checked
// against independently computed expectations. Scenarios E (interrupt
// claim/complete) and F (ICache miss then hit) already have dedicated
// coverage in irq/irq_test.go and icache/icache_test.go and are not
// duplicated here.
package functionality

import (
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/kryptonyte/core/asm"
	"github.com/kryptonyte/core/cpu"
	"github.com/kryptonyte/core/memory"
)

// mustRAM allocates a fresh RAM bank of size bytes based at memory.Base.
func mustRAM(t *testing.T, size int) memory.Bank {
	t.Helper()
	bank, err := memory.NewRAM(memory.Base, size, nil)
	if err != nil {
		t.Fatalf("NewRAM: %v", err)
	}
	bank.PowerOn()
	return bank
}

// loadWords writes prog as consecutive little-endian words starting at
// memory.Base.
func loadWords(t *testing.T, bank memory.Bank, prog []uint32) {
	t.Helper()
	for i, w := range prog {
		bank.WriteWord(memory.Base+uint32(i*4), w, 0b1111)
	}
}

// constFetch is an instruction memory that answers every fetch with the
// same packet, regardless of address — Scenarios A and B's "every
// thread fetches the same instruction every cycle" setup needs no real
// program memory at all. Everything but ReadWord/ReadBlock passes
// through to the embedded Bank so the data side (unused by either
// scenario) still behaves like ordinary RAM.
type constFetch struct {
	memory.Bank
	instr uint32
}

func (c constFetch) ReadWord(addr uint32) uint32 { return c.instr }

func (c constFetch) ReadBlock(addr uint32, n int) []byte {
	out := make([]byte, n)
	for i := 0; i+4 <= n; i += 4 {
		out[i+0] = byte(c.instr)
		out[i+1] = byte(c.instr >> 8)
		out[i+2] = byte(c.instr >> 16)
		out[i+3] = byte(c.instr >> 24)
	}
	return out
}

// Scenario A — "ADDI accumulate across threads" (OctoNyte). Every
// enabled thread fetches ADDI x1,x1,1 every cycle it visits Fetch.
//
// Fetch happens at stage 0 and Writeback at stage 7, so an instruction
// fetched on cycle c retires exactly 7 cycles later; the first real
// (non-phantom) writeback lands at cycle index 7. Running 80+7 cycles
// therefore produces exactly 80 real retirements, handed out one per
// thread every 8 cycles by the barrel's round-robin assignment — 10
// apiece, landing on a value every thread reaches at once rather than
// stopping at the literal "80" cycle count, which splits unevenly
// across threads (80-7 = 73 is not a multiple of 8).
func TestOctoNyteADDIAccumulateAcrossThreads(t *testing.T) {
	instr := asm.ADDI(1, 1, 1) // addi x1, x1, 1
	fetch := constFetch{Bank: mustRAM(t, 64), instr: instr}
	dmem := mustRAM(t, 64)
	o := cpu.NewOctoNyte(fetch, dmem)

	const cycles = 80 + 7
	for i := 0; i < cycles; i++ {
		o.Tick()
		o.TickDone()
	}

	const wantX1 = 10
	for th := 0; th < 8; th++ {
		snap := o.Regs.Snapshot(uint8(th))
		if snap[1] != wantX1 {
			t.Fatalf("thread %d x1 = %d, want %d (every thread retired the same number of times): %s",
				th, snap[1], wantX1, spew.Sdump(snap))
		}
	}
}

// Scenario B — "Single-slot ADDI immediate" (OctoNyte). ADDI x1,x0,1
// is idempotent: every retirement sets x1 = 0+1 = 1 regardless of how
// many times it fires, so the scenario's literal 80-cycle count (any
// count past pipeline fill) is enough for every thread to land on 1.
func TestOctoNyteADDIImmediateSingleSlot(t *testing.T) {
	instr := asm.ADDI(1, 0, 1) // addi x1, x0, 1
	fetch := constFetch{Bank: mustRAM(t, 64), instr: instr}
	dmem := mustRAM(t, 64)
	o := cpu.NewOctoNyte(fetch, dmem)

	for i := 0; i < 80; i++ {
		o.Tick()
		o.TickDone()
	}

	for th := 0; th < 8; th++ {
		snap := o.Regs.Snapshot(uint8(th))
		if snap[1] != 1 {
			t.Fatalf("thread %d x1 = %d, want 1: %s", th, snap[1], spew.Sdump(snap))
		}
	}
}

// Scenario C — "Dot product" (ZeroNyte). Computes sum(A[i]*B[i]) for
// eight elements using only additions and shifts (no MUL): each
// product is built by the standard shift-add binary multiply, which
// gives the correct low 32 bits of the signed product regardless of
// operand sign (the same property RV32's MUL relies on). A and B are
// chosen so the expected sum (-40) matches the spec's documented
// result.
func TestZeroNyteDotProduct(t *testing.T) {
	// Plain var, not const: these feed asm.LUI's int32 parameter via a
	// runtime bit-reinterpreting conversion, which a constant conversion
	// would reject as "out of range" (abase's value exceeds int32's
	// positive range, same as any address in this 0x8000_0000-based map).
	abase := uint32(memory.Base + 0x1000)
	bbase := abase + 0x20
	resultAddr := abase + 0x40
	a := []int32{2, -3, 4, -5, 6, -7, 8, -9}
	b := []int32{1, 2, 3, 4, 5, 6, 7, 8}
	wantSum := int32(0)
	for i := range a {
		wantSum += a[i] * b[i]
	}
	if wantSum != -40 {
		t.Fatalf("test data's own dot product = %d, want -40", wantSum)
	}

	prog := []uint32{
		asm.LUI(1, int32(abase)),  // x1 = abase
		asm.LUI(2, int32(abase)),  // x2 = abase's upper bits ...
		asm.ADDI(2, 2, 0x20),      // ... + 0x20 = bbase
		asm.LUI(10, int32(abase)), // x10 = abase's upper bits ...
		asm.ADDI(10, 10, 0x40),    // ... + 0x40 = resultAddr
		asm.ADDI(3, 0, 0),                 // x3 = sum = 0
		asm.ADDI(4, 0, 8),                 // x4 = outer count = 8

		// outerLoop (idx 7):
		asm.LW(5, 1, 0),    // x5 = A[i] (multiplicand)
		asm.LW(6, 2, 0),    // x6 = B[i] (multiplier)
		asm.ADDI(7, 0, 0),  // x7 = product = 0
		asm.ADDI(8, 0, 32), // x8 = inner count = 32

		// innerLoop (idx 11):
		asm.ANDI(9, 6, 1),  // x9 = multiplier & 1
		asm.BEQ(9, 0, 8),   // skip the add if that bit is clear (to idx 14)
		asm.ADD(7, 7, 5),   // product += multiplicand
		asm.SLLI(5, 5, 1),  // idx 14: multiplicand <<= 1
		asm.SRLI(6, 6, 1),  // multiplier >>= 1 (logical: processes bits low to high)
		asm.ADDI(8, 8, -1), // inner count--
		asm.BNE(8, 0, -24), // loop to innerLoop (idx 11) while count != 0

		asm.ADD(3, 3, 7),   // sum += product
		asm.ADDI(1, 1, 4),  // A pointer++
		asm.ADDI(2, 2, 4),  // B pointer++
		asm.ADDI(4, 4, -1), // outer count--
		asm.BNE(4, 0, -60), // loop to outerLoop (idx 7) while count != 0

		asm.SW(10, 3, 0), // resultAddr[0] = sum
		asm.BEQ(0, 0, 0), // spin
	}

	bank := mustRAM(t, 0x2000)
	loadWords(t, bank, prog)
	for i, v := range a {
		bank.WriteWord(abase+uint32(i*4), uint32(v), 0xF)
	}
	for i, v := range b {
		bank.WriteWord(bbase+uint32(i*4), uint32(v), 0xF)
	}

	z := cpu.NewZeroNyte(bank, bank)
	const cycles = 1700 // comfortably above the ~1629 instructions this program executes
	for i := 0; i < cycles; i++ {
		z.Tick()
		z.TickDone()
	}

	got := int32(bank.ReadWord(resultAddr))
	if got != wantSum {
		t.Fatalf("dot product = %d, want %d: %s", got, wantSum, spew.Sdump(z.Regs.Snapshot(0)))
	}
}

// Scenario D — "Memory stride". Initializes a 32-word array, writes it
// with a stride-2 XOR pattern (mem[i] ^= mem[i+1] for even i), then
// reads it back with a stride-3 sum. memory_stride.c's literal data
// table wasn't retrievable for this module (original_source/ kept no
// files for this spec — see DESIGN.md), so this test defines its own
// 0..31 array and derives every expected signature field from that
// array's own arithmetic instead of an unavailable reference constant;
// consecutive integers i, i+1 with i even differ only in bit 0, so the
// stride-2 write collapses every even slot to exactly 1, which makes
// the expected signature values easy to verify by hand.
func TestZeroNyteMemoryStride(t *testing.T) {
	// Plain var, not const: base feeds asm.LUI's int32 parameter via a
	// runtime bit-reinterpreting conversion (see the dot-product test's
	// abase comment).
	base := uint32(memory.Base + 0x2000)
	sigBase := base + 0x100

	var prog []uint32
	emit := func(w uint32) { prog = append(prog, w) }

	emit(asm.LUI(1, int32(base))) // x1 = base (fixed array pointer)
	emit(asm.ADDI(2, 0, 0))       // x2 = sum_init = 0

	for i := 0; i < 32; i++ { // pass 1: sum_init = sum of all 32 original words
		emit(asm.LW(6, 1, int32(i*4)))
		emit(asm.ADD(2, 2, 6))
	}
	for i := 0; i < 32; i += 2 { // pass 2: stride-2 XOR write
		emit(asm.LW(6, 1, int32(i*4)))
		emit(asm.LW(7, 1, int32((i+1)*4)))
		emit(asm.XOR(6, 6, 7))
		emit(asm.SW(1, 6, int32(i*4)))
	}
	emit(asm.ADDI(3, 0, 0))
	for i := 0; i < 32; i += 3 { // pass 3: sum_stride3, post-write
		emit(asm.LW(6, 1, int32(i*4)))
		emit(asm.ADD(3, 3, 6))
	}
	emit(asm.ADDI(4, 0, 0))
	for i := 0; i < 32; i += 2 { // pass 4: sum_even, post-write
		emit(asm.LW(6, 1, int32(i*4)))
		emit(asm.ADD(4, 4, 6))
	}
	emit(asm.ADDI(5, 0, 0))
	for i := 0; i < 32; i++ { // pass 5: xor_mix, post-write
		emit(asm.LW(6, 1, int32(i*4)))
		emit(asm.XOR(5, 5, 6))
	}
	emit(asm.LW(8, 1, 0))    // mem[0], post-write
	emit(asm.LW(9, 1, 31*4)) // mem[31], post-write

	emit(asm.LUI(10, int32(base))) // x10 = base's upper bits ...
	emit(asm.ADDI(10, 10, 0x100))  // ... + 0x100 = sigBase
	emit(asm.SW(10, 2, 0))         // sigBase[0] = sum_init
	emit(asm.SW(10, 3, 4))         // sigBase[1] = sum_stride3
	emit(asm.SW(10, 4, 8))         // sigBase[2] = sum_even
	emit(asm.SW(10, 5, 12))        // sigBase[3] = xor_mix
	emit(asm.SW(10, 8, 16))        // sigBase[4] = mem[0]
	emit(asm.SW(10, 9, 20))        // sigBase[5] = mem[31]

	emit(asm.LUI(6, 0x4D535452)) // 'MSTR', upper bits ...
	emit(asm.ADDI(6, 6, 0x452))  // ... + low 12 bits
	emit(asm.SW(10, 6, 24))      // sigBase[6] = 'MSTR'
	emit(asm.ADDI(7, 0, 1))
	emit(asm.SW(10, 7, 28)) // sigBase[7] = 0x1 (status)
	emit(asm.BEQ(0, 0, 0))  // spin

	bank := mustRAM(t, 0x3000)
	loadWords(t, bank, prog)
	for i := 0; i < 32; i++ {
		bank.WriteWord(base+uint32(i*4), uint32(i), 0xF)
	}

	z := cpu.NewZeroNyte(bank, bank)
	cycles := len(prog) + 4 // straight-line program: one instruction per cycle, no branches taken
	for i := 0; i < cycles; i++ {
		z.Tick()
		z.TickDone()
	}

	want := [8]uint32{496, 81, 16, 0, 1, 31, 0x4D535452, 0x1}
	var got [8]uint32
	for i := range got {
		got[i] = bank.ReadWord(sigBase + uint32(i*4))
	}
	if got != want {
		t.Fatalf("signature = %s, want %s", spew.Sdump(got), spew.Sdump(want))
	}
}

// Scenario G ([EXPANSION]) — illegal opcode traps. Decoding 0xFFFFFFFF
// must raise an illegal-instruction trap: mcause=2, mepc=the trapping
// PC, and the next fetch redirected to mtvec.
func TestIllegalOpcodeTraps(t *testing.T) {
	const trapVec = memory.Base + 0x100
	bank := mustRAM(t, 0x200)
	loadWords(t, bank, []uint32{0xFFFFFFFF})
	bank.WriteWord(trapVec, asm.BEQ(0, 0, 0), 0xF) // handler: spin in place

	z := cpu.NewZeroNyte(bank, bank)
	z.CSR.Write(cpu.CSRMtvec, trapVec) // boot code configuring the trap vector ahead of time

	z.Tick()
	z.TickDone()

	if got := z.CSR.Read(cpu.CSRMcause); got != cpu.CauseIllegalInstruction {
		t.Fatalf("mcause = %d, want %d", got, cpu.CauseIllegalInstruction)
	}
	if got := z.CSR.Read(cpu.CSRMepc); got != memory.Base {
		t.Fatalf("mepc = %#x, want %#x", got, memory.Base)
	}
	if got := z.CSR.Read(cpu.CSRMtval); got != 0xFFFFFFFF {
		t.Fatalf("mtval = %#x, want 0xffffffff", got)
	}
	if z.PC() != trapVec {
		t.Fatalf("PC = %#x, want mtvec %#x", z.PC(), trapVec)
	}
}

// Scenario H ([EXPANSION]) — ECALL terminates. A program sets a0/a7 per
// the riscv-tests exit convention, issues ECALL, and its trap handler
// writes the pass value to tohost — the end-to-end smoke test the
// conformance harness (cmd/octonyte-sim) is built around.
func TestECallTerminatesViaToHost(t *testing.T) {
	const trapVec = memory.Base + 0x100
	// Plain var, not const: feeds asm.LUI's int32 parameter via a runtime
	// bit-reinterpreting conversion (see the dot-product test's abase
	// comment) since tohostAddr exceeds int32's positive range.
	tohostAddr := uint32(memory.Base + 0x2000)
	bank := mustRAM(t, 0x3000)
	loadWords(t, bank, []uint32{
		asm.ADDI(10, 0, 0),  // a0 = 0 (exit code, per convention)
		asm.ADDI(17, 0, 93), // a7 = 93 ("exit" syscall number, per convention)
		asm.ECALL(),
	})
	bank.WriteWord(trapVec, asm.LUI(5, int32(tohostAddr)), 0xF)
	bank.WriteWord(trapVec+4, asm.ADDI(6, 0, 1), 0xF)
	bank.WriteWord(trapVec+8, asm.SW(5, 6, 0), 0xF)
	bank.WriteWord(trapVec+12, asm.BEQ(0, 0, 0), 0xF) // spin once tohost is written

	z := cpu.NewZeroNyte(bank, bank)
	z.CSR.Write(cpu.CSRMtvec, trapVec)

	for i := 0; i < 10; i++ {
		z.Tick()
		z.TickDone()
	}

	if got := bank.ReadWord(tohostAddr); got != 1 {
		t.Fatalf("tohost = %#x, want 1 (PASS)", got)
	}
	if got := z.CSR.Read(cpu.CSRMcause); got != cpu.CauseECallMMode {
		t.Fatalf("mcause = %d, want %d", got, cpu.CauseECallMMode)
	}
	if got := z.CSR.Read(cpu.CSRMepc); got != memory.Base+8 {
		t.Fatalf("mepc = %#x, want %#x (the ECALL's own PC)", got, memory.Base+8)
	}
}
