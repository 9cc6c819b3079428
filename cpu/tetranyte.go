package cpu

import (
	"fmt"

	"github.com/kryptonyte/core/decode"
	"github.com/kryptonyte/core/lsu"
	"github.com/kryptonyte/core/memory"
	"github.com/kryptonyte/core/muldiv"
	"github.com/kryptonyte/core/regfile"
	"github.com/kryptonyte/core/scheduler"
)

// tetraThread is one hardware thread's working state: the data it
// carries from the stage it last occupied to the stage it occupies
// next, each time the barrel schedule brings it around again.
type tetraThread struct {
	pc     uint32
	fetch  fetchEntry
	bundle Bundle
}

// TetraNyte is the four-way barrel-threaded version of PipeNyte (spec
// §4.8): four hardware threads rotate through Fetch, Decode+RegRead,
// Execute+Mem, and Writeback via scheduler.Scheduler. Because
// numThreads == stageCount == 4, no thread is ever present in two
// stages at once, so none of PipeNyte's stall-on-load-use or
// EX/MEM+MEM/WB forwarding logic can ever trigger: by the time a
// thread's instruction revisits Decode, its predecessor from the same
// thread has already retired. RV32M divide uses the same combinational
// softDivide ZeroNyte uses rather than the iterative Divider, since the
// barrel schedule affords no stall window to host a 16-cycle latency
// in a single occupied slot (see DESIGN.md).
type TetraNyte struct {
	Regs  *regfile.RegFile
	CSR   *CSRFile
	IMem  memory.Bank
	DMem  memory.Bank
	Sched *scheduler.Scheduler

	threads [4]tetraThread

	// shadow fields for the two-phase commit.
	nextThreads [4]tetraThread
	write       regfile.WritePort
}

const tetraStages = 4

// NewTetraNyte allocates a TetraNyte core with all four threads enabled
// and parked at the simulation reset vector.
func NewTetraNyte(imem, dmem memory.Bank) *TetraNyte {
	t := &TetraNyte{
		Regs:  regfile.New(4),
		CSR:   NewCSRFile(),
		IMem:  imem,
		DMem:  dmem,
		Sched: scheduler.New(tetraStages, tetraStages),
	}
	for i := range t.threads {
		t.threads[i].pc = memory.Base
	}
	return t
}

// Debug returns each thread's PC, in barrel-stage order.
func (t *TetraNyte) Debug() string {
	return fmt.Sprintf("t0.pc=%#08x t1.pc=%#08x t2.pc=%#08x t3.pc=%#08x",
		t.threads[0].pc, t.threads[1].pc, t.threads[2].pc, t.threads[3].pc)
}

// PC returns thread 0's program counter (the convention cmd/octonyte-sim
// uses for single-program conformance runs, where only thread 0 carries
// live work and the others sit disabled).
func (t *TetraNyte) PC() uint32 { return t.threads[0].pc }

// SetThreadEnable forwards to the scheduler, disabling a thread so its
// barrel slot becomes a guaranteed bubble (spec §4.7).
func (t *TetraNyte) SetThreadEnable(thread int, enabled bool) {
	t.Sched.SetThreadEnable(thread, enabled)
}

// ThreadPC returns hardware thread i's program counter, for
// cmd/octonyte-panel's per-thread barrel-occupancy display (SPEC_FULL.md
// §3.2's Open Question 4 decision: introspection reads live state
// directly, there is no shadow debug register array to read instead).
func (t *TetraNyte) ThreadPC(i int) uint32 { return t.threads[i].pc }

// Tick advances every occupied stage by one slot: Writeback, then
// Execute+Mem, then Decode+RegisterRead, then Fetch, reading the
// Scheduler's current (pre-tick) stage/thread assignment throughout.
func (t *TetraNyte) Tick() {
	t.CSR.IncrCycle()
	t.nextThreads = t.threads
	t.write = regfile.WritePort{}

	wbThread := t.Sched.StageThread(3)
	if t.Sched.StageValid(3) {
		b := t.threads[wbThread].bundle
		if b.DoRegWrite && b.Rd != 0 {
			t.write = regfile.WritePort{ThreadID: uint8(wbThread), Dst: b.Rd, Data: b.MemRdata, Wen: true}
		}
		if !b.Trap {
			t.CSR.IncrInstret()
		}
	}

	exThread := t.Sched.StageThread(2)
	if t.Sched.StageValid(2) {
		b := t.runExecuteMem(t.threads[exThread].bundle)
		t.nextThreads[exThread].bundle = b
		if b.Trap {
			t.nextThreads[exThread].pc = t.CSR.Trap(b.PC, b.TrapCause, b.TrapVal)
		} else if b.CtrlTaken {
			t.nextThreads[exThread].pc = b.CtrlTarget
		} else {
			t.nextThreads[exThread].pc = b.PC + 4
		}
	}

	deThread := t.Sched.StageThread(1)
	if t.Sched.StageValid(1) {
		fe := t.threads[deThread].fetch
		s := decode.Decode(fe.instr)
		rs1, rs2 := t.Regs.Read(regfile.ReadPort{ThreadID: uint8(deThread), SrcA: s.Rs1, SrcB: s.Rs2})
		t.nextThreads[deThread].bundle = Bundle{
			ThreadID: uint8(deThread), PC: fe.pc, Instr: fe.instr, Decode: s, Rs1Data: rs1, Rs2Data: rs2, Rd: s.Rd,
		}
	}

	ifThread := t.Sched.StageThread(0)
	if t.Sched.StageValid(0) {
		pc := t.threads[ifThread].pc
		t.nextThreads[ifThread].fetch = fetchEntry{valid: true, pc: pc, instr: t.IMem.ReadWord(pc)}
	}

	t.Sched.Tick()
}

// runExecuteMem is TetraNyte's combined Execute+Mem stage, covering
// everything PipeNyte splits across two physical stages since a barrel
// thread only occupies one slot per visit.
func (t *TetraNyte) runExecuteMem(b Bundle) Bundle {
	s := b.Decode
	switch {
	case s.Class == decode.ClassInvalid:
		b.Trap, b.TrapCause, b.TrapVal = true, CauseIllegalInstruction, b.Instr
		return b
	case s.IsFence:
		return b
	case s.IsSystem:
		r := ExecSystem(t.CSR, s, b.PC, b.Rs1Data)
		b.MemRdata, b.DoRegWrite = r.RdVal, r.DoRegWrite
		if r.Trapped {
			b.CtrlTaken, b.CtrlTarget = true, r.NextPC
		}
		return b
	case s.IsMulDiv:
		if muldiv.IsDivOp(s.MulDivOp) {
			q, r := softDivide(b.Rs1Data, b.Rs2Data, muldiv.DivSigned(s.MulDivOp))
			b.MemRdata = muldiv.DivResult(s.MulDivOp, q, r)
		} else {
			b.MemRdata = muldiv.ExecMul(s.MulDivOp, b.Rs1Data, b.Rs2Data)
		}
		b.DoRegWrite = true
		return b
	}

	res := ExecuteBase(s, b.PC, b.Rs1Data, b.Rs2Data)
	b.CtrlTaken, b.CtrlTarget = res.CtrlTaken, res.CtrlTarget
	switch {
	case s.IsLoad:
		width := widthFor(s.Funct3)
		if lsu.LoadMisaligned(res.EffAddr, width) {
			b.Trap, b.TrapCause, b.TrapVal = true, CauseMisalignedLoad, res.EffAddr
			return b
		}
		word := t.DMem.ReadWord(res.EffAddr)
		signExtend := s.Funct3 == 0x0 || s.Funct3 == 0x1
		b.MemRdata = lsu.Load(res.EffAddr, word, width, signExtend)
		b.DoRegWrite = true
	case s.IsStore:
		width := widthFor(s.Funct3)
		sr := lsu.Store(res.EffAddr, res.StoreData, width)
		if sr.Misaligned {
			b.Trap, b.TrapCause, b.TrapVal = true, CauseMisalignedStore, res.EffAddr
			return b
		}
		t.DMem.WriteWord(res.EffAddr, sr.MemWrite, sr.Mask)
	default:
		b.MemRdata = res.ALUResult
		b.DoRegWrite = res.DoRegWrite
	}
	return b
}

// TickDone commits the shadow state computed by the most recent Tick.
func (t *TetraNyte) TickDone() {
	t.Regs.Stage(t.write)
	t.Regs.Commit()
	t.threads = t.nextThreads
	t.Sched.TickDone()
}
