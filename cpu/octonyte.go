package cpu

import (
	"fmt"

	"github.com/kryptonyte/core/decode"
	"github.com/kryptonyte/core/icache"
	"github.com/kryptonyte/core/lsu"
	"github.com/kryptonyte/core/memory"
	"github.com/kryptonyte/core/muldiv"
	"github.com/kryptonyte/core/regfile"
	"github.com/kryptonyte/core/scheduler"
)

// octoStages names OctoNyte's eight barrel stages (spec §2's canonical
// core top): Fetch, Decode, Dispatch, RegisterRead, Execute1, Execute2,
// Execute3, Writeback.
const (
	stageFetch = iota
	stageDecode
	stageDispatch
	stageRegisterRead
	stageExecute1
	stageExecute2
	stageExecute3
	stageWriteback
	octoStages
)

// octoThread is one hardware thread's carry-forward state between the
// barrel stages it visits.
type octoThread struct {
	pc     uint32
	fetch  fetchEntry
	bundle Bundle
}

// OctoNyte is the canonical 8-stage, 8-thread barrel core (spec §2, §4.8,
// §4.9): fetch goes through a shared direct-mapped ICache, and because
// numThreads == stageCount == 8, no single thread is ever present in two
// stages at once — the same no-stall, no-forward argument TetraNyte
// relies on applies here too. RV32M divide uses the combinational
// softDivide for the same reason it does in TetraNyte: the barrel
// schedule has no stall slot to host the iterative Divider's latency.
type OctoNyte struct {
	Regs  *regfile.RegFile
	CSR   *CSRFile
	IMem  memory.Bank
	DMem  memory.Bank
	Sched *scheduler.Scheduler
	ICache *icache.ICache

	threads [8]octoThread

	nextThreads [8]octoThread
	write       regfile.WritePort
}

const icacheBlockBytes = 16

// NewOctoNyte allocates an OctoNyte core with all eight threads enabled,
// each parked at the simulation reset vector, and a 4KiB/16-byte-block
// direct-mapped instruction cache in front of imem.
func NewOctoNyte(imem, dmem memory.Bank) *OctoNyte {
	o := &OctoNyte{
		Regs:  regfile.New(octoStages),
		CSR:   NewCSRFile(),
		IMem:  imem,
		DMem:  dmem,
		Sched: scheduler.New(octoStages, octoStages),
		ICache: icache.New(icache.Config{
			CapacityBytes: 4096,
			BlockBytes:    icacheBlockBytes,
			AddrBits:      32,
		}),
	}
	for i := range o.threads {
		o.threads[i].pc = memory.Base
	}
	return o
}

// PC returns thread 0's program counter (the convention cmd/octonyte-sim
// uses for single-program conformance runs).
func (o *OctoNyte) PC() uint32 { return o.threads[0].pc }

// Debug returns a short per-thread PC snapshot.
func (o *OctoNyte) Debug() string {
	return fmt.Sprintf("t0.pc=%#08x t1.pc=%#08x ... t7.pc=%#08x (sched offset hidden)",
		o.threads[0].pc, o.threads[1].pc, o.threads[7].pc)
}

// SetThreadEnable forwards to the scheduler.
func (o *OctoNyte) SetThreadEnable(thread int, enabled bool) {
	o.Sched.SetThreadEnable(thread, enabled)
}

// ThreadPC returns hardware thread i's program counter, for
// cmd/octonyte-panel's per-thread barrel-occupancy display (SPEC_FULL.md
// §3.2's Open Question 4 decision: introspection reads live state
// directly, there is no shadow debug register array to read instead).
func (o *OctoNyte) ThreadPC(i int) uint32 { return o.threads[i].pc }

// Tick advances every occupied stage by one slot, in Writeback-to-Fetch
// order so that later stages read pre-tick state from earlier ones.
func (o *OctoNyte) Tick() {
	o.CSR.IncrCycle()
	o.nextThreads = o.threads
	o.write = regfile.WritePort{}

	o.tickWriteback()
	o.tickExecute3()
	o.tickExecute2()
	o.tickExecute1()
	o.tickRegisterRead()
	o.tickDispatch()
	o.tickDecode()
	o.tickFetch()

	o.Sched.Tick()
}

func (o *OctoNyte) tickWriteback() {
	th := o.Sched.StageThread(stageWriteback)
	if !o.Sched.StageValid(stageWriteback) {
		return
	}
	b := o.threads[th].bundle
	if b.DoRegWrite && b.Rd != 0 && !b.Trap {
		o.write = regfile.WritePort{ThreadID: uint8(th), Dst: b.Rd, Data: b.MemRdata, Wen: true}
	}
	if !b.Trap {
		o.CSR.IncrInstret()
	}
}

// tickExecute3 finalizes trap/branch resolution and settles this
// thread's next PC, three stages ahead of its next Fetch visit.
func (o *OctoNyte) tickExecute3() {
	th := o.Sched.StageThread(stageExecute3)
	if !o.Sched.StageValid(stageExecute3) {
		return
	}
	b := o.threads[th].bundle
	if b.Trap {
		o.nextThreads[th].pc = o.CSR.Trap(b.PC, b.TrapCause, b.TrapVal)
	} else if b.CtrlTaken {
		o.nextThreads[th].pc = b.CtrlTarget
	} else {
		o.nextThreads[th].pc = b.PC + 4
	}
	o.nextThreads[th].bundle = b
}

// tickExecute2 performs the memory access (load/store) and the RV32M
// multiply/divide compute; everything else passes its ALU result
// through unchanged.
func (o *OctoNyte) tickExecute2() {
	th := o.Sched.StageThread(stageExecute2)
	if !o.Sched.StageValid(stageExecute2) {
		return
	}
	b := o.threads[th].bundle
	s := b.Decode
	switch {
	case b.Trap, s.Class == decode.ClassInvalid, s.IsFence, s.IsSystem:
		// already resolved (trap/fence/system) or resolved at Execute3.
	case s.IsMulDiv:
		if muldiv.IsDivOp(s.MulDivOp) {
			q, r := softDivide(b.Rs1Data, b.Rs2Data, muldiv.DivSigned(s.MulDivOp))
			b.MemRdata = muldiv.DivResult(s.MulDivOp, q, r)
		} else {
			b.MemRdata = muldiv.ExecMul(s.MulDivOp, b.Rs1Data, b.Rs2Data)
		}
		b.DoRegWrite = true
	case s.IsLoad:
		width := widthFor(s.Funct3)
		addr := b.ALUResult
		if lsu.LoadMisaligned(addr, width) {
			b.Trap, b.TrapCause, b.TrapVal = true, CauseMisalignedLoad, addr
			break
		}
		word := o.DMem.ReadWord(addr)
		signExtend := s.Funct3 == 0x0 || s.Funct3 == 0x1
		b.MemRdata = lsu.Load(addr, word, width, signExtend)
		b.DoRegWrite = true
	case s.IsStore:
		width := widthFor(s.Funct3)
		addr := b.ALUResult
		sr := lsu.Store(addr, b.Rs2Data, width)
		if sr.Misaligned {
			b.Trap, b.TrapCause, b.TrapVal = true, CauseMisalignedStore, addr
			break
		}
		o.DMem.WriteWord(addr, sr.MemWrite, sr.Mask)
	default:
		b.MemRdata = b.ALUResult
	}
	o.nextThreads[th].bundle = b
}

// tickExecute1 runs ALU/branch/address computation and System/CSR ops;
// illegal instructions are flagged here too.
func (o *OctoNyte) tickExecute1() {
	th := o.Sched.StageThread(stageExecute1)
	if !o.Sched.StageValid(stageExecute1) {
		return
	}
	b := o.threads[th].bundle
	s := b.Decode
	switch {
	case s.Class == decode.ClassInvalid:
		b.Trap, b.TrapCause, b.TrapVal = true, CauseIllegalInstruction, b.Instr
	case s.IsFence:
	case s.IsSystem:
		r := ExecSystem(o.CSR, s, b.PC, b.Rs1Data)
		b.MemRdata, b.DoRegWrite = r.RdVal, r.DoRegWrite
		if r.Trapped {
			b.CtrlTaken, b.CtrlTarget = true, r.NextPC
		}
	case s.IsMulDiv:
		// Resolved at Execute2; ALUResult unused for this class.
	default:
		res := ExecuteBase(s, b.PC, b.Rs1Data, b.Rs2Data)
		b.ALUResult = res.ALUResult
		b.DoRegWrite = res.DoRegWrite
		b.CtrlTaken = res.CtrlTaken
		b.CtrlTarget = res.CtrlTarget
		if s.IsLoad || s.IsStore {
			b.ALUResult = res.EffAddr
		}
		b.Rs2Data = res.StoreData
	}
	o.nextThreads[th].bundle = b
}

func (o *OctoNyte) tickRegisterRead() {
	th := o.Sched.StageThread(stageRegisterRead)
	if !o.Sched.StageValid(stageRegisterRead) {
		return
	}
	b := o.threads[th].bundle
	rs1, rs2 := o.Regs.Read(regfile.ReadPort{ThreadID: uint8(th), SrcA: b.Decode.Rs1, SrcB: b.Decode.Rs2})
	b.Rs1Data, b.Rs2Data = rs1, rs2
	o.nextThreads[th].bundle = b
}

// tickDispatch is a pass-through stage: with a single in-order issue
// slot per thread and no functional-unit contention to arbitrate
// (MulDiv and loads/stores both complete within their own Execute
// stage), Dispatch has nothing to decide. It is kept as a named stage
// so the barrel schedule's eight slots match spec §4.8's stage count.
func (o *OctoNyte) tickDispatch() {
	th := o.Sched.StageThread(stageDispatch)
	if !o.Sched.StageValid(stageDispatch) {
		return
	}
	o.nextThreads[th].bundle = o.threads[th].bundle
}

func (o *OctoNyte) tickDecode() {
	th := o.Sched.StageThread(stageDecode)
	if !o.Sched.StageValid(stageDecode) {
		return
	}
	fe := o.threads[th].fetch
	s := decode.Decode(fe.instr)
	o.nextThreads[th].bundle = Bundle{ThreadID: uint8(th), PC: fe.pc, Instr: fe.instr, Decode: s, Rd: s.Rd}
}

func (o *OctoNyte) tickFetch() {
	th := o.Sched.StageThread(stageFetch)
	if !o.Sched.StageValid(stageFetch) {
		return
	}
	pc := o.threads[th].pc
	instr := fetchViaICache(o.ICache, o.IMem, pc)
	o.nextThreads[th].fetch = fetchEntry{valid: true, pc: pc, instr: instr}
}

// fetchViaICache drives ic's Tick/TickDone FSM to completion for one
// fetch of pc, synchronously within a single OctoNyte cycle. The
// simulation's memory.Bank has no refill latency of its own, so this
// resolves in a handful of internal steps while still exercising
// ICache's real hit/miss/replacement logic (see DESIGN.md).
func fetchViaICache(ic *icache.ICache, imem memory.Bank, pc uint32) uint32 {
	ic.Request(pc)
	var pendingBlock []byte
	for i := 0; i < 10; i++ {
		resp := icache.MemResponse{}
		if pendingBlock != nil {
			resp = icache.MemResponse{Valid: true, Block: pendingBlock}
			pendingBlock = nil
		}
		if req := ic.MemRequestOut(); req.Valid {
			pendingBlock = imem.ReadBlock(req.Addr, icacheBlockBytes)
		}
		ic.Tick(resp)
		ic.TickDone()
		if r := ic.Response(); r.Valid {
			return r.Data
		}
	}
	panic("octonyte: icache fetch did not resolve")
}

// TickDone commits the shadow state computed by the most recent Tick.
func (o *OctoNyte) TickDone() {
	o.Regs.Stage(o.write)
	o.Regs.Commit()
	o.threads = o.nextThreads
	o.Sched.TickDone()
}
