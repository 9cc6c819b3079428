package cpu

import (
	"fmt"

	"github.com/kryptonyte/core/decode"
	"github.com/kryptonyte/core/lsu"
	"github.com/kryptonyte/core/memory"
	"github.com/kryptonyte/core/muldiv"
	"github.com/kryptonyte/core/regfile"
)

// fetchEntry is the IF/ID pipeline register: before decode happens,
// there is no control bundle yet, only a fetched word and its PC.
type fetchEntry struct {
	valid bool
	pc    uint32
	instr uint32
}

// PipeNyte is the single-thread IF/ID/EX/MEM/WB pipeline (spec §4.8
// "PipeNyte variant") with stall-on-load-use and EX/MEM + MEM/WB
// forwarding into the register-read stage's operand mux. Branches
// resolve in EX: a taken branch squashes the instruction sitting in
// IF/ID and redirects the same cycle's fetch, a two-instruction
// misprediction penalty.
type PipeNyte struct {
	Regs *regfile.RegFile
	CSR  *CSRFile
	IMem memory.Bank
	DMem memory.Bank
	Div  *muldiv.Divider

	pc        uint32
	ifid      fetchEntry
	idex      Entry
	exmem     Entry
	memwb     Entry
	divPend   *Bundle // non-nil while a divide op in EX has already kicked off Div

	// shadow fields for the two-phase commit.
	nextPC    uint32
	nextIFID  fetchEntry
	nextIDEX  Entry
	nextEXMEM Entry
	nextMEMWB Entry
	write     regfile.WritePort
}

// NewPipeNyte allocates a PipeNyte core with empty pipeline registers
// (the reset state: "pipeline registers cleared/bubbles", spec §3).
func NewPipeNyte(imem, dmem memory.Bank) *PipeNyte {
	return &PipeNyte{
		Regs:  regfile.New(1),
		CSR:   NewCSRFile(),
		IMem:  imem,
		DMem:  dmem,
		Div:   &muldiv.Divider{},
		pc:    memory.Base,
		idex:  Bubble(),
		exmem: Bubble(),
		memwb: Bubble(),
	}
}

// PC returns the program counter of the next instruction to be fetched.
func (p *PipeNyte) PC() uint32 { return p.pc }

// Debug returns a short per-stage snapshot, in the vein of the teacher's
// chip Debug() strings.
func (p *PipeNyte) Debug() string {
	return fmt.Sprintf("pc=%#08x ifid.valid=%v idex.bubble=%v exmem.bubble=%v memwb.bubble=%v",
		p.pc, p.ifid.valid, p.idex.IsBubble(), p.exmem.IsBubble(), p.memwb.IsBubble())
}

// Tick computes every stage's next-state from current register
// contents, writing it into shadow fields. TickDone commits.
func (p *PipeNyte) Tick() {
	p.CSR.IncrCycle()

	// --- Writeback: commit memwb's result this cycle. ---
	p.write = regfile.WritePort{}
	if !p.memwb.IsBubble() {
		b := p.memwb.Payload()
		if b.DoRegWrite && b.Rd != 0 {
			p.write = regfile.WritePort{ThreadID: 0, Dst: b.Rd, Data: b.MemRdata, Wen: true}
		}
		if !b.Trap {
			p.CSR.IncrInstret()
		}
	}
	var memTrapped bool
	var memTrapPC uint32
	p.nextMEMWB, memTrapped, memTrapPC = p.runMem(p.exmem)
	if memTrapped {
		// The instruction that just reached MEM trapped (or was already
		// marked Trap coming out of EX); everything younger sitting in
		// ID/EX and IF/ID is wrong-path and must be squashed here, before
		// the Execute/Decode/Fetch blocks below would otherwise carry it
		// forward unsquashed into nextEXMEM/nextIDEX.
		p.nextEXMEM = Bubble()
		p.nextIDEX = Bubble()
		p.nextIFID = fetchEntry{}
		p.nextPC = memTrapPC
		p.divPend = nil
		return
	}

	// --- Execute: resolve branch here; also owns the divider handshake. ---
	taken, target := false, uint32(0)
	if !p.idex.IsBubble() {
		b := p.idex.Payload()
		if b.Decode.IsMulDiv && muldiv.IsDivOp(b.Decode.MulDivOp) {
			if p.divPend == nil {
				p.Div.Start(b.Rs1Data, b.Rs2Data, muldiv.DivSigned(b.Decode.MulDivOp))
				p.Div.TickDone()
				pending := b
				p.divPend = &pending
			} else {
				p.Div.Tick()
				p.Div.TickDone()
			}
			if !p.Div.Done() {
				// Divider still busy: hold IF/ID and ID/EX, bubble EX/MEM.
				p.nextEXMEM = Bubble()
				p.nextIDEX = p.idex
				p.nextIFID = p.ifid
				p.nextPC = p.pc
				return
			}
			p.divPend = nil
		}
		executed := p.runExecute(b)
		p.nextEXMEM = Valid(executed)
		if executed.CtrlTaken {
			taken, target = true, executed.CtrlTarget
		}
	} else {
		p.nextEXMEM = Bubble()
	}

	// --- Decode/RegisterRead + load-use stall detection. ---
	loadUse := false
	if p.ifid.valid && !p.idex.IsBubble() {
		cur := p.idex.Payload()
		if cur.Decode.IsLoad && cur.Rd != 0 {
			next := decode.Decode(p.ifid.instr)
			if next.Rs1 == cur.Rd || (usesRs2(next) && next.Rs2 == cur.Rd) {
				loadUse = true
			}
		}
	}

	switch {
	case loadUse:
		p.nextIDEX = Bubble()
		p.nextIFID = p.ifid
		p.nextPC = p.pc
	case taken:
		p.nextIDEX = Bubble()
		p.nextIFID = p.fetch(target)
		p.nextPC = target + 4
	default:
		if p.ifid.valid {
			p.nextIDEX = Valid(p.decodeAndRead(p.ifid))
		} else {
			p.nextIDEX = Bubble()
		}
		p.nextIFID = p.fetch(p.pc)
		p.nextPC = p.pc + 4
	}
}

// usesRs2 reports whether s reads rs2 as a real source register. Stores
// and branches always do (rs2 carries store data / the compare operand
// independent of ALU's operand-B mux); ALU-reg does, ALU-imm does not.
func usesRs2(s decode.Signals) bool {
	return s.IsBranch || s.IsStore || (s.IsALU && !s.ImmAsOperandB)
}

// fetch reads one instruction word at addr.
func (p *PipeNyte) fetch(addr uint32) fetchEntry {
	return fetchEntry{valid: true, pc: addr, instr: p.IMem.ReadWord(addr)}
}

// decodeAndRead decodes fe's instruction and reads its operands,
// forwarding from EX/MEM and MEM/WB ahead of a stale register-file read.
func (p *PipeNyte) decodeAndRead(fe fetchEntry) Bundle {
	s := decode.Decode(fe.instr)
	rs1, rs2 := p.Regs.Read(regfile.ReadPort{ThreadID: 0, SrcA: s.Rs1, SrcB: s.Rs2})
	rs1 = p.resolveForward(s.Rs1, rs1)
	rs2 = p.resolveForward(s.Rs2, rs2)
	return Bundle{ThreadID: 0, PC: fe.pc, Instr: fe.instr, Decode: s, Rs1Data: rs1, Rs2Data: rs2, Rd: s.Rd}
}

// resolveForward prefers, in order: the result this very cycle's Execute
// block just computed (the immediately preceding instruction, in EX the
// same cycle this one is in ID — the back-to-back ALU-to-ALU case), then
// this very cycle's Mem block output (the producer two instructions
// back, entering Mem this same cycle — this is the tier a load producer
// needs, since its real data doesn't exist until Mem runs; the stale
// pre-Mem EX/MEM register's ALUResult is never used for this reason),
// then the already-latched MEM/WB register (three back, about to write
// back), and only then the register file's (necessarily stale, for any
// in-flight producer) value.
func (p *PipeNyte) resolveForward(src uint8, fallback uint32) uint32 {
	if src == 0 {
		return 0
	}
	if !p.nextEXMEM.IsBubble() {
		b := p.nextEXMEM.Payload()
		if b.DoRegWrite && b.Rd == src {
			return b.ALUResult
		}
	}
	if !p.nextMEMWB.IsBubble() {
		b := p.nextMEMWB.Payload()
		if b.DoRegWrite && b.Rd == src {
			return b.MemRdata
		}
	}
	if !p.memwb.IsBubble() {
		b := p.memwb.Payload()
		if b.DoRegWrite && b.Rd == src {
			return b.MemRdata
		}
	}
	return fallback
}

// runExecute executes b (ALU/Load-address/Store-address/Branch/JAL/
// JALR/LUI/AUIPC/MulDiv/System/illegal), producing the EX/MEM bundle.
func (p *PipeNyte) runExecute(b Bundle) Bundle {
	s := b.Decode
	switch {
	case s.Class == decode.ClassInvalid:
		b.Trap, b.TrapCause, b.TrapVal = true, CauseIllegalInstruction, b.Instr
	case s.IsFence:
	case s.IsSystem:
		r := ExecSystem(p.CSR, s, b.PC, b.Rs1Data)
		b.ALUResult, b.DoRegWrite = r.RdVal, r.DoRegWrite
		if r.Trapped {
			b.CtrlTaken, b.CtrlTarget = true, r.NextPC
		}
	case s.IsMulDiv:
		if muldiv.IsDivOp(s.MulDivOp) {
			b.ALUResult = muldiv.DivResult(s.MulDivOp, p.Div.Quotient(), p.Div.Remainder())
		} else {
			b.ALUResult = muldiv.ExecMul(s.MulDivOp, b.Rs1Data, b.Rs2Data)
		}
		b.DoRegWrite = true
	default:
		res := ExecuteBase(s, b.PC, b.Rs1Data, b.Rs2Data)
		b.ALUResult = res.ALUResult
		b.DoRegWrite = res.DoRegWrite
		b.CtrlTaken = res.CtrlTaken
		b.CtrlTarget = res.CtrlTarget
		b.Rs1Data = res.EffAddr // reuse Rs1Data as the effective address downstream for load/store
		b.Rs2Data = res.StoreData
	}
	return b
}

// runMem performs the MEM stage: loads/stores against DMem for e's
// bundle (if any), producing the MEM/WB bundle whose MemRdata carries
// the final writeback value for every instruction class (ALU result,
// load data, or CSR old-value). When the bundle traps — either already
// flagged coming out of EX, or a misaligned access discovered here —
// trapped reports true and trapPC carries the CSR-computed redirect
// target; runMem itself never touches live pipeline state, leaving that
// to its caller so the same-cycle squash of younger in-flight
// instructions actually happens.
func (p *PipeNyte) runMem(e Entry) (next Entry, trapped bool, trapPC uint32) {
	if e.IsBubble() {
		return Bubble(), false, 0
	}
	b := e.Payload()
	s := b.Decode
	if b.Trap {
		trapPC = p.CSR.Trap(b.PC, b.TrapCause, b.TrapVal)
		b.DoRegWrite = false
		b.MemRdata = 0
		return Valid(b), true, trapPC
	}
	switch {
	case s.IsLoad:
		width := widthFor(s.Funct3)
		addr := b.Rs1Data
		if lsu.LoadMisaligned(addr, width) {
			trapPC = p.CSR.Trap(b.PC, CauseMisalignedLoad, addr)
			b.DoRegWrite = false
			return Valid(b), true, trapPC
		}
		word := p.DMem.ReadWord(addr)
		signExtend := s.Funct3 == 0x0 || s.Funct3 == 0x1
		b.MemRdata = lsu.Load(addr, word, width, signExtend)
	case s.IsStore:
		width := widthFor(s.Funct3)
		addr := b.Rs1Data
		sr := lsu.Store(addr, b.Rs2Data, width)
		if sr.Misaligned {
			trapPC = p.CSR.Trap(b.PC, CauseMisalignedStore, addr)
			return Valid(b), true, trapPC
		}
		p.DMem.WriteWord(addr, sr.MemWrite, sr.Mask)
	default:
		b.MemRdata = b.ALUResult
	}
	return Valid(b), false, 0
}

// TickDone commits the shadow state computed by the most recent Tick.
func (p *PipeNyte) TickDone() {
	p.Regs.Stage(p.write)
	p.Regs.Commit()
	p.pc = p.nextPC
	p.ifid = p.nextIFID
	p.idex = p.nextIDEX
	p.exmem = p.nextEXMEM
	p.memwb = p.nextMEMWB
}
