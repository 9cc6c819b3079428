// Package regfile implements the multi-thread, multi-port register file
// shared by every KryptoNyte family member. Reads reflect the value at
// the start of the clock cycle; writes are staged and committed in a
// single Commit call so same-cycle read/write and multi-write-port
// ordering behave exactly per spec §4.5.
package regfile

// ReadPort is one read port's request: which thread, which two sources.
type ReadPort struct {
	ThreadID uint8
	SrcA     uint8
	SrcB     uint8
}

// WritePort is one write port's staged request.
type WritePort struct {
	ThreadID uint8
	Dst      uint8
	Data     uint32
	Wen      bool
}

// RegFile is a [thread][register] array of 32-bit words, x0 hardwired to
// read as zero regardless of writes.
type RegFile struct {
	numThreads int
	regs       [][32]uint32
	pending    []WritePort
}

// New allocates a register file for numThreads hardware threads.
func New(numThreads int) *RegFile {
	return &RegFile{
		numThreads: numThreads,
		regs:       make([][32]uint32, numThreads),
	}
}

// Read drives a read port and returns (dataA, dataB) as observed at the
// start of the current cycle — any writes staged via Stage this cycle are
// not yet visible (write-after-read within a clock boundary reads old).
func (r *RegFile) Read(p ReadPort) (a, b uint32) {
	return r.readOne(p.ThreadID, p.SrcA), r.readOne(p.ThreadID, p.SrcB)
}

func (r *RegFile) readOne(thread, idx uint8) uint32 {
	if idx == 0 {
		return 0
	}
	return r.regs[thread][idx]
}

// Stage queues a write to be applied on the next Commit. Writes to x0 are
// silently dropped (a no-op), matching the x0-is-always-zero invariant.
func (r *RegFile) Stage(p WritePort) {
	if !p.Wen || p.Dst == 0 {
		return
	}
	r.pending = append(r.pending, p)
}

// Commit applies all writes staged since the last Commit. When multiple
// staged writes target the same (thread, register), the last one staged
// (i.e. the last write port in declaration order, since callers stage
// ports in port order) wins. Commit must run after every read for the
// cycle has already observed pre-write state.
func (r *RegFile) Commit() {
	for _, p := range r.pending {
		r.regs[p.ThreadID][p.Dst] = p.Data
	}
	r.pending = r.pending[:0]
}

// Snapshot returns a copy of thread's 32 registers, for debug/test
// introspection (see SPEC_FULL.md §4.8.1, Open Question 4: this is the
// single source of truth, there is no shadow debug array).
func (r *RegFile) Snapshot(thread uint8) [32]uint32 {
	return r.regs[thread]
}

// NumThreads returns the number of threads this register file serves.
func (r *RegFile) NumThreads() int {
	return r.numThreads
}
