// Package scheduler implements the barrel PipelineScheduler: a single
// rotating offset whose combinational outputs assign a thread ID to
// every pipeline stage, each cycle.
package scheduler

// Scheduler rotates numThreads threads through stageCount pipeline
// stages. In the canonical barrel configuration numThreads == stageCount
// so that numThreads >= pipelineDepth, eliminating intra-thread data
// hazards (spec §4.7): no thread is ever present in two stages at once.
type Scheduler struct {
	numThreads int
	stageCount int
	offset     int
	nextOffset int

	threadEnable []bool
}

// New creates a barrel scheduler for numThreads threads and stageCount
// pipeline stages. All threads start enabled.
func New(numThreads, stageCount int) *Scheduler {
	s := &Scheduler{
		numThreads:   numThreads,
		stageCount:   stageCount,
		threadEnable: make([]bool, numThreads),
	}
	for i := range s.threadEnable {
		s.threadEnable[i] = true
	}
	return s
}

// SetThreadEnable enables or disables a thread. A disabled thread is
// marked invalid in whatever stage it would otherwise occupy; the
// rotation schedule does not compress around it, so a disabled thread
// becomes a guaranteed bubble in that slot (spec §4.7).
func (s *Scheduler) SetThreadEnable(thread int, enabled bool) {
	s.threadEnable[thread] = enabled
}

// StageThread returns the thread ID assigned to stage i this cycle:
// (offset - i) mod numThreads.
func (s *Scheduler) StageThread(stage int) int {
	t := (s.offset - stage) % s.numThreads
	if t < 0 {
		t += s.numThreads
	}
	return t
}

// StageValid reports whether stage i holds a live instruction this cycle
// (false when the owning thread is disabled).
func (s *Scheduler) StageValid(stage int) bool {
	return s.threadEnable[s.StageThread(stage)]
}

// StageThreads and StageValids return the full per-stage vectors for this
// cycle, matching spec §4.7's `stageThreads[stageCount]`/
// `stageValids[stageCount]` outputs.
func (s *Scheduler) StageThreads() []int {
	out := make([]int, s.stageCount)
	for i := range out {
		out[i] = s.StageThread(i)
	}
	return out
}

func (s *Scheduler) StageValids() []bool {
	out := make([]bool, s.stageCount)
	for i := range out {
		out[i] = s.StageValid(i)
	}
	return out
}

// CurrentThread returns the thread ID owning the Fetch stage this cycle
// (stage 0 by convention — core tops may fetch from a different physical
// stage index, in which case they call StageThread directly instead).
func (s *Scheduler) CurrentThread() int {
	return s.StageThread(0)
}

// Tick computes the next cycle's offset into a shadow field; TickDone
// commits it. The offset increments unconditionally every cycle,
// regardless of thread enable state (spec §4.8: "curThread advances
// round-robin every cycle unconditionally").
func (s *Scheduler) Tick() {
	s.nextOffset = (s.offset + 1) % s.numThreads
}

// TickDone commits the offset computed by the most recent Tick call.
func (s *Scheduler) TickDone() {
	s.offset = s.nextOffset
}
