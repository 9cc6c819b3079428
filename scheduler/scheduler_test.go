package scheduler

import "testing"

func TestNoTwoStagesSameThread(t *testing.T) {
	s := New(8, 8)
	for cycle := 0; cycle < 40; cycle++ {
		seen := map[int]bool{}
		for stage := 0; stage < 8; stage++ {
			th := s.StageThread(stage)
			if seen[th] {
				t.Fatalf("cycle %d: thread %d occupies two stages", cycle, th)
			}
			seen[th] = true
		}
		s.Tick()
		s.TickDone()
	}
}

func TestRotationAdvancesEveryCycle(t *testing.T) {
	s := New(8, 8)
	first := s.CurrentThread()
	s.Tick()
	s.TickDone()
	second := s.CurrentThread()
	if (first+1)%8 != second {
		t.Fatalf("thread did not advance round robin: first=%d second=%d", first, second)
	}
}

func TestDisabledThreadIsBubbleNotCompressed(t *testing.T) {
	s := New(8, 8)
	s.SetThreadEnable(3, false)
	foundInvalid := false
	for stage := 0; stage < 8; stage++ {
		if s.StageThread(stage) == 3 {
			if s.StageValid(stage) {
				t.Fatalf("stage %d holds disabled thread 3 but reports valid", stage)
			}
			foundInvalid = true
		}
	}
	if !foundInvalid {
		t.Fatal("thread 3 never appears in the schedule (schedule compressed around it)")
	}
}

func TestUnconditionalAdvance(t *testing.T) {
	s := New(8, 8)
	s.SetThreadEnable(0, false)
	before := s.offset
	s.Tick()
	s.TickDone()
	if s.offset != (before+1)%8 {
		t.Fatal("offset did not advance unconditionally despite a disabled thread")
	}
}
