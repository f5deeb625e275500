package profiler

import (
	"testing"
	"time"
)

func TestTickReportsAtInterval(t *testing.T) {
	clock := time.Unix(0, 0)
	p := NewProfiler(WithInterval(100*time.Millisecond), WithQuiet())
	p.now = func() time.Time { return clock }
	p.lastTime, p.lastFrame = clock, clock

	frames := []time.Duration{10, 10, 30, 20, 30}
	var reported bool
	for i, d := range frames {
		clock = clock.Add(d * time.Millisecond)
		reported = p.Tick()
		if i < len(frames)-1 && reported {
			t.Fatalf("reported early at frame %d", i)
		}
	}
	if !reported {
		t.Fatal("expected a report after 100ms")
	}

	s := p.Last()
	if s.Frames != 5 {
		t.Errorf("Frames = %d, want 5", s.Frames)
	}
	if s.FPS != 50 {
		t.Errorf("FPS = %v, want 50", s.FPS)
	}
	if s.AvgFrameTime != 20*time.Millisecond {
		t.Errorf("AvgFrameTime = %v", s.AvgFrameTime)
	}
	if s.MaxFrameTime != 30*time.Millisecond {
		t.Errorf("MaxFrameTime = %v", s.MaxFrameTime)
	}

	clock = clock.Add(5 * time.Millisecond)
	if p.Tick() {
		t.Error("counters should reset after a report")
	}
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	if p := NewProfiler(WithInterval(0)); p.updateInterval != time.Second {
		t.Errorf("interval = %v, want 1s", p.updateInterval)
	}
}
