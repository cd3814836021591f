package profiler

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(time.Second))

	for i := 0; i < 9; i++ {
		clock.t = clock.t.Add(100 * time.Millisecond)
		p.RecordUpdate(2 * time.Millisecond)
		if _, ok := p.Tick(); ok {
			t.Fatalf("tick %d: reported before the interval elapsed", i)
		}
	}

	clock.t = clock.t.Add(100 * time.Millisecond)
	p.RecordUpdate(2 * time.Millisecond)
	stats, ok := p.Tick()
	if !ok {
		t.Fatal("tick 10: got no report, want one")
	}
	if stats.FPS < 9.99 || stats.FPS > 10.01 {
		t.Errorf("FPS: got %v, want 10", stats.FPS)
	}
	if stats.UpdateAvg != 2*time.Millisecond {
		t.Errorf("UpdateAvg: got %v, want 2ms", stats.UpdateAvg)
	}
	if stats.SysMB <= 0 {
		t.Errorf("SysMB: got %v, want > 0", stats.SysMB)
	}

	clock.t = clock.t.Add(100 * time.Millisecond)
	if _, ok := p.Tick(); ok {
		t.Error("tick after report: got a report, want the interval to restart")
	}
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	if p.updateInterval != time.Second {
		t.Errorf("interval: got %v, want 1s", p.updateInterval)
	}
}
