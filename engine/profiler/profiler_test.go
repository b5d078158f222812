package profiler

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestSectionsAccumulate(t *testing.T) {
	p := NewProfiler(nil)
	p.now = fakeClock(10 * time.Millisecond)

	p.Begin("decode")
	if got := p.End("decode"); got != 10*time.Millisecond {
		t.Errorf("End = %v, want 10ms", got)
	}
	p.Begin("decode")
	p.End("decode")
	p.Begin("upload")
	p.End("upload")

	stats := p.Sections()
	if len(stats) != 2 {
		t.Fatalf("got %d sections, want 2", len(stats))
	}
	if stats[0].Name != "decode" || stats[0].Count != 2 || stats[0].Total != 20*time.Millisecond {
		t.Errorf("unexpected decode stats %+v", stats[0])
	}
	if stats[1].Name != "upload" || stats[1].Count != 1 {
		t.Errorf("unexpected upload stats %+v", stats[1])
	}
}

func TestEndWithoutBeginIsIgnored(t *testing.T) {
	p := NewProfiler(nil)
	if got := p.End("never"); got != 0 {
		t.Errorf("End = %v, want 0", got)
	}
	if len(p.Sections()) != 0 {
		t.Error("unmatched End created a section")
	}
}

func TestReportLogsAndResets(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewProfiler(zap.New(core))
	p.now = fakeClock(time.Millisecond)

	p.Begin("graph")
	p.End("graph")
	p.Report()

	entries := logs.FilterMessage("section timing").All()
	if len(entries) != 1 {
		t.Fatalf("got %d section log entries, want 1", len(entries))
	}
	if entries[0].ContextMap()["section"] != "graph" {
		t.Errorf("unexpected fields %v", entries[0].ContextMap())
	}
	if len(p.Sections()) != 0 {
		t.Error("Report did not reset the sections")
	}
}

func TestTickLogsOncePerInterval(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewProfiler(zap.New(core))
	p.now = fakeClock(300 * time.Millisecond)
	p.lastTime = time.Unix(0, 0)

	logged := 0
	for i := 0; i < 4; i++ {
		if p.Tick() {
			logged++
		}
	}
	// Readings at 300, 600, 900 and 1200ms: only the last crosses the one second interval.
	if logged != 1 {
		t.Errorf("Tick logged %d times, want 1", logged)
	}
	if logs.FilterMessage("frame stats").Len() != 1 {
		t.Error("frame stats were not logged")
	}
}

func TestNilProfilerIsSafe(t *testing.T) {
	var p *Profiler
	p.Begin("x")
	p.End("x")
	p.Report()
	if p.Sections() != nil {
		t.Error("nil profiler returned sections")
	}
}

func TestSetUpdateInterval(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	p := NewProfiler(zap.New(core))
	p.now = fakeClock(300 * time.Millisecond)
	p.lastTime = time.Unix(0, 0)

	p.SetUpdateInterval(0)
	p.SetUpdateInterval(500 * time.Millisecond)

	if p.Tick() {
		t.Error("300ms is below the 500ms interval")
	}
	if !p.Tick() {
		t.Error("600ms should cross the 500ms interval")
	}
}
