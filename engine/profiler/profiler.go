package profiler

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Profiler tracks frame rate, memory statistics and named section timings.
// Frame stats are logged at a configurable interval; section timings are logged on Report.
type Profiler struct {
	mu  sync.Mutex
	log *zap.Logger

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	sections map[string]*section
	now      func() time.Time
}

// section accumulates the time spent between Begin and End calls of one name.
type section struct {
	started time.Time
	running bool
	total   time.Duration
	count   int
}

// SectionStats is the accumulated timing of one section.
type SectionStats struct {
	Name  string
	Total time.Duration
	Count int
}

// NewProfiler creates a new Profiler that reports through logger.
// Update interval defaults to 1 second. A nil logger discards output.
//
// Parameters:
//   - logger: the destination for profiler output
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *zap.Logger) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Profiler{
		log:            logger.Named("profiler"),
		lastTime:       time.Now(),
		updateInterval: time.Second,
		sections:       make(map[string]*section),
		now:            time.Now,
	}
}

// SetUpdateInterval changes how often Tick logs frame stats. Non-positive values are ignored.
//
// Parameters:
//   - d: the logging interval
func (p *Profiler) SetUpdateInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateInterval = d
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	p.log.Info("frame stats",
		zap.Float64("fps", fps),
		zap.Float64("heap_mb", allocMB),
		zap.Float64("alloc_rate_mb_s", allocRateMB),
		zap.Uint32("gc", gcCount),
		zap.Uint64("gc_last_us", lastPauseUs),
		zap.Uint64("gc_max_us", maxPauseUs),
		zap.Float64("sys_mb", sysMB),
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Begin starts timing the named section. Calling Begin on a running section restarts it.
//
// Parameters:
//   - name: the section name
func (p *Profiler) Begin(name string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sections[name]
	if !ok {
		s = &section{}
		p.sections[name] = s
	}
	s.started = p.now()
	s.running = true
}

// End stops timing the named section and adds the elapsed time to its total.
// End without a matching Begin is ignored.
//
// Parameters:
//   - name: the section name
//
// Returns:
//   - time.Duration: the time since the matching Begin
func (p *Profiler) End(name string) time.Duration {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sections[name]
	if !ok || !s.running {
		return 0
	}
	elapsed := p.now().Sub(s.started)
	s.total += elapsed
	s.count++
	s.running = false
	return elapsed
}

// Sections returns the accumulated section timings ordered by name.
//
// Returns:
//   - []SectionStats: one entry per section that completed at least once
func (p *Profiler) Sections() []SectionStats {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]SectionStats, 0, len(p.sections))
	for name, s := range p.sections {
		if s.count == 0 {
			continue
		}
		out = append(out, SectionStats{Name: name, Total: s.total, Count: s.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Report logs every section's accumulated timing and resets the totals.
func (p *Profiler) Report() {
	if p == nil {
		return
	}
	for _, s := range p.Sections() {
		p.log.Info("section timing",
			zap.String("section", s.Name),
			zap.Duration("total", s.Total),
			zap.Int("count", s.Count),
		)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for name, s := range p.sections {
		if !s.running {
			delete(p.sections, name)
		}
	}
}
