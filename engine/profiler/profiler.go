package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-avatar/engine/logger"
	"go.uber.org/zap"
)

// Stats is one interval's worth of frame and memory statistics.
type Stats struct {
	FPS         float64
	UpdateAvg   time.Duration // mean avatar update time per frame
	HeapMB      float64
	AllocRateMB float64 // MB allocated per second
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64 // max GC pause since the previous interval
	SysMB       float64
}

// Profiler tracks frame rate, avatar update time and memory statistics, logging them through
// zap at a fixed interval.
type Profiler struct {
	frameCount     int
	updateTotal    time.Duration
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	now func() time.Time
	log *zap.Logger
}

// ProfilerOption configures a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often statistics are reported. Non-positive values are ignored.
func WithInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithClock replaces time.Now, for deterministic tests.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
		log:            logger.Named("profiler"),
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// RecordUpdate adds one frame's avatar update duration to the current interval.
//
// Parameters:
//   - d: the time spent in the avatar update
func (p *Profiler) RecordUpdate(d time.Duration) {
	p.updateTotal += d
}

// Tick should be called once per frame. When the update interval has elapsed it logs and
// returns the interval's statistics.
//
// Returns:
//   - Stats: the statistics for the finished interval (zero when not reported)
//   - bool: true if stats were reported this tick
func (p *Profiler) Tick() (Stats, bool) {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Stats{}, false
	}

	runtime.ReadMemStats(&p.memStats)

	stats := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		UpdateAvg:   p.updateTotal / time.Duration(p.frameCount),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
	}

	if gcCount := p.memStats.NumGC; gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		stats.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > stats.MaxPauseUs {
				stats.MaxPauseUs = pause
			}
		}
	}

	p.log.Info("frame stats",
		zap.Float64("fps", stats.FPS),
		zap.Duration("update_avg", stats.UpdateAvg),
		zap.Float64("heap_mb", stats.HeapMB),
		zap.Float64("alloc_mb_s", stats.AllocRateMB),
		zap.Uint32("gc", stats.GCCount),
		zap.Uint64("gc_last_us", stats.LastPauseUs),
		zap.Uint64("gc_max_us", stats.MaxPauseUs),
		zap.Float64("sys_mb", stats.SysMB),
	)

	p.frameCount = 0
	p.updateTotal = 0
	p.lastTime = currentTime
	p.lastGCCount = stats.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return stats, true
}
