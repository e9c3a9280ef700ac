// Package profiler collects frame-time statistics and process and system memory figures,
// logging a summary at a fixed interval.
package profiler

import (
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-volume/common"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"gonum.org/v1/gonum/stat"
)

// DefaultWindow is the number of recent frame times kept for statistics.
const DefaultWindow = 240

// FrameTimes summarizes a window of frame times in milliseconds.
type FrameTimes struct {
	Samples int     `json:"samples"`
	MeanMS  float64 `json:"mean_ms"`
	StdDev  float64 `json:"stddev_ms"`
	MinMS   float64 `json:"min_ms"`
	MaxMS   float64 `json:"max_ms"`
	P50MS   float64 `json:"p50_ms"`
	P95MS   float64 `json:"p95_ms"`
	P99MS   float64 `json:"p99_ms"`
}

// System describes the host the viewer runs on.
type System struct {
	CPUModel    string  `json:"cpu_model,omitempty"`
	LogicalCPUs int     `json:"logical_cpus"`
	CPUPercent  float64 `json:"cpu_percent"`
	TotalMemMB  uint64  `json:"total_mem_mb"`
	UsedMemPct  float64 `json:"used_mem_percent"`
}

// Stats is a point-in-time profiler snapshot.
type Stats struct {
	FPS        float64    `json:"fps"`
	HeapMB     float64    `json:"heap_mb"`
	SysMB      float64    `json:"sys_mb"`
	NumGC      uint32     `json:"num_gc"`
	FrameTimes FrameTimes `json:"frame_times"`
	System     System     `json:"system"`
}

// Profiler tracks frame rate, frame times and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	mu *sync.Mutex

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	frameTimes []float64
	next       int
	filled     bool

	last Stats
}

// ProfilerOption configures a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often Tick logs a summary.
//
// Parameters:
//   - interval: the reporting interval, ignored when not positive
//
// Returns:
//   - ProfilerOption: the option
func WithInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithWindow sets how many recent frame times feed the statistics.
//
// Parameters:
//   - n: the window size, ignored when not positive
//
// Returns:
//   - ProfilerOption: the option
func WithWindow(n int) ProfilerOption {
	return func(p *Profiler) {
		if n > 0 {
			p.frameTimes = make([]float64, n)
		}
	}
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		mu:             &sync.Mutex{},
		lastTime:       time.Now(),
		updateInterval: time.Second,
		frameTimes:     make([]float64, DefaultWindow),
	}
	for _, opt := range options {
		opt(p)
	}
	p.last.System = collectSystem()
	return p
}

// Record adds one measured frame time to the window.
func (p *Profiler) Record(frameTime time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frameTimes[p.next] = float64(frameTime) / float64(time.Millisecond)
	p.next = (p.next + 1) % len(p.frameTimes)
	if p.next == 0 {
		p.filled = true
	}
}

func (p *Profiler) window() []float64 {
	if p.filled {
		return slices.Clone(p.frameTimes)
	}
	return slices.Clone(p.frameTimes[:p.next])
}

// Tick should be called once per drawn frame.
// Logs performance statistics when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	var maxPauseUs uint64
	gcCount := p.memStats.NumGC
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	p.last.FPS = float64(p.frameCount) / elapsed.Seconds()
	p.last.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	p.last.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	p.last.NumGC = gcCount
	p.last.FrameTimes = Summarize(p.window())
	p.last.System = collectSystem()

	common.Logger().Info("profiler",
		"fps", p.last.FPS,
		"frame_mean_ms", p.last.FrameTimes.MeanMS,
		"frame_p95_ms", p.last.FrameTimes.P95MS,
		"heap_mb", p.last.HeapMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_max_pause_us", maxPauseUs,
		"cpu_percent", p.last.System.CPUPercent)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Snapshot returns the statistics of the last report with the frame-time window recomputed.
func (p *Profiler) Snapshot() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.last
	s.FrameTimes = Summarize(p.window())
	return s
}

// Summarize computes mean, standard deviation, extremes and quantiles of frame times in
// milliseconds. An empty input yields the zero value.
//
// Parameters:
//   - ms: frame times in milliseconds, in any order
//
// Returns:
//   - FrameTimes: the summary
func Summarize(ms []float64) FrameTimes {
	if len(ms) == 0 {
		return FrameTimes{}
	}
	sorted := slices.Clone(ms)
	slices.Sort(sorted)

	out := FrameTimes{
		Samples: len(sorted),
		MinMS:   sorted[0],
		MaxMS:   sorted[len(sorted)-1],
		P50MS:   stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P95MS:   stat.Quantile(0.95, stat.Empirical, sorted, nil),
		P99MS:   stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		out.MeanMS, out.StdDev = stat.MeanStdDev(sorted, nil)
	} else {
		out.MeanMS = sorted[0]
	}
	return out
}

// collectSystem reads host CPU and memory figures. Fields it cannot read stay zero.
func collectSystem() System {
	s := System{LogicalCPUs: runtime.NumCPU()}
	if info, err := cpu.Info(); err == nil && len(info) > 0 {
		s.CPUModel = info[0].ModelName
	}
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.TotalMemMB = vm.Total / 1024 / 1024
		s.UsedMemPct = vm.UsedPercent
	}
	return s
}
