// Package performance measures what a read costs: throughput, heap growth,
// garbage collections and process resources sampled through gopsutil.
package performance

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// ResourceMonitor samples the resources of the current process
type ResourceMonitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time
	mu           sync.RWMutex
}

// NewResourceMonitor creates a resource monitor for this process
func NewResourceMonitor() (*ResourceMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	rm := &ResourceMonitor{process: proc, startTime: time.Now()}
	if cpuTime, err := proc.Times(); err == nil {
		rm.startCPUTime = cpuTime.Total()
	}
	return rm, nil
}

// Usage returns current resource usage. Fields the platform cannot report
// stay zero.
func (rm *ResourceMonitor) Usage() *ResourceUsage {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	usage := &ResourceUsage{}

	// CPU usage since the monitor started
	if cpuTime, err := rm.process.Times(); err == nil {
		if elapsed := time.Since(rm.startTime).Seconds(); elapsed > 0 {
			usage.CPUPercent = ((cpuTime.Total() - rm.startCPUTime) / elapsed) * 100
		}
	}

	if memInfo, err := rm.process.MemoryInfo(); err == nil {
		usage.MemoryRSS = memInfo.RSS
		usage.MemoryVMS = memInfo.VMS
	}

	// System memory
	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemoryPercent = vmStat.UsedPercent
		usage.SystemMemoryAvailable = vmStat.Available
	}

	usage.GoroutineCount = runtime.NumGoroutine()
	usage.ThreadCount, _ = rm.process.NumThreads()
	usage.OpenFDs, _ = rm.process.NumFDs()

	return usage
}

// ResourceUsage contains resource usage information
type ResourceUsage struct {
	CPUPercent            float64
	MemoryRSS             uint64
	MemoryVMS             uint64
	SystemMemoryPercent   float64
	SystemMemoryAvailable uint64
	GoroutineCount        int
	ThreadCount           int32
	OpenFDs               int32
}

// Profiler brackets one read
type Profiler struct {
	start    time.Time
	memStats runtime.MemStats
	monitor  *ResourceMonitor
}

// Start begins profiling. Resource sampling is skipped when the process
// cannot be inspected.
func Start() *Profiler {
	p := &Profiler{start: time.Now()}
	runtime.ReadMemStats(&p.memStats)
	if rm, err := NewResourceMonitor(); err == nil {
		p.monitor = rm
	}
	return p
}

// Report summarizes a profiled read
type Report struct {
	Rows     int
	Bytes    int64
	Duration time.Duration

	RowsPerSecond  float64
	BytesPerSecond float64

	// HeapGrowthMB is the heap allocated during the read that is still live
	HeapGrowthMB float64
	// TotalAllocMB counts every allocation made during the read
	TotalAllocMB float64
	GCCount      uint32
	GCPauseTotal time.Duration

	Usage *ResourceUsage
}

// Stop ends profiling and reports against rows converted into bytes of
// output
func (p *Profiler) Stop(rows int, bytes int64) *Report {
	elapsed := time.Since(p.start)
	var after runtime.MemStats
	runtime.ReadMemStats(&after)

	r := &Report{
		Rows:         rows,
		Bytes:        bytes,
		Duration:     elapsed,
		HeapGrowthMB: (float64(after.HeapAlloc) - float64(p.memStats.HeapAlloc)) / (1 << 20),
		TotalAllocMB: float64(after.TotalAlloc-p.memStats.TotalAlloc) / (1 << 20),
		GCCount:      after.NumGC - p.memStats.NumGC,
		GCPauseTotal: time.Duration(after.PauseTotalNs - p.memStats.PauseTotalNs),
	}
	if s := elapsed.Seconds(); s > 0 {
		r.RowsPerSecond = float64(rows) / s
		r.BytesPerSecond = float64(bytes) / s
	}
	if p.monitor != nil {
		r.Usage = p.monitor.Usage()
	}
	return r
}

// Fields renders the report as log fields
func (r *Report) Fields() []zap.Field {
	fields := []zap.Field{
		zap.Int("rows", r.Rows),
		zap.Int64("bytes", r.Bytes),
		zap.Duration("duration", r.Duration),
		zap.Float64("rows_per_second", r.RowsPerSecond),
		zap.Float64("heap_growth_mb", r.HeapGrowthMB),
		zap.Uint32("gc_count", r.GCCount),
	}
	if r.Usage != nil {
		fields = append(fields,
			zap.Uint64("rss_bytes", r.Usage.MemoryRSS),
			zap.Float64("cpu_percent", r.Usage.CPUPercent),
		)
	}
	return fields
}

// Write prints the report as aligned text
func (r *Report) Write(w io.Writer) error {
	lines := []string{
		fmt.Sprintf("rows:          %d", r.Rows),
		fmt.Sprintf("bytes:         %d", r.Bytes),
		fmt.Sprintf("duration:      %s", r.Duration),
		fmt.Sprintf("rows/s:        %.0f", r.RowsPerSecond),
		fmt.Sprintf("MB/s:          %.2f", r.BytesPerSecond/(1<<20)),
		fmt.Sprintf("heap growth:   %.2f MB", r.HeapGrowthMB),
		fmt.Sprintf("allocated:     %.2f MB", r.TotalAllocMB),
		fmt.Sprintf("gc:            %d (%s paused)", r.GCCount, r.GCPauseTotal),
	}
	if u := r.Usage; u != nil {
		lines = append(lines,
			fmt.Sprintf("rss:           %.2f MB", float64(u.MemoryRSS)/(1<<20)),
			fmt.Sprintf("cpu:           %.1f%%", u.CPUPercent),
			fmt.Sprintf("threads:       %d", u.ThreadCount),
		)
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
