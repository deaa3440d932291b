// Package metrics exposes Prometheus collectors for reads.
//
// # Basic Usage
//
//	timer := metrics.NewTimer("read")
//	res, err := readRows()
//	metrics.ObserveRead(metrics.Read{
//	    SourceKind: "file",
//	    Mode:       "two_pass",
//	    Rows:       res.Rows,
//	    Bytes:      n,
//	    Duration:   timer.Stop(),
//	    Err:        err,
//	})
//
// Collectors are registered with the default registry through promauto, so
// promhttp.Handler serves them without further setup.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/textreader/pkg/errors"
)

var (
	// RowsRead counts rows produced by reads.
	// Labels: source_kind (file/iterator/stream), status (success/error)
	RowsRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textreader_rows_read_total",
			Help: "Total number of rows converted",
		},
		[]string{"source_kind", "status"},
	)

	// BytesRead counts bytes of row data produced
	BytesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textreader_bytes_read_total",
			Help: "Total bytes of packed row data produced",
		},
		[]string{"source_kind"},
	)

	// ReadDuration tracks how long whole reads take.
	// Labels: mode (explicit/two_pass/deferred)
	ReadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "textreader_read_duration_seconds",
			Help: "Duration of reads in seconds",
			Buckets: []float64{
				0.0001, // 100μs - a handful of lines
				0.001,  // 1ms
				0.01,   // 10ms
				0.1,    // 100ms
				1,      // 1s - large files
				10,     // 10s
				60,     // 1m - very large or remote inputs
			},
		},
		[]string{"mode"},
	)

	// ChunksAllocated counts row store chunks
	ChunksAllocated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "textreader_chunks_allocated_total",
			Help: "Total number of row store chunks allocated",
		},
	)

	// Errors counts failed reads by error category
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textreader_errors_total",
			Help: "Total number of failed reads",
		},
		[]string{"type"},
	)

	// Throughput holds the rate of the last read
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "textreader_throughput_rows_per_second",
			Help: "Rows per second of the most recent read",
		},
		[]string{"source_kind"},
	)
)

// Read summarises one finished read
type Read struct {
	SourceKind string
	Mode       string
	Rows       int
	Bytes      int64
	Duration   time.Duration
	Err        error
}

// ObserveRead records a finished read in every collector it touches
func ObserveRead(r Read) {
	ReadDuration.WithLabelValues(r.Mode).Observe(r.Duration.Seconds())
	if r.Err != nil {
		RowsRead.WithLabelValues(r.SourceKind, "error").Add(float64(r.Rows))
		Errors.WithLabelValues(string(errors.TypeOf(r.Err))).Inc()
		return
	}
	RowsRead.WithLabelValues(r.SourceKind, "success").Add(float64(r.Rows))
	BytesRead.WithLabelValues(r.SourceKind).Add(float64(r.Bytes))
	if secs := r.Duration.Seconds(); secs > 0 {
		Throughput.WithLabelValues(r.SourceKind).Set(float64(r.Rows) / secs)
	}
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
// The name parameter is for identification in logs or metrics.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the name given to NewTimer
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. The timer can be
// stopped multiple times, each returning the total elapsed time.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
