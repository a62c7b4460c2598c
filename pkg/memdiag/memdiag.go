// Package memdiag reads collector statistics from the Go runtime and offers
// periodic memory logging while a harness runs.
//
// Enable periodic logging with GCPRESSURE_MEM_DEBUG=1
// Enable pprof server with GCPRESSURE_MEM_PPROF=1 (listens on :6060)
package memdiag

import (
	"fmt"
	"math"
	"net/http"
	"os"
	"runtime"
	"runtime/metrics"
	"sync"
	"sync/atomic"
	"time"

	// Registers pprof handlers on DefaultServeMux for the pprof HTTP server.
	_ "net/http/pprof"

	"github.com/eunmann/gcpressure/pkg/logging"
)

// Snapshot is one consistent reading of the collector counters and the heap.
// Collections and PauseMs are cumulative since process start.
type Snapshot struct {
	Collections int64
	PauseMs     int64
	HeapBytes   uint64
}

// Source takes collector snapshots. Counters are monotonically
// non-decreasing across snapshots.
type Source interface {
	Snapshot() Snapshot
}

// Stats holds memory statistics from runtime.
type Stats struct {
	// HeapAlloc is bytes of allocated heap objects.
	HeapAlloc uint64

	// HeapSys is bytes obtained from OS for heap.
	HeapSys uint64

	// HeapInuse is bytes in in-use spans.
	HeapInuse uint64

	// Sys is bytes obtained from OS.
	Sys uint64

	// NumGC is the number of completed GC cycles.
	NumGC uint32

	// PauseTotalNs is the cumulative stop-the-world pause time.
	PauseTotalNs uint64

	// GCCPUFraction is the fraction of CPU used by GC.
	GCCPUFraction float64
}

// Read reads current memory statistics.
func Read() Stats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return Stats{
		HeapAlloc:     m.HeapAlloc,
		HeapSys:       m.HeapSys,
		HeapInuse:     m.HeapInuse,
		Sys:           m.Sys,
		NumGC:         m.NumGC,
		PauseTotalNs:  m.PauseTotalNs,
		GCCPUFraction: m.GCCPUFraction,
	}
}

// Runtime is the Source backed by runtime.ReadMemStats. Each Snapshot
// reads the stats once.
type Runtime struct{}

// Snapshot reads the completed GC cycles, the cumulative pause time and the
// bytes of allocated heap objects from a single MemStats.
func (Runtime) Snapshot() Snapshot {
	stats := Read()
	return Snapshot{
		Collections: int64(stats.NumGC),
		PauseMs:     int64(stats.PauseTotalNs / uint64(time.Millisecond)),
		HeapBytes:   stats.HeapAlloc,
	}
}

// Baseline subtracts the counters observed when it was captured.
type Baseline struct {
	src  Source
	base Snapshot
}

// CaptureBaseline records the current counters of src.
func CaptureBaseline(src Source) Baseline {
	return Baseline{src: src, base: src.Snapshot()}
}

// Delta returns the collections and pause milliseconds between the baseline
// and s.
func (b Baseline) Delta(s Snapshot) (count, timeMs int64) {
	return s.Collections - b.base.Collections, s.PauseMs - b.base.PauseMs
}

// Since takes a new snapshot and returns its Delta.
func (b Baseline) Since() (count, timeMs int64) {
	return b.Delta(b.src.Snapshot())
}

// CollectorInfo describes the collector configuration of this process.
type CollectorInfo struct {
	Name string

	// GCPercent is the GOGC value; negative when the collector is off.
	GCPercent int

	// MemoryLimit is the soft memory limit in bytes; math.MaxInt64 when unset.
	MemoryLimit int64

	GOMAXPROCS int
}

// HasMemoryLimit reports whether a soft memory limit is configured.
func (c CollectorInfo) HasMemoryLimit() bool {
	return c.MemoryLimit != math.MaxInt64
}

// ReadCollectorInfo reads the collector settings from runtime/metrics
// without changing them.
func ReadCollectorInfo() CollectorInfo {
	samples := []metrics.Sample{
		{Name: "/gc/gogc:percent"},
		{Name: "/gc/gomemlimit:bytes"},
	}
	metrics.Read(samples)

	info := CollectorInfo{
		Name:        "go concurrent mark-sweep (" + runtime.Version() + ")",
		GCPercent:   100,
		MemoryLimit: math.MaxInt64,
		GOMAXPROCS:  runtime.GOMAXPROCS(0),
	}
	// GOGC=off is stored as -1 and reads back as its uint64 bit pattern.
	if v := samples[0].Value; v.Kind() == metrics.KindUint64 {
		info.GCPercent = int(int64(v.Uint64()))
	}
	if v := samples[1].Value; v.Kind() == metrics.KindUint64 {
		info.MemoryLimit = int64(v.Uint64())
	}
	return info
}

// Config holds configuration for memory diagnostics.
type Config struct {
	// Enabled controls whether periodic memory logging is active.
	Enabled bool

	// PprofEnabled controls whether pprof server is started.
	PprofEnabled bool

	// LogInterval is the interval for periodic memory logging.
	LogInterval time.Duration
}

// DefaultConfig returns the default configuration, reading from environment.
func DefaultConfig() Config {
	return Config{
		Enabled:      os.Getenv("GCPRESSURE_MEM_DEBUG") == "1",
		PprofEnabled: os.Getenv("GCPRESSURE_MEM_PPROF") == "1",
		LogInterval:  5 * time.Second,
	}
}

// FormatMB formats bytes as megabytes.
func FormatMB(b uint64) string {
	return fmt.Sprintf("%.1fMB", float64(b)/(1024*1024))
}

// Tracker logs memory usage periodically while a harness runs.
type Tracker struct {
	config   Config
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  atomic.Bool
	mu       sync.Mutex
	harness  string
	peakHeap uint64
}

// NewTracker creates a new memory tracker for the named harness.
func NewTracker(config Config, harness string) *Tracker {
	return &Tracker{
		config:  config,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		harness: harness,
	}
}

// Start begins periodic memory logging if enabled.
func (t *Tracker) Start() {
	if !t.config.Enabled {
		return
	}

	if !t.started.CompareAndSwap(false, true) {
		return
	}

	log := logging.L()
	log.Info().Str("harness", t.harness).Msg("memory diagnostics enabled")

	if t.config.PprofEnabled {
		go func() {
			log.Info().Str("addr", ":6060").Msg("starting pprof server")
			if err := http.ListenAndServe(":6060", nil); err != nil {
				log.Error().Err(err).Msg("pprof server failed")
			}
		}()
	}

	go t.logLoop()
}

// Stop stops the tracker and waits for the final log line.
func (t *Tracker) Stop() {
	if !t.started.Load() {
		return
	}
	close(t.stopCh)
	<-t.doneCh
}

// LogNow logs current memory stats immediately.
func (t *Tracker) LogNow(reason string) {
	if !t.config.Enabled {
		return
	}

	stats := Read()

	t.mu.Lock()
	if stats.HeapAlloc > t.peakHeap {
		t.peakHeap = stats.HeapAlloc
	}
	peakHeap := t.peakHeap
	t.mu.Unlock()

	logging.L().Debug().
		Str("reason", reason).
		Str("harness", t.harness).
		Str("heap_alloc", FormatMB(stats.HeapAlloc)).
		Str("heap_sys", FormatMB(stats.HeapSys)).
		Str("heap_inuse", FormatMB(stats.HeapInuse)).
		Str("sys_total", FormatMB(stats.Sys)).
		Str("peak_heap", FormatMB(peakHeap)).
		Uint32("num_gc", stats.NumGC).
		Float64("gc_pause_ms", float64(stats.PauseTotalNs)/float64(time.Millisecond)).
		Float64("gc_cpu_pct", stats.GCCPUFraction*100).
		Msg("memory stats")
}

// PeakHeap returns the peak heap allocation seen.
func (t *Tracker) PeakHeap() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peakHeap
}

func (t *Tracker) logLoop() {
	defer close(t.doneCh)

	ticker := time.NewTicker(t.config.LogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopCh:
			t.LogNow("shutdown")
			return
		case <-ticker.C:
			t.LogNow("periodic")
		}
	}
}
