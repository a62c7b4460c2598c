package memdiag

import (
	"runtime"
	"runtime/debug"
	"testing"
	"time"
)

type fakeSource struct {
	snap  Snapshot
	reads int
}

func (f *fakeSource) Snapshot() Snapshot {
	f.reads++
	return f.snap
}

func TestBaselineSince(t *testing.T) {
	src := &fakeSource{snap: Snapshot{Collections: 7, PauseMs: 40}}
	base := CaptureBaseline(src)

	if count, ms := base.Since(); count != 0 || ms != 0 {
		t.Errorf("Since() right after capture = (%d, %d), want (0, 0)", count, ms)
	}

	src.snap = Snapshot{Collections: 10, PauseMs: 55}
	count, ms := base.Since()
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	if ms != 15 {
		t.Errorf("timeMs = %d, want 15", ms)
	}
}

func TestBaselineDeltaDoesNotRead(t *testing.T) {
	src := &fakeSource{snap: Snapshot{Collections: 2, PauseMs: 5}}
	base := CaptureBaseline(src)

	count, ms := base.Delta(Snapshot{Collections: 6, PauseMs: 9, HeapBytes: 1 << 20})
	if count != 4 || ms != 4 {
		t.Errorf("Delta = (%d, %d), want (4, 4)", count, ms)
	}
	if src.reads != 1 {
		t.Errorf("source read %d times, want only the baseline read", src.reads)
	}
}

func TestRuntimeCountersNonDecreasing(t *testing.T) {
	var src Runtime
	before := src.Snapshot()

	runtime.GC()

	after := src.Snapshot()
	if after.Collections < before.Collections+1 {
		t.Errorf("Collections after runtime.GC = %d, want >= %d", after.Collections, before.Collections+1)
	}
	if after.PauseMs < before.PauseMs {
		t.Errorf("PauseMs decreased: %d -> %d", before.PauseMs, after.PauseMs)
	}
}

func TestRuntimeHeapUsed(t *testing.T) {
	var src Runtime
	if src.Snapshot().HeapBytes == 0 {
		t.Error("HeapBytes = 0, want > 0 in a running process")
	}
}

func TestReadCollectorInfoMatchesSettings(t *testing.T) {
	prev := debug.SetGCPercent(73)
	defer debug.SetGCPercent(prev)

	if got := ReadCollectorInfo().GCPercent; got != 73 {
		t.Errorf("GCPercent = %d, want 73", got)
	}

	debug.SetGCPercent(-1)
	if got := ReadCollectorInfo().GCPercent; got != -1 {
		t.Errorf("GCPercent with GOGC=off = %d, want -1", got)
	}
}

func TestReadCollectorInfoMemoryLimit(t *testing.T) {
	prev := debug.SetMemoryLimit(512 << 20)
	defer debug.SetMemoryLimit(prev)

	info := ReadCollectorInfo()
	if info.MemoryLimit != 512<<20 {
		t.Errorf("MemoryLimit = %d, want %d", info.MemoryLimit, 512<<20)
	}
	if !info.HasMemoryLimit() {
		t.Error("HasMemoryLimit() = false with a limit set")
	}
}

func TestReadCollectorInfo(t *testing.T) {
	info := ReadCollectorInfo()

	if info.Name == "" {
		t.Error("expected collector name")
	}
	if info.GOMAXPROCS < 1 {
		t.Errorf("GOMAXPROCS = %d, want >= 1", info.GOMAXPROCS)
	}

	// Reading must not change the setting.
	again := ReadCollectorInfo()
	if again.GCPercent != info.GCPercent {
		t.Errorf("GCPercent changed by read: %d -> %d", info.GCPercent, again.GCPercent)
	}
	if again.MemoryLimit != info.MemoryLimit {
		t.Errorf("MemoryLimit changed by read: %d -> %d", info.MemoryLimit, again.MemoryLimit)
	}
}

func TestFormatMB(t *testing.T) {
	if got := FormatMB(3 * 1024 * 1024 / 2); got != "1.5MB" {
		t.Errorf("FormatMB = %q, want 1.5MB", got)
	}
}

func TestTrackerDisabled(t *testing.T) {
	tr := NewTracker(Config{Enabled: false}, "sampler")
	tr.Start()
	tr.LogNow("manual")
	tr.Stop()

	if tr.PeakHeap() != 0 {
		t.Errorf("disabled tracker recorded peak heap %d", tr.PeakHeap())
	}
}

func TestTrackerEnabled(t *testing.T) {
	tr := NewTracker(Config{Enabled: true, LogInterval: time.Hour}, "probe")
	tr.Start()
	tr.LogNow("manual")
	tr.Stop()

	if tr.PeakHeap() == 0 {
		t.Error("expected enabled tracker to record peak heap")
	}
}
