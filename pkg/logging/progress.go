package logging

import (
	"sync/atomic"
	"time"

	"github.com/eunmann/gcpressure/pkg/humanfmt"
	"github.com/rs/zerolog"
)

// ProgressTracker tracks how many iterations of a fixed-size run completed
// and estimates the remaining time. It is safe for concurrent use.
type ProgressTracker struct {
	total     int64
	completed atomic.Int64
	startTime time.Time
	now       func() time.Time
}

// NewProgressTracker creates a tracker for total iterations starting now.
func NewProgressTracker(total int64) *ProgressTracker {
	return newProgressTracker(total, time.Now)
}

func newProgressTracker(total int64, now func() time.Time) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startTime: now(),
		now:       now,
	}
}

// Advance records n more completed iterations.
func (pt *ProgressTracker) Advance(n int64) {
	pt.completed.Add(n)
}

// Completed returns the completed count.
func (pt *ProgressTracker) Completed() int64 {
	return pt.completed.Load()
}

// Total returns the total count.
func (pt *ProgressTracker) Total() int64 {
	return pt.total
}

// ProgressPct returns the progress percentage (0-100).
func (pt *ProgressTracker) ProgressPct() float64 {
	if pt.total == 0 {
		return 100.0
	}
	return float64(pt.completed.Load()) * 100.0 / float64(pt.total)
}

// Elapsed returns time since tracking started.
func (pt *ProgressTracker) Elapsed() time.Duration {
	return pt.now().Sub(pt.startTime)
}

// ETA returns the estimated time remaining based on the average rate so far.
func (pt *ProgressTracker) ETA() time.Duration {
	completed := pt.completed.Load()
	if completed == 0 {
		return 0
	}
	remaining := pt.total - completed
	if remaining <= 0 {
		return 0
	}
	perItem := pt.Elapsed() / time.Duration(completed)
	return perItem * time.Duration(remaining)
}

// CompletionEvent helps build consistent completion log events.
type CompletionEvent struct {
	log     zerolog.Logger
	event   string
	harness string
	elapsed time.Duration
	keys    []string
	fields  map[string]interface{}
}

// NewCompletionEvent creates a new completion event builder.
func NewCompletionEvent(log zerolog.Logger, event, harness string, elapsed time.Duration) *CompletionEvent {
	return &CompletionEvent{
		log:     log,
		event:   event,
		harness: harness,
		elapsed: elapsed,
		fields:  make(map[string]interface{}),
	}
}

func (ce *CompletionEvent) set(key string, val interface{}) {
	if _, ok := ce.fields[key]; !ok {
		ce.keys = append(ce.keys, key)
	}
	ce.fields[key] = val
}

// Str adds a string field.
func (ce *CompletionEvent) Str(key, val string) *CompletionEvent {
	ce.set(key, val)
	return ce
}

// Int adds an int field.
func (ce *CompletionEvent) Int(key string, val int) *CompletionEvent {
	ce.set(key, val)
	return ce
}

// Int64 adds an int64 field.
func (ce *CompletionEvent) Int64(key string, val int64) *CompletionEvent {
	ce.set(key, val)
	return ce
}

// Bool adds a bool field.
func (ce *CompletionEvent) Bool(key string, val bool) *CompletionEvent {
	ce.set(key, val)
	return ce
}

// Bytes adds byte count with optional human-readable companion.
func (ce *CompletionEvent) Bytes(key string, bytes int64) *CompletionEvent {
	ce.set(key, bytes)
	if IsPrettyMode() {
		ce.set(key+"_h", humanfmt.Bytes(bytes))
	}
	return ce
}

// BytesUint64 is like Bytes for counters read from runtime stats.
func (ce *CompletionEvent) BytesUint64(key string, bytes uint64) *CompletionEvent {
	ce.set(key, bytes)
	if IsPrettyMode() {
		ce.set(key+"_h", humanfmt.BytesUint64(bytes))
	}
	return ce
}

// Count adds count with optional human-readable companion.
func (ce *CompletionEvent) Count(key string, n int64) *CompletionEvent {
	ce.set(key, n)
	if IsPrettyMode() {
		ce.set(key+"_h", humanfmt.Count(n))
	}
	return ce
}

// Millis adds a duration as integer milliseconds.
func (ce *CompletionEvent) Millis(key string, d time.Duration) *CompletionEvent {
	ce.set(key+"_ms", d.Milliseconds())
	if IsPrettyMode() {
		ce.set(key+"_h", humanfmt.Duration(d))
	}
	return ce
}

// ProgressFromTracker adds progress fields from a ProgressTracker.
func (ce *CompletionEvent) ProgressFromTracker(pt *ProgressTracker) *CompletionEvent {
	ce.set("done", pt.Completed())
	ce.set("total", pt.Total())
	ce.set("progress_pct", pt.ProgressPct())
	if eta := pt.ETA(); eta > 0 {
		ce.set("eta_ms", eta.Milliseconds())
		if IsPrettyMode() {
			ce.set("eta_h", humanfmt.Duration(eta))
		}
	}
	return ce
}

// Log emits the completion event at info level.
func (ce *CompletionEvent) Log(msg string) {
	ce.emit(ce.log.Info(), msg)
}

// LogDebug emits the completion event at debug level.
func (ce *CompletionEvent) LogDebug(msg string) {
	ce.emit(ce.log.Debug(), msg)
}

func (ce *CompletionEvent) emit(e *zerolog.Event, msg string) {
	e = e.Str("event", ce.event).
		Str("harness", ce.harness).
		Int64("duration_ms", ce.elapsed.Milliseconds())

	if IsPrettyMode() {
		e = e.Str("duration_h", humanfmt.Duration(ce.elapsed))
	}

	for _, k := range ce.keys {
		e = e.Interface(k, ce.fields[k])
	}

	e.Msg(msg)
}

// RunComplete starts a run completion event.
func RunComplete(log zerolog.Logger, harness string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "run_completed", harness, elapsed)
}

// ProgressUpdate starts a periodic progress event.
func ProgressUpdate(log zerolog.Logger, harness string, pt *ProgressTracker) *CompletionEvent {
	return NewCompletionEvent(log, "progress", harness, pt.Elapsed()).ProgressFromTracker(pt)
}

// ReportWritten starts a report sink completion event.
func ReportWritten(log zerolog.Logger, harness string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "report_written", harness, elapsed)
}
