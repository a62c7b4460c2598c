// Package sampler implements the allocation-pressure sampler: it grows and
// periodically releases a set of small trees while timing a 1ms sleep and
// recording heap occupancy and collector counters after every iteration.
package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eunmann/gcpressure/internal/logctx"
	"github.com/eunmann/gcpressure/pkg/clock"
	"github.com/eunmann/gcpressure/pkg/humanfmt"
	"github.com/eunmann/gcpressure/pkg/logging"
	"github.com/eunmann/gcpressure/pkg/memdiag"
)

// Harness is the name used in log fields.
const Harness = "sampler"

// Defaults for Config.
const (
	DefaultMaxIterations   = 100_000
	DefaultChildrenPerNode = 10
	DefaultClearThreshold  = 10_000
	DefaultSleep           = time.Millisecond
	DefaultProgressEvery   = 10_000
)

// Config controls a sampler run.
type Config struct {
	MaxIterations   int
	ChildrenPerNode int
	ClearThreshold  int

	// SleepDuration is the requested per-iteration sleep.
	SleepDuration time.Duration

	// ProgressEvery logs a progress line every N iterations; 0 disables it.
	ProgressEvery int
}

// DefaultConfig returns the standard benchmark parameters.
func DefaultConfig() Config {
	return Config{
		MaxIterations:   DefaultMaxIterations,
		ChildrenPerNode: DefaultChildrenPerNode,
		ClearThreshold:  DefaultClearThreshold,
		SleepDuration:   DefaultSleep,
		ProgressEvery:   DefaultProgressEvery,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("max iterations must be >= 0, got %d", c.MaxIterations))
	}
	if c.ChildrenPerNode < 0 {
		errs = append(errs, fmt.Errorf("children per node must be >= 0, got %d", c.ChildrenPerNode))
	}
	if c.ClearThreshold < 1 {
		errs = append(errs, fmt.Errorf("clear threshold must be >= 1, got %d", c.ClearThreshold))
	}
	if c.SleepDuration < 0 {
		errs = append(errs, fmt.Errorf("sleep duration must be >= 0, got %v", c.SleepDuration))
	}
	if c.ProgressEvery < 0 {
		errs = append(errs, fmt.Errorf("progress interval must be >= 0, got %d", c.ProgressEvery))
	}
	return errors.Join(errs...)
}

// SampleRecord is one row of the report.
type SampleRecord struct {
	Iteration int

	// TaskDelayUs is how far the sleep overshot the requested duration.
	TaskDelayUs int64

	MemoryUsageMB int64

	// GCCount and TotalGCTimeMs are cumulative since the run's baseline.
	GCCount       int64
	TotalGCTimeMs int64
}

// Deps are the sampler's collaborators. Nil fields use the real runtime.
type Deps struct {
	Clock clock.Clock
	Stats memdiag.Source
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clock.Real{}
	}
	if d.Stats == nil {
		d.Stats = memdiag.Runtime{}
	}
	return d
}

// Result holds the records of a run and what happened to the root set.
type Result struct {
	Records []SampleRecord

	// Interrupted is set when the context ended the loop early.
	Interrupted bool

	// GCNotices counts iterations in which new collections were observed.
	GCNotices int

	Clears       int
	PeakRootSet  int
	FinalRootSet int
	Elapsed      time.Duration
}

// Run executes the sampler loop. Cancelling ctx stops the loop at the next
// sleep; the records gathered so far are returned with Interrupted set and a
// nil error. The only error is an invalid configuration.
func Run(ctx context.Context, cfg Config, deps Deps) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sampler config: %w", err)
	}
	deps = deps.withDefaults()
	log := logctx.FromContext(ctx)
	clk := deps.Clock

	roots := NewRootSet(cfg.ClearThreshold)
	records := make([]SampleRecord, 0, cfg.MaxIterations)
	progress := logging.NewProgressTracker(int64(cfg.MaxIterations))
	res := &Result{}

	base := memdiag.CaptureBaseline(deps.Stats)
	var prevCount int64
	runStart := clk.Now()

	for i := 0; i < cfg.MaxIterations; i++ {
		roots.Add(NewTreeNode(cfg.ChildrenPerNode))

		start := clk.Now()
		if err := clk.Sleep(ctx, cfg.SleepDuration); err != nil {
			log.Warn().Err(err).Int("iteration", i).Msg("sleep interrupted, stopping early")
			res.Interrupted = true
			break
		}
		overshoot := clk.Now().Sub(start) - cfg.SleepDuration

		// One snapshot per iteration keeps the row consistent.
		snap := deps.Stats.Snapshot()
		count, pauseMs := base.Delta(snap)
		records = append(records, SampleRecord{
			Iteration:     i,
			TaskDelayUs:   overshoot.Microseconds(),
			MemoryUsageMB: humanfmt.WholeMiB(snap.HeapBytes),
			GCCount:       count,
			TotalGCTimeMs: pauseMs,
		})

		if count > prevCount {
			res.GCNotices++
			log.Info().
				Int("iteration", i).
				Int64("collections", count).
				Int64("total_gc_ms", pauseMs).
				Msg("[GC] collection observed")
		}
		prevCount = count

		progress.Advance(1)
		if cfg.ProgressEvery > 0 && (i+1)%cfg.ProgressEvery == 0 {
			logging.ProgressUpdate(log, Harness, progress).
				Int("root_set", roots.Len()).
				LogDebug("sampler progress")
		}
	}

	res.Records = records
	res.Clears = roots.Clears()
	res.PeakRootSet = roots.Peak()
	res.FinalRootSet = roots.Len()
	res.Elapsed = clk.Now().Sub(runStart)
	return res, nil
}
