// Package probe implements the dual-priority latency probe: a periodic
// high-priority task records its wake-up deviation from an absolute cadence
// while a low-priority task keeps allocating buffers it never releases.
package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eunmann/gcpressure/internal/logctx"
	"github.com/eunmann/gcpressure/pkg/clock"
	"github.com/eunmann/gcpressure/pkg/memdiag"
	"github.com/eunmann/gcpressure/pkg/threadprio"
)

// Harness is the name used in log fields.
const Harness = "probe"

// Defaults for Config.
const (
	DefaultDuration       = 10 * time.Second
	DefaultPeriod         = 50 * time.Millisecond
	DefaultWorkIterations = 1_000_000
	DefaultAllocInterval  = 10 * time.Millisecond
	DefaultAllocSize      = 100 * 1024
)

// Config controls a probe run.
type Config struct {
	// Duration is how long the coordinator lets both loops run.
	Duration time.Duration

	// Period is the high-priority task's cadence.
	Period time.Duration

	// WorkIterations is the size of the CPU-bound unit run every period.
	WorkIterations int

	AllocInterval time.Duration
	AllocSize     int

	// MaxPeriods stops the high-priority loop after that many periods;
	// 0 means run until cancelled.
	MaxPeriods int

	// Priorities applies best-effort OS thread priority hints.
	Priorities bool
}

// DefaultConfig returns the standard benchmark parameters.
func DefaultConfig() Config {
	return Config{
		Duration:       DefaultDuration,
		Period:         DefaultPeriod,
		WorkIterations: DefaultWorkIterations,
		AllocInterval:  DefaultAllocInterval,
		AllocSize:      DefaultAllocSize,
		Priorities:     true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must be >= 0, got %v", c.Duration))
	}
	if c.Period <= 0 {
		errs = append(errs, fmt.Errorf("period must be > 0, got %v", c.Period))
	}
	if c.WorkIterations < 0 {
		errs = append(errs, fmt.Errorf("work iterations must be >= 0, got %d", c.WorkIterations))
	}
	if c.AllocInterval <= 0 {
		errs = append(errs, fmt.Errorf("allocation interval must be > 0, got %v", c.AllocInterval))
	}
	if c.AllocSize < 0 {
		errs = append(errs, fmt.Errorf("allocation size must be >= 0, got %d", c.AllocSize))
	}
	if c.MaxPeriods < 0 {
		errs = append(errs, fmt.Errorf("max periods must be >= 0, got %d", c.MaxPeriods))
	}
	return errors.Join(errs...)
}

// LatencyRecord is the deviation observed at the start of one period.
type LatencyRecord struct {
	Period    int
	Deviation time.Duration
}

// Millis returns the deviation in whole milliseconds.
func (r LatencyRecord) Millis() int64 {
	return r.Deviation.Milliseconds()
}

// AllocStats summarises the low-priority loop.
type AllocStats struct {
	Buffers int
	Bytes   int64
}

// Deps are the probe's collaborators. Nil fields use the real runtime.
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

// Result gathers what each loop reported. The coordinator does not derive
// anything from the latencies.
type Result struct {
	Latencies []LatencyRecord
	Alloc     AllocStats

	// Collections and PauseMs are collector activity during the run.
	Collections int64
	PauseMs     int64

	Elapsed time.Duration
}

// Run starts both loops, lets them run for cfg.Duration, then cancels them
// and waits for both to return. Cancelling ctx ends the run early.
func Run(ctx context.Context, cfg Config, deps Deps) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid probe config: %w", err)
	}
	deps = deps.withDefaults()
	clk := deps.Clock

	base := memdiag.CaptureBaseline(deps.Stats)
	start := clk.Now()

	runCtx, stop := context.WithCancel(logctx.WithInt(ctx, "period_ms", int(cfg.Period.Milliseconds())))
	defer stop()

	var res Result
	var g errgroup.Group
	g.Go(func() error {
		res.Latencies = RunHighPriority(logctx.WithStr(runCtx, "loop", "high_priority"), cfg, clk)
		return nil
	})
	g.Go(func() error {
		res.Alloc = RunLowPriority(logctx.WithStr(runCtx, "loop", "low_priority"), cfg, clk)
		return nil
	})

	// An early return from this sleep means the caller cancelled.
	_ = clk.Sleep(ctx, cfg.Duration)
	stop()
	_ = g.Wait()

	res.Collections, res.PauseMs = base.Since()
	res.Elapsed = clk.Now().Sub(start)
	return &res, nil
}

// RunHighPriority is the timing-sensitive loop. Each period it records the
// deviation from the cadence, runs one unit of work and sleeps until the next
// ideal wake. It returns the latencies in period order when ctx is done or
// cfg.MaxPeriods periods completed.
func RunHighPriority(ctx context.Context, cfg Config, clk clock.Clock) []LatencyRecord {
	log := logctx.FromContext(ctx)
	applyPriority(ctx, cfg, threadprio.High)

	cad := NewCadence(clk.Now(), cfg.Period)
	var latencies []LatencyRecord
	var checksum float64

	for ctx.Err() == nil && (cfg.MaxPeriods == 0 || cad.Completed() < cfg.MaxPeriods) {
		rec := LatencyRecord{Period: cad.Completed(), Deviation: cad.Deviation(clk.Now())}
		latencies = append(latencies, rec)
		log.Info().Int("period", rec.Period).Int64("latency_ms", rec.Millis()).Msg("[HighPriority] latency")

		checksum += Work(cfg.WorkIterations)

		// Interrupted sleeps are not errors; the loop condition handles
		// cancellation.
		_ = clk.Sleep(ctx, cad.SleepUntilNext(clk.Now()))
		cad.Advance()
	}

	millis := make([]int64, len(latencies))
	for i, l := range latencies {
		millis[i] = l.Millis()
	}
	log.Info().Ints64("latencies_ms", millis).Float64("work_checksum", checksum).Msg("high priority task latencies")
	return latencies
}

// RunLowPriority is the allocation loop. Every interval it allocates one
// buffer and keeps it until the loop returns.
func RunLowPriority(ctx context.Context, cfg Config, clk clock.Clock) AllocStats {
	log := logctx.FromContext(ctx)
	applyPriority(ctx, cfg, threadprio.Low)

	var retained [][]byte
	for ctx.Err() == nil {
		retained = append(retained, make([]byte, cfg.AllocSize))
		_ = clk.Sleep(ctx, cfg.AllocInterval)
	}

	stats := AllocStats{Buffers: len(retained), Bytes: int64(len(retained)) * int64(cfg.AllocSize)}
	log.Info().Int("buffers", stats.Buffers).Int64("retained_bytes", stats.Bytes).Msg("low priority task finished")
	return stats
}

func applyPriority(ctx context.Context, cfg Config, level threadprio.Level) {
	if !cfg.Priorities {
		return
	}
	log := logctx.FromContext(ctx)
	if err := threadprio.Apply(level); err != nil {
		log.Debug().Err(err).Str("priority", level.String()).Msg("priority hint not applied")
		return
	}
	log.Debug().Str("priority", level.String()).Msg("priority hint applied")
}
