package cli

import (
	"flag"

	"github.com/eunmann/gcpressure/internal/logctx"
	"github.com/eunmann/gcpressure/pkg/humanfmt"
	"github.com/eunmann/gcpressure/pkg/logging"
	"github.com/eunmann/gcpressure/pkg/memdiag"
	"github.com/eunmann/gcpressure/pkg/probe"
)

func runProbe(args []string) error {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	def := probe.DefaultConfig()
	duration := fs.Duration("duration", def.Duration, "how long both tasks run")
	period := fs.Duration("period", def.Period, "high-priority task period")
	work := fs.Int("work", def.WorkIterations, "iterations of CPU work per period")
	allocInterval := fs.Duration("alloc-interval", def.AllocInterval, "low-priority allocation interval")
	allocSize := fs.Int("alloc-size", def.AllocSize, "bytes per retained allocation")
	maxPeriods := fs.Int("max-periods", def.MaxPeriods, "stop the high-priority task after N periods (0 = run for --duration)")
	noPriorities := fs.Bool("no-priorities", !def.Priorities, "do not apply OS thread priority hints")
	lf := addLogFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := probe.Config{
		Duration:       *duration,
		Period:         *period,
		WorkIterations: *work,
		AllocInterval:  *allocInterval,
		AllocSize:      *allocSize,
		MaxPeriods:     *maxPeriods,
		Priorities:     !*noPriorities,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := lf.setup(probe.Harness)
	defer stop()
	log := logctx.FromContext(ctx)
	logCollectorConfig(log)

	tracker := memdiag.NewTracker(memdiag.DefaultConfig(), probe.Harness)
	tracker.Start()
	res, err := probe.Run(ctx, cfg, probe.Deps{})
	tracker.Stop()
	if err != nil {
		return err
	}

	summary := logging.RunComplete(log, probe.Harness, res.Elapsed).
		Int("periods", len(res.Latencies)).
		Count("buffers", int64(res.Alloc.Buffers)).
		Bytes("retained", res.Alloc.Bytes).
		Str("alloc_rate", humanfmt.Rate(int64(res.Alloc.Buffers), res.Elapsed)).
		Int64("collections", res.Collections).
		Int64("gc_pause_ms", res.PauseMs)
	if peak := tracker.PeakHeap(); peak > 0 {
		summary.BytesUint64("peak_heap", peak)
	}
	summary.Log("probe finished")
	return nil
}
