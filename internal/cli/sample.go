package cli

import (
	"errors"
	"flag"

	"github.com/eunmann/gcpressure/internal/logctx"
	"github.com/eunmann/gcpressure/pkg/logging"
	"github.com/eunmann/gcpressure/pkg/memdiag"
	"github.com/eunmann/gcpressure/pkg/report"
	"github.com/eunmann/gcpressure/pkg/sampler"
)

func runSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	def := sampler.DefaultConfig()
	iterations := fs.Int("iterations", def.MaxIterations, "number of iterations")
	children := fs.Int("children", def.ChildrenPerNode, "child slots per tree node")
	clearThreshold := fs.Int("clear-threshold", def.ClearThreshold, "root set size that triggers a release of all roots")
	sleep := fs.Duration("sleep", def.SleepDuration, "requested sleep per iteration")
	progressEvery := fs.Int("progress-every", def.ProgressEvery, "log progress every N iterations at debug level (0 disables)")
	out := fs.String("out", report.DefaultCSVPath, "CSV report path (empty disables)")
	parquetOut := fs.String("parquet", "", "optional Parquet report path")
	sqlitePath := fs.String("sqlite", "", "optional SQLite database path")
	s3URI := fs.String("s3", "", "optional s3://bucket/key destination for the CSV report")
	lf := addLogFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" && *parquetOut == "" && *sqlitePath == "" && *s3URI == "" {
		return errors.New("at least one of --out, --parquet, --sqlite or --s3 is required")
	}

	cfg := sampler.Config{
		MaxIterations:   *iterations,
		ChildrenPerNode: *children,
		ClearThreshold:  *clearThreshold,
		SleepDuration:   *sleep,
		ProgressEvery:   *progressEvery,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := lf.setup(sampler.Harness)
	defer stop()
	log := logctx.FromContext(ctx)
	logCollectorConfig(log)

	var sinks []report.Sink
	if *out != "" {
		sinks = append(sinks, report.CSVFile{Path: *out})
	}
	if *parquetOut != "" {
		sinks = append(sinks, report.ParquetFile{Path: *parquetOut})
	}
	if *sqlitePath != "" {
		sinks = append(sinks, report.SQLiteFile{Path: *sqlitePath})
	}
	if *s3URI != "" {
		s3Sink, err := report.NewS3Object(ctx, *s3URI)
		if err != nil {
			// The run still produces the local reports.
			log.Error().Err(err).Str("sink", *s3URI).Msg("s3 report sink unavailable")
		} else {
			sinks = append(sinks, s3Sink)
		}
	}

	tracker := memdiag.NewTracker(memdiag.DefaultConfig(), sampler.Harness)
	tracker.Start()
	res, err := sampler.Run(ctx, cfg, sampler.Deps{})
	tracker.Stop()
	if err != nil {
		return err
	}

	summary := logging.RunComplete(log, sampler.Harness, res.Elapsed).
		Int("iterations", len(res.Records)).
		Bool("interrupted", res.Interrupted).
		Int("gc_notices", res.GCNotices).
		Int("root_set_clears", res.Clears).
		Int("root_set_peak", res.PeakRootSet)
	if peak := tracker.PeakHeap(); peak > 0 {
		summary.BytesUint64("peak_heap", peak)
	}
	summary.Log("sampler finished")

	// Sink failures are logged by Deliver and do not fail the command.
	outcomes := report.Deliver(ctx, res.Records, sinks...)
	if failed := report.Failed(outcomes); failed > 0 {
		log.Warn().Int("failed", failed).Int("sinks", len(outcomes)).Msg("some reports were not written")
	}
	return nil
}
