// Package report delivers sampler records to report sinks: CSV, Parquet and
// SQLite files or an S3 object.
package report

import (
	"context"
	"time"

	"github.com/eunmann/gcpressure/internal/logctx"
	"github.com/eunmann/gcpressure/pkg/logging"
	"github.com/eunmann/gcpressure/pkg/sampler"
)

// DefaultCSVPath is the report written when no destination is given.
const DefaultCSVPath = "gc_test_results.csv"

// Sink persists a complete set of records, replacing any previous report at
// the same destination.
type Sink interface {
	// Name identifies the destination in log lines.
	Name() string
	Write(ctx context.Context, records []sampler.SampleRecord) error
}

// Outcome is the result of writing to one sink.
type Outcome struct {
	Sink string
	Err  error
}

// Deliver writes records to every sink in order and logs a confirmation or
// failure for each. Failures never stop the remaining sinks and the records
// are not modified. Cancellation of ctx is ignored: an interrupted run still
// writes what it gathered.
func Deliver(ctx context.Context, records []sampler.SampleRecord, sinks ...Sink) []Outcome {
	ctx = context.WithoutCancel(ctx)
	log := logctx.FromContext(ctx)
	outcomes := make([]Outcome, 0, len(sinks))

	for _, s := range sinks {
		start := time.Now()
		err := s.Write(ctx, records)
		outcomes = append(outcomes, Outcome{Sink: s.Name(), Err: err})

		if err != nil {
			log.Error().Err(err).Str("sink", s.Name()).Int("rows", len(records)).Msg("failed to write report")
			continue
		}
		logging.ReportWritten(log, sampler.Harness, time.Since(start)).
			Str("sink", s.Name()).
			Int("rows", len(records)).
			Log("results saved")
	}
	return outcomes
}

// Failed counts outcomes with an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
