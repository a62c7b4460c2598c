package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/eunmann/gcpressure/pkg/fileutil"
	"github.com/eunmann/gcpressure/pkg/sampler"
)

// Header is the CSV column row.
var Header = []string{"Iteration", "TaskDelay(us)", "MemoryUsage(MB)", "GCCount", "TotalGCTime(ms)"}

// Encode writes the header and one row per record, each line terminated by
// "\n".
func Encode(w io.Writer, records []sampler.SampleRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(Header))
	for _, r := range records {
		row[0] = strconv.Itoa(r.Iteration)
		row[1] = strconv.FormatInt(r.TaskDelayUs, 10)
		row[2] = strconv.FormatInt(r.MemoryUsageMB, 10)
		row[3] = strconv.FormatInt(r.GCCount, 10)
		row[4] = strconv.FormatInt(r.TotalGCTimeMs, 10)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", r.Iteration, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// CSVFile writes the report to a local file, overwriting it.
type CSVFile struct {
	Path string
}

// Name returns the file path.
func (c CSVFile) Name() string {
	return c.Path
}

// Write replaces the file with the encoded records.
func (c CSVFile) Write(_ context.Context, records []sampler.SampleRecord) error {
	if err := fileutil.ReplaceFile(c.Path, func(w io.Writer) error {
		return Encode(w, records)
	}); err != nil {
		return fmt.Errorf("write csv report %s: %w", c.Path, err)
	}
	return nil
}
