package report

import (
	"context"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/eunmann/gcpressure/pkg/fileutil"
	"github.com/eunmann/gcpressure/pkg/sampler"
)

// parquetRow mirrors the CSV columns.
type parquetRow struct {
	Iteration     int64 `parquet:"iteration"`
	TaskDelayUs   int64 `parquet:"task_delay_us"`
	MemoryUsageMB int64 `parquet:"memory_usage_mb"`
	GCCount       int64 `parquet:"gc_count"`
	TotalGCTimeMs int64 `parquet:"total_gc_time_ms"`
}

// ParquetFile writes the report as a Parquet file, overwriting it.
type ParquetFile struct {
	Path string
}

// Name returns the file path.
func (p ParquetFile) Name() string {
	return p.Path
}

// Write replaces the file with one row per record.
func (p ParquetFile) Write(_ context.Context, records []sampler.SampleRecord) error {
	rows := make([]parquetRow, len(records))
	for i, r := range records {
		rows[i] = parquetRow{
			Iteration:     int64(r.Iteration),
			TaskDelayUs:   r.TaskDelayUs,
			MemoryUsageMB: r.MemoryUsageMB,
			GCCount:       r.GCCount,
			TotalGCTimeMs: r.TotalGCTimeMs,
		}
	}

	if err := fileutil.WriteTmpThenMove(p.Path, func(tmpPath string) error {
		return parquet.WriteFile(tmpPath, rows)
	}); err != nil {
		return fmt.Errorf("write parquet report %s: %w", p.Path, err)
	}
	return nil
}

// ReadParquet loads records written by ParquetFile.
func ReadParquet(path string) ([]sampler.SampleRecord, error) {
	rows, err := parquet.ReadFile[parquetRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet report %s: %w", path, err)
	}
	records := make([]sampler.SampleRecord, len(rows))
	for i, r := range rows {
		records[i] = sampler.SampleRecord{
			Iteration:     int(r.Iteration),
			TaskDelayUs:   r.TaskDelayUs,
			MemoryUsageMB: r.MemoryUsageMB,
			GCCount:       r.GCCount,
			TotalGCTimeMs: r.TotalGCTimeMs,
		}
	}
	return records, nil
}
