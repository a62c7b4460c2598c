package report

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite3" driver.
	_ "github.com/mattn/go-sqlite3"

	"github.com/eunmann/gcpressure/pkg/fileutil"
	"github.com/eunmann/gcpressure/pkg/sampler"
)

const createSamples = `
	CREATE TABLE samples (
		iteration INTEGER PRIMARY KEY,
		task_delay_us INTEGER NOT NULL,
		memory_usage_mb INTEGER NOT NULL,
		gc_count INTEGER NOT NULL,
		total_gc_time_ms INTEGER NOT NULL
	)
`

// SQLiteFile writes the report into the samples table of a fresh SQLite
// database, replacing any database at Path.
type SQLiteFile struct {
	Path string
}

// Name returns the file path.
func (s SQLiteFile) Name() string {
	return s.Path
}

// Write builds the database next to Path and moves it into place.
func (s SQLiteFile) Write(ctx context.Context, records []sampler.SampleRecord) error {
	if err := fileutil.WriteTmpThenMove(s.Path, func(tmpPath string) error {
		return writeSQLite(ctx, tmpPath, records)
	}); err != nil {
		return fmt.Errorf("write sqlite report %s: %w", s.Path, err)
	}
	return nil
}

func writeSQLite(ctx context.Context, path string, records []sampler.SampleRecord) error {
	// Rollback journal keeps the database in a single file for the rename.
	db, err := sql.Open("sqlite3", path+"?_journal_mode=DELETE")
	if err != nil {
		return fmt.Errorf("open sqlite database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createSamples); err != nil {
		return fmt.Errorf("create samples table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO samples (iteration, task_delay_us, memory_usage_mb, gc_count, total_gc_time_ms) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Iteration, r.TaskDelayUs, r.MemoryUsageMB, r.GCCount, r.TotalGCTimeMs); err != nil {
			return fmt.Errorf("insert iteration %d: %w", r.Iteration, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return db.Close()
}

// ReadSQLite loads records written by SQLiteFile in iteration order.
func ReadSQLite(ctx context.Context, path string) ([]sampler.SampleRecord, error) {
	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		"SELECT iteration, task_delay_us, memory_usage_mb, gc_count, total_gc_time_ms FROM samples ORDER BY iteration")
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var records []sampler.SampleRecord
	for rows.Next() {
		var r sampler.SampleRecord
		if err := rows.Scan(&r.Iteration, &r.TaskDelayUs, &r.MemoryUsageMB, &r.GCCount, &r.TotalGCTimeMs); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return records, nil
}
