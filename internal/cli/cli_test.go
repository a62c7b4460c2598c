package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eunmann/gcpressure/pkg/logging"
	"github.com/eunmann/gcpressure/pkg/report"
)

func TestRunNoArgs(t *testing.T) {
	err := Run(nil)
	if err == nil {
		t.Fatal("expected error with no args")
	}
	if !strings.Contains(err.Error(), "usage") {
		t.Errorf("expected usage message, got: %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	err := Run([]string{"unknown"})
	if err == nil {
		t.Fatal("expected error with unknown command")
	}
	if !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("expected 'unknown command' error, got: %v", err)
	}
}

func TestSampleNoSinks(t *testing.T) {
	err := Run([]string{"sample", "--out", ""})
	if err == nil {
		t.Fatal("expected error with every sink disabled")
	}
	if !strings.Contains(err.Error(), "--out") {
		t.Errorf("expected sink error, got: %v", err)
	}
}

func TestSampleInvalidConfig(t *testing.T) {
	err := Run([]string{"sample", "--clear-threshold", "0"})
	if err == nil || !strings.Contains(err.Error(), "clear threshold") {
		t.Errorf("expected clear threshold error, got: %v", err)
	}
}

func TestSampleBadFlag(t *testing.T) {
	if err := Run([]string{"sample", "--iterations", "many"}); err == nil {
		t.Error("expected flag parse error")
	}
}

func TestSampleWritesReports(t *testing.T) {
	defer logging.Init(false, false)
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "gc_test_results.csv")
	parquetPath := filepath.Join(dir, "gc_test_results.parquet")
	sqlitePath := filepath.Join(dir, "gc_test_results.db")

	for run := 0; run < 2; run++ {
		err := Run([]string{
			"sample",
			"--iterations", "5",
			"--clear-threshold", "3",
			"--sleep", "100us",
			"--out", csvPath,
			"--parquet", parquetPath,
			"--sqlite", sqlitePath,
			"--json-logs",
		})
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("csv has %d lines after two runs, want 1 header + 5 rows:\n%s", len(lines), data)
	}
	if lines[0] != strings.Join(report.Header, ",") {
		t.Errorf("header = %q", lines[0])
	}

	records, err := report.ReadParquet(parquetPath)
	if err != nil {
		t.Fatalf("read parquet: %v", err)
	}
	if len(records) != 5 {
		t.Errorf("parquet has %d records, want 5", len(records))
	}

	records, err = report.ReadSQLite(context.Background(), sqlitePath)
	if err != nil {
		t.Fatalf("read sqlite: %v", err)
	}
	if len(records) != 5 {
		t.Errorf("sqlite has %d records, want 5", len(records))
	}
}

func TestSampleSinkFailureIsNotFatal(t *testing.T) {
	defer logging.Init(false, false)
	// Also runs the memory tracker so the summary carries peak heap.
	t.Setenv("GCPRESSURE_MEM_DEBUG", "1")
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	err := Run([]string{
		"sample",
		"--iterations", "3",
		"--sleep", "100us",
		"--out", filepath.Join(blocker, "out.csv"),
		"--json-logs",
	})
	if err != nil {
		t.Errorf("sink failure should not fail the command, got: %v", err)
	}
}

func TestSampleInvalidS3URIIsNotFatal(t *testing.T) {
	defer logging.Init(false, false)
	csvPath := filepath.Join(t.TempDir(), "out.csv")

	err := Run([]string{
		"sample",
		"--iterations", "2",
		"--sleep", "100us",
		"--out", csvPath,
		"--s3", "not-a-uri",
		"--json-logs",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(csvPath); err != nil {
		t.Errorf("local report missing: %v", err)
	}
}

func TestProbeInvalidConfig(t *testing.T) {
	err := Run([]string{"probe", "--period", "0s"})
	if err == nil || !strings.Contains(err.Error(), "period") {
		t.Errorf("expected period error, got: %v", err)
	}
}

func TestProbeShortRun(t *testing.T) {
	defer logging.Init(false, false)
	err := Run([]string{
		"probe",
		"--duration", "100ms",
		"--period", "10ms",
		"--work", "1000",
		"--alloc-interval", "2ms",
		"--alloc-size", "1024",
		"--no-priorities",
		"--json-logs",
	})
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
}
