// Package fileutil replaces report files with tmp+rename semantics so a run
// either leaves the previous report intact or fully overwrites it.
package fileutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReplaceFile writes a new version of outPath. writeFunc receives a buffered
// writer on a temporary file created next to outPath; after it returns nil
// the data is flushed, synced and renamed over outPath. On any error the
// temporary file is removed and outPath is left untouched.
func ReplaceFile(outPath string, writeFunc func(w io.Writer) error) error {
	return WriteTmpThenMove(outPath, func(tmpPath string) error {
		f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_TRUNC, 0)
		if err != nil {
			return fmt.Errorf("open temp file: %w", err)
		}
		bw := bufio.NewWriter(f)
		if err := writeFunc(bw); err != nil {
			f.Close()
			return err
		}
		if err := bw.Flush(); err != nil {
			f.Close()
			return fmt.Errorf("flush temp file: %w", err)
		}
		return f.Close()
	})
}

// WriteTmpThenMove creates an empty temporary file in the directory of
// outPath, lets writeFunc fill it by path, then syncs it and atomically
// renames it to outPath.
func WriteTmpThenMove(outPath string, writeFunc func(tmpPath string) error) error {
	outDir := filepath.Dir(outPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(outDir, filepath.Base(outPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	tmp.Close()

	if err := writeFunc(tmpPath); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := syncFile(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp to final: %w", err)
	}

	return nil
}

// syncFile opens, syncs, and closes a file.
func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	err = f.Sync()
	f.Close()
	return err
}
