// Package results writes ranked rows as TREC run files and, optionally, to
// PostgreSQL.
package results

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/searcher/topk"
)

const timeLayout = "20060102-150405"

// FileName returns <run>_<model>_<YYYYMMDD-HHMMSS>.txt.
func FileName(run, model string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.txt", run, model, at.Format(timeLayout))
}

// Write emits one "topic Q0 docid rank score run" line per row.
func Write(w io.Writer, rows []topk.Ranked, run string) error {
	bw := bufio.NewWriter(w)
	for _, r := range rows {
		if _, err := fmt.Fprintf(bw, "%s Q0 %s %d %.6f %s\n", r.Topic, r.ExternalID, r.Rank, r.Score, run); err != nil {
			return fmt.Errorf("writing result row: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing results: %w", err)
	}
	return nil
}

// WriteFile writes rows into dir under FileName and returns the path. The
// file appears only once it is complete.
func WriteFile(dir, run, model string, rows []topk.Ranked, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}
	path := filepath.Join(dir, FileName(run, model, at))
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("creating results file: %w", err)
	}
	if err := Write(f, rows, run); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("closing results file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("renaming results file: %w", err)
	}
	return path, nil
}
