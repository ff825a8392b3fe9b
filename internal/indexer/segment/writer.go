// Package segment reads and writes the line-oriented postings files used for
// both per-block output and the merged global postings: one JSON object per
// line, token as the only key, lines in ascending token order.
package segment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/textenc"
	"golang.org/x/text/encoding"
)

// Writer streams postings lines into a .tmp file that is renamed into place
// by Commit, so readers never observe a partial file.
type Writer struct {
	file      *os.File
	buf       *bufio.Writer
	out       io.Writer
	finalPath string
	tmpPath   string
	lines     int
	lastToken string
}

// Create opens a writer for path, encoding lines with enc.
func Create(path string, enc encoding.Encoding) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating postings directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("creating temp postings file: %w", err)
	}
	buf := bufio.NewWriterSize(f, 1<<20)
	return &Writer{
		file:      f,
		buf:       buf,
		out:       textenc.NewWriter(buf, enc),
		finalPath: path,
		tmpPath:   tmpPath,
	}, nil
}

// Write appends one entry. Entries must arrive in strictly ascending token
// order.
func (w *Writer) Write(entry *index.PostingsEntry) error {
	if w.lines > 0 && entry.Token <= w.lastToken {
		return fmt.Errorf("postings out of order: %q after %q", entry.Token, w.lastToken)
	}
	line, err := entry.MarshalLine()
	if err != nil {
		return err
	}
	line = append(line, '\n')
	if _, err := w.out.Write(line); err != nil {
		return fmt.Errorf("writing postings for term %q: %w", entry.Token, err)
	}
	w.lines++
	w.lastToken = entry.Token
	return nil
}

// Lines returns the number of entries written so far.
func (w *Writer) Lines() int {
	return w.lines
}

// Commit flushes, syncs and renames the file into place.
func (w *Writer) Commit() error {
	if c, ok := w.out.(io.Closer); ok {
		if err := c.Close(); err != nil {
			w.Abort()
			return fmt.Errorf("encoding postings file: %w", err)
		}
	}
	if err := w.buf.Flush(); err != nil {
		w.Abort()
		return fmt.Errorf("flushing postings file: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		w.Abort()
		return fmt.Errorf("syncing postings file: %w", err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("closing postings file: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.finalPath); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("renaming postings file: %w", err)
	}
	return nil
}

// Abort discards the temp file. It is safe to call after a failed Commit.
func (w *Writer) Abort() {
	w.file.Close()
	os.Remove(w.tmpPath)
}

// WriteAll writes sorted entries to path in one go and returns the line count.
func WriteAll(path string, entries []*index.PostingsEntry, enc encoding.Encoding) (int, error) {
	w, err := Create(path, enc)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if err := w.Write(entry); err != nil {
			w.Abort()
			return 0, err
		}
	}
	if err := w.Commit(); err != nil {
		return 0, err
	}
	return w.Lines(), nil
}
