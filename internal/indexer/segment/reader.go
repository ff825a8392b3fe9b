package segment

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/textenc"
	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
	"golang.org/x/text/encoding"
)

// Reader streams entries from a postings file one line at a time.
type Reader struct {
	file *os.File
	br   *bufio.Reader
	path string
	line int
}

// Open opens the postings file at path, decoding it with enc.
func Open(path string, enc encoding.Encoding) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening postings file: %w", err)
	}
	return &Reader{
		file: f,
		br:   bufio.NewReaderSize(textenc.NewReader(f, enc), 1<<20),
		path: path,
	}, nil
}

// Next returns the next entry, or io.EOF once the file is exhausted. Blank
// lines are skipped; a line that fails to decode is ErrMalformedPostings.
func (r *Reader) Next() (*index.PostingsEntry, error) {
	for {
		raw, err := r.br.ReadBytes('\n')
		if len(raw) > 0 {
			r.line++
			if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 {
				entry, perr := index.ParseLine(trimmed)
				if perr != nil {
					return nil, fmt.Errorf("%s:%d: %w", r.path, r.line, perr)
				}
				return entry, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("reading %s: %w", r.path, err)
		}
	}
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll drains the file at path into a token-keyed map. Token order is
// verified so that a corrupt or unsorted file is never silently accepted.
func ReadAll(path string, enc encoding.Encoding) (map[string]*index.PostingsEntry, error) {
	r, err := Open(path, enc)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	entries := make(map[string]*index.PostingsEntry)
	prev := ""
	for {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 && entry.Token <= prev {
			return nil, apperrors.Newf(apperrors.ErrMalformedPostings, "%s:%d: term %q out of order after %q", path, r.Line(), entry.Token, prev)
		}
		entries[entry.Token] = entry
		prev = entry.Token
	}
}
