// Package merger performs the k-way streaming merge of sorted block files
// into one globally sorted postings file.
package merger

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/segment"
	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/logger"
	"golang.org/x/text/encoding"
)

const DefaultBufferLength = 100

// Source is one sorted block file. Remap, when set, translates the block's
// local document ids (the slice index) to global ids while reading.
type Source struct {
	Path  string
	Remap []int
}

// Result summarizes a completed merge.
type Result struct {
	Terms   int
	Sources int
	// PeakPending is the largest number of entries held in the heap.
	PeakPending int
}

// Merger merges sorted sources holding at most BufferLength pending entries
// per source at any time, so peak memory is independent of corpus size.
type Merger struct {
	BufferLength int
	Encoding     encoding.Encoding
	KeepSources  bool
	logger       *slog.Logger
}

func New(bufferLength int, enc encoding.Encoding, keepSources bool) *Merger {
	if bufferLength <= 0 {
		bufferLength = DefaultBufferLength
	}
	return &Merger{
		BufferLength: bufferLength,
		Encoding:     enc,
		KeepSources:  keepSources,
		logger:       logger.WithComponent("merger"),
	}
}

type source struct {
	Source
	reader    *segment.Reader
	pending   int
	closed    bool
	read      int
	lastToken string
}

// Merge writes the merged postings of sources to outPath. Equal tokens from
// different sources are combined into a single line by summing counts per
// document. Sources are deleted afterwards unless KeepSources is set.
func (m *Merger) Merge(ctx context.Context, sources []Source, outPath string) (Result, error) {
	srcs := make([]*source, 0, len(sources))
	defer func() {
		for _, s := range srcs {
			if !s.closed {
				s.reader.Close()
			}
		}
	}()
	for _, src := range sources {
		r, err := segment.Open(src.Path, m.Encoding)
		if err != nil {
			return Result{}, fmt.Errorf("opening block: %w", err)
		}
		srcs = append(srcs, &source{Source: src, reader: r})
	}

	out, err := segment.Create(outPath, m.Encoding)
	if err != nil {
		return Result{}, err
	}
	terms, peak, err := m.run(ctx, srcs, out)
	if err != nil {
		out.Abort()
		return Result{}, err
	}
	if err := out.Commit(); err != nil {
		return Result{}, err
	}

	if !m.KeepSources {
		for _, src := range sources {
			if err := os.Remove(src.Path); err != nil {
				m.logger.Warn("removing merged block failed", "block", src.Path, "error", err)
			}
		}
	}
	m.logger.Info("blocks merged",
		"sources", len(sources),
		"terms", terms,
		"output", outPath,
	)
	return Result{Terms: terms, Sources: len(sources), PeakPending: peak}, nil
}

func (m *Merger) run(ctx context.Context, srcs []*source, out *segment.Writer) (int, int, error) {
	h := &entryHeap{}
	for i, s := range srcs {
		if err := m.fill(h, i, s); err != nil {
			return 0, 0, err
		}
	}
	peak := h.Len()

	var pending *index.PostingsEntry
	for h.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return 0, 0, fmt.Errorf("merge cancelled: %w", err)
		}
		it := heap.Pop(h).(item)
		s := srcs[it.src]
		s.pending--
		if s.pending == 0 && !s.closed {
			if err := m.fill(h, it.src, s); err != nil {
				return 0, 0, err
			}
			if h.Len() > peak {
				peak = h.Len()
			}
		}

		if pending != nil && pending.Token == it.entry.Token {
			pending.Combine(it.entry)
			continue
		}
		if pending != nil {
			if err := out.Write(pending); err != nil {
				return 0, 0, err
			}
		}
		pending = it.entry
	}
	if pending != nil {
		if err := out.Write(pending); err != nil {
			return 0, 0, err
		}
	}
	return out.Lines(), peak, nil
}

// fill reads up to BufferLength entries from s into the heap.
func (m *Merger) fill(h *entryHeap, idx int, s *source) error {
	for i := 0; i < m.BufferLength && !s.closed; i++ {
		entry, err := s.reader.Next()
		if errors.Is(err, io.EOF) {
			s.closed = true
			s.reader.Close()
			break
		}
		if err != nil {
			return err
		}
		if s.read > 0 && entry.Token <= s.lastToken {
			return apperrors.Newf(apperrors.ErrMalformedPostings,
				"%s:%d: term %q out of order after %q", s.Path, s.reader.Line(), entry.Token, s.lastToken)
		}
		s.read++
		s.lastToken = entry.Token
		if s.Remap != nil {
			if entry, err = remap(entry, s.Remap); err != nil {
				return fmt.Errorf("%s:%d: %w", s.Path, s.reader.Line(), err)
			}
		}
		heap.Push(h, item{entry: entry, src: idx})
		s.pending++
	}
	return nil
}

func remap(entry *index.PostingsEntry, table []int) (*index.PostingsEntry, error) {
	out := index.NewPostingsEntry(entry.Token)
	for doc, n := range entry.Occurrences {
		if doc >= len(table) {
			return nil, apperrors.Newf(apperrors.ErrMalformedPostings,
				"term %q references document %d outside the block registry", entry.Token, doc)
		}
		out.Add(table[doc], n)
	}
	return out, nil
}

type item struct {
	entry *index.PostingsEntry
	src   int
}

type entryHeap []item

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].entry.Token != h[j].entry.Token {
		return h[i].entry.Token < h[j].entry.Token
	}
	return h[i].src < h[j].src
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(item))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
