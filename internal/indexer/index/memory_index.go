package index

import (
	"sort"
)

// Rough per-structure overheads used for the in-memory size estimate.
const (
	entryOverhead   = 96
	postingOverhead = 48
)

// MemoryIndex is the per-block postings table: token -> PostingsEntry plus
// the length statistics of every document added to the block. It is owned by
// a single block builder and is not safe for concurrent use.
type MemoryIndex struct {
	entries map[string]*PostingsEntry
	stats   map[int]DocStats
	size    int64
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		entries: make(map[string]*PostingsEntry),
		stats:   make(map[int]DocStats),
	}
}

// AddDocument records every token occurrence of doc. Adding the same doc
// twice accumulates into its existing postings and statistics.
func (m *MemoryIndex) AddDocument(doc int, tokens []string) {
	st := m.stats[doc]
	for _, token := range tokens {
		entry, exists := m.entries[token]
		if !exists {
			entry = NewPostingsEntry(token)
			m.entries[token] = entry
			m.size += int64(len(token) + entryOverhead)
		}
		if entry.OccurrencesIn(doc) == 0 {
			st.DistinctLength++
			m.size += postingOverhead
		}
		entry.Add(doc, 1)
	}
	st.Length += len(tokens)
	m.stats[doc] = st
}

// Snapshot returns all entries sorted by token ascending.
func (m *MemoryIndex) Snapshot() []*PostingsEntry {
	entries := make([]*PostingsEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Token < entries[j].Token
	})
	return entries
}

// Stats returns the length statistics per document id.
func (m *MemoryIndex) Stats() map[int]DocStats {
	return m.stats
}

func (m *MemoryIndex) Size() int64 {
	return m.size
}
