package index

import (
	"strings"
	"testing"
)

var benchTokens = strings.Fields("this is a benchmark document with several terms for testing the indexing performance of the block table")

// BenchmarkMemoryIndexAdd measures per-document insert throughput.
func BenchmarkMemoryIndexAdd(b *testing.B) {
	mi := NewMemoryIndex()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mi.AddDocument(i, benchTokens)
	}
}

// BenchmarkMemoryIndexSnapshot measures sorting the table before a block is
// written.
func BenchmarkMemoryIndexSnapshot(b *testing.B) {
	mi := NewMemoryIndex()
	for i := 0; i < 5000; i++ {
		mi.AddDocument(i, append(benchTokens, "unique"+strings.Repeat("x", i%50)))
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = mi.Snapshot()
	}
}

func BenchmarkMarshalLine(b *testing.B) {
	entry := NewPostingsEntry("search")
	for d := 0; d < 1000; d++ {
		entry.Add(d, d%7+1)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := entry.MarshalLine(); err != nil {
			b.Fatal(err)
		}
	}
}
