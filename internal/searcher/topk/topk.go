// Package topk keeps the K best scored candidates seen across a run.
package topk

import (
	"container/heap"
	"sort"
)

const DefaultCapacity = 1000

type Candidate struct {
	Topic      string
	Doc        int
	ExternalID string
	Score      float64
}

// Ranked is a retained candidate with its 1-based rank.
type Ranked struct {
	Candidate
	Rank int
}

// Selector is a bounded min-heap: the root is the weakest retained
// candidate. A full selector admits a candidate only if its score is strictly
// greater than the root's.
type Selector struct {
	capacity int
	h        candidateHeap
}

func New(capacity int) *Selector {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Selector{
		capacity: capacity,
		h:        make(candidateHeap, 0, min(capacity, 1024)),
	}
}

// Offer reports whether c was retained.
func (s *Selector) Offer(c Candidate) bool {
	if s.h.Len() < s.capacity {
		heap.Push(&s.h, c)
		return true
	}
	if c.Score <= s.h[0].Score {
		return false
	}
	s.h[0] = c
	heap.Fix(&s.h, 0)
	return true
}

func (s *Selector) Len() int {
	return s.h.Len()
}

// Min returns the weakest retained candidate.
func (s *Selector) Min() (Candidate, bool) {
	if s.h.Len() == 0 {
		return Candidate{}, false
	}
	return s.h[0], true
}

// Results returns the retained candidates best first with ranks 1..N. The
// selector is left unchanged.
func (s *Selector) Results() []Ranked {
	sorted := make([]Candidate, len(s.h))
	copy(sorted, s.h)
	sort.Slice(sorted, func(i, j int) bool {
		return better(sorted[i], sorted[j])
	})
	out := make([]Ranked, len(sorted))
	for i, c := range sorted {
		out[i] = Ranked{Candidate: c, Rank: i + 1}
	}
	return out
}

// better orders by score descending, then topic and external id ascending.
func better(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Topic != b.Topic {
		return a.Topic < b.Topic
	}
	return a.ExternalID < b.ExternalID
}

type candidateHeap []Candidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool { return better(h[j], h[i]) }

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x interface{}) {
	*h = append(*h, x.(Candidate))
}

func (h *candidateHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
