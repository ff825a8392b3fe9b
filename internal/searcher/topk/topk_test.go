package topk

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorBoundAndMinimum(t *testing.T) {
	s := New(DefaultCapacity)
	rng := rand.New(rand.NewSource(7))

	var offered []float64
	for i := 0; i < 5000; i++ {
		score := rng.Float64()
		offered = append(offered, score)
		s.Offer(Candidate{Topic: "401", Doc: i, ExternalID: fmt.Sprintf("D%05d", i), Score: score})
	}
	require.Equal(t, DefaultCapacity, s.Len())

	results := s.Results()
	require.Len(t, results, DefaultCapacity)
	kept := make(map[int]bool, len(results))
	for _, r := range results {
		kept[r.Doc] = true
	}
	floor := results[len(results)-1].Score
	for doc, score := range offered {
		if !kept[doc] {
			assert.LessOrEqual(t, score, floor)
		}
	}
}

func TestSelectorRejectsTieWithMinimum(t *testing.T) {
	s := New(2)
	assert.True(t, s.Offer(Candidate{Topic: "401", ExternalID: "A", Score: 1}))
	assert.True(t, s.Offer(Candidate{Topic: "401", ExternalID: "B", Score: 2}))
	assert.False(t, s.Offer(Candidate{Topic: "401", ExternalID: "C", Score: 1}))
	assert.False(t, s.Offer(Candidate{Topic: "401", ExternalID: "D", Score: 0.5}))
	assert.True(t, s.Offer(Candidate{Topic: "401", ExternalID: "E", Score: 1.5}))

	weakest, ok := s.Min()
	require.True(t, ok)
	assert.Equal(t, "E", weakest.ExternalID)
}

func TestResultsOrderAndRanks(t *testing.T) {
	s := New(10)
	s.Offer(Candidate{Topic: "402", ExternalID: "B", Score: 1})
	s.Offer(Candidate{Topic: "401", ExternalID: "Z", Score: 1})
	s.Offer(Candidate{Topic: "401", ExternalID: "A", Score: 1})
	s.Offer(Candidate{Topic: "403", ExternalID: "C", Score: 3})

	results := s.Results()
	require.Len(t, results, 4)
	got := make([]string, len(results))
	for i, r := range results {
		got[i] = r.Topic + "/" + r.ExternalID
		assert.Equal(t, i+1, r.Rank)
	}
	assert.Equal(t, []string{"403/C", "401/A", "401/Z", "402/B"}, got)
	assert.Equal(t, 4, s.Len())
}

func TestEmptySelector(t *testing.T) {
	s := New(0)
	_, ok := s.Min()
	assert.False(t, ok)
	assert.Empty(t, s.Results())
}
