package executor

import (
	"context"
	"math"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/topic"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex() *store.Index {
	return &store.Index{
		Meta: &store.Meta{
			DocumentLengths:    []int{10, 20, 30},
			DocumentSetLengths: []int{5, 10, 10},
			DocIDs:             []string{"A", "B", "C"},
			Normalization:      normalizer.Options{CaseFolding: true},
			ItemCount:          2,
		},
		Postings: map[string]*index.PostingsEntry{
			"x": {Token: "x", Occurrences: map[int]int{0: 2}},
			"y": {Token: "y", Occurrences: map[int]int{1: 3, 2: 1}},
		},
	}
}

func TestRunSingleTermScenario(t *testing.T) {
	m := metrics.New(nil)
	e := New(testIndex(), Options{Model: ranker.TFIDF, Params: ranker.DefaultParams(), TopK: 1000}, nil, m)

	rows, err := e.Run(context.Background(), []topic.Topic{{ID: "401", Text: "X"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "401", rows[0].Topic)
	assert.Equal(t, "A", rows[0].ExternalID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.InDelta(t, math.Log10(3)*math.Log10(3), rows[0].Score, 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TopicsRankedTotal.WithLabelValues("tfidf")))
}

func TestRunGlobalVersusPerTopic(t *testing.T) {
	topics := []topic.Topic{
		{ID: "401", Text: "y"},
		{ID: "402", Text: "x y"},
	}

	global := New(testIndex(), Options{Model: ranker.BM25, Params: ranker.DefaultParams(), TopK: 2}, nil, nil)
	rows, err := global.Run(context.Background(), topics)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1].Score, rows[i].Score)
		assert.Equal(t, i+1, rows[i].Rank)
	}

	perTopic := New(testIndex(), Options{Model: ranker.BM25, Params: ranker.DefaultParams(), TopK: 2, PerTopic: true}, nil, nil)
	rows, err = perTopic.Run(context.Background(), topics)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "401", rows[0].Topic)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "402", rows[2].Topic)
	assert.Equal(t, 1, rows[2].Rank)
}

func TestRunUnknownTermsYieldNothing(t *testing.T) {
	e := New(testIndex(), Options{Model: ranker.BM25VA, Params: ranker.DefaultParams(), TopK: 10}, nil, nil)
	rows, err := e.Run(context.Background(), []topic.Topic{{ID: "401", Text: "nothing here"}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := New(testIndex(), Options{Model: ranker.TFIDF, Params: ranker.DefaultParams(), TopK: 10}, nil, nil)
	_, err := e.Run(ctx, []topic.Topic{{ID: "401", Text: "x"}})
	assert.ErrorIs(t, err, context.Canceled)
}
