// Package executor runs a topic file against a loaded index.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/searcher/topk"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/topic"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/metrics"
)

type Options struct {
	Model    ranker.Model
	Params   ranker.Params
	TopK     int
	PerTopic bool
}

type Executor struct {
	docs    *document.Registry
	engine  *ranker.Engine
	norm    *normalizer.Normalizer
	opts    Options
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New prepares an executor. Queries are normalized with the options the
// index was built with. cache and m may be nil.
func New(idx *store.Index, opts Options, cache ranker.TermCache, m *metrics.Metrics) *Executor {
	stats := ranker.NewStats(idx.Meta.DocumentLengths, idx.Meta.DocumentSetLengths)
	return &Executor{
		docs:    document.RegistryFrom(idx.Meta.DocIDs),
		engine:  ranker.New(opts.Model, opts.Params, stats, idx.Postings, cache),
		norm:    normalizer.New(idx.Meta.Normalization),
		opts:    opts,
		metrics: m,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

// Run ranks every topic and returns the retained rows best first. With
// PerTopic each topic keeps its own top K and rows follow topic order;
// otherwise one top K is kept across the whole run.
func (e *Executor) Run(ctx context.Context, topics []topic.Topic) ([]topk.Ranked, error) {
	global := topk.New(e.opts.TopK)
	var rows []topk.Ranked
	for _, t := range topics {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ranking interrupted before topic %s: %w", t.ID, err)
		}
		sel := global
		if e.opts.PerTopic {
			sel = topk.New(e.opts.TopK)
		}
		matched := e.rankTopic(ctx, t, sel)
		if e.opts.PerTopic {
			rows = append(rows, sel.Results()...)
		}
		e.logger.Info("topic ranked", "topic", t.ID, "matched", matched)
	}
	if !e.opts.PerTopic {
		rows = global.Results()
	}
	return rows, nil
}

func (e *Executor) rankTopic(ctx context.Context, t topic.Topic, sel *topk.Selector) int {
	start := time.Now()
	q := ranker.NewQuery(e.norm.Normalize(t.Text))
	scores := e.engine.Score(ctx, q)
	for doc, score := range scores {
		ext, ok := e.docs.Resolve(doc)
		if !ok {
			e.logger.Warn("posting references unknown document", "topic", t.ID, "doc", doc)
			continue
		}
		sel.Offer(topk.Candidate{
			Topic:      t.ID,
			Doc:        doc,
			ExternalID: ext,
			Score:      score,
		})
	}
	if e.metrics != nil {
		model := string(e.opts.Model)
		e.metrics.TopicsRankedTotal.WithLabelValues(model).Inc()
		e.metrics.RankingDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	}
	return len(scores)
}
