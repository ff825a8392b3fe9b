// Package ranker scores documents against a query's terms under TF-IDF,
// BM25, BM25-alt and BM25VA.
package ranker

import (
	"context"
	"fmt"
	"math"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
)

type Model string

const (
	TFIDF   Model = "tfidf"
	BM25    Model = "bm25"
	BM25Alt Model = "bm25alt"
	BM25VA  Model = "bm25va"
)

func ParseModel(name string) (Model, error) {
	switch m := Model(name); m {
	case TFIDF, BM25, BM25Alt, BM25VA:
		return m, nil
	default:
		return "", apperrors.Newf(apperrors.ErrInvalidInput, "unknown scoring model %q", name)
	}
}

// Cacheable reports whether a term's document scores are independent of the
// query and can therefore be reused across topics. BM25-alt and BM25VA weigh
// the query term frequency, so they are not.
func (m Model) Cacheable() bool {
	return m == TFIDF || m == BM25
}

type Params struct {
	K1 float64
	B  float64
	K3 float64
}

func DefaultParams() Params {
	return Params{K1: 1.2, B: 0.75, K3: 8}
}

// Stats holds the collection statistics the models need.
type Stats struct {
	N             int
	DocLengths    []int
	DocSetLengths []int
	AvgDocLength  float64
	// MeanAvgTF is the mean over documents of length / distinct length.
	MeanAvgTF float64
}

// NewStats derives collection statistics from the per-document tables.
// Documents without tokens are skipped for MeanAvgTF since their ratio is
// undefined.
func NewStats(docLengths, docSetLengths []int) Stats {
	s := Stats{
		N:             len(docLengths),
		DocLengths:    docLengths,
		DocSetLengths: docSetLengths,
		MeanAvgTF:     1,
	}
	if s.N == 0 {
		return s
	}
	total := 0
	ratioSum := 0.0
	counted := 0
	for i, l := range docLengths {
		total += l
		if docSetLengths[i] > 0 {
			ratioSum += float64(l) / float64(docSetLengths[i])
			counted++
		}
	}
	s.AvgDocLength = float64(total) / float64(s.N)
	if counted > 0 {
		s.MeanAvgTF = ratioSum / float64(counted)
	}
	return s
}

// Query is one topic reduced to term frequencies. Terms lists the distinct
// terms in first-seen order.
type Query struct {
	TermFreq map[string]int
	Terms    []string
}

func NewQuery(tokens []string) Query {
	q := Query{TermFreq: make(map[string]int, len(tokens))}
	for _, t := range tokens {
		if q.TermFreq[t] == 0 {
			q.Terms = append(q.Terms, t)
		}
		q.TermFreq[t]++
	}
	return q
}

// TermCache stores per-term document scores for one run.
type TermCache interface {
	Get(ctx context.Context, term string) (map[int]float64, bool)
	Set(ctx context.Context, term string, scores map[int]float64)
}

// Engine scores queries against a resident postings map.
type Engine struct {
	model    Model
	params   Params
	stats    Stats
	postings map[string]*index.PostingsEntry
	cache    TermCache
}

// New creates an Engine. cache may be nil; it is ignored for models whose
// scores depend on the query.
func New(model Model, params Params, stats Stats, postings map[string]*index.PostingsEntry, cache TermCache) *Engine {
	if !model.Cacheable() {
		cache = nil
	}
	return &Engine{
		model:    model,
		params:   params,
		stats:    stats,
		postings: postings,
		cache:    cache,
	}
}

func (e *Engine) Model() Model {
	return e.model
}

// Score returns the length-normalized score of every document matching at
// least one query term. Terms missing from the index contribute nothing.
func (e *Engine) Score(ctx context.Context, q Query) map[int]float64 {
	scores := make(map[int]float64)
	if len(q.Terms) == 0 {
		return scores
	}
	for _, term := range q.Terms {
		for doc, s := range e.TermScores(ctx, term, q.TermFreq[term]) {
			scores[doc] += s
		}
	}
	norm := float64(len(q.Terms))
	for doc := range scores {
		scores[doc] /= norm
	}
	return scores
}

// TermScores returns the contribution of term to every document containing
// it. qtf is the term's frequency in the query.
func (e *Engine) TermScores(ctx context.Context, term string, qtf int) map[int]float64 {
	entry, ok := e.postings[term]
	if !ok {
		return nil
	}
	if e.cache != nil {
		if scores, hit := e.cache.Get(ctx, term); hit {
			return scores
		}
	}
	df := entry.Count()
	scores := make(map[int]float64, df)
	for doc, tfRaw := range entry.Occurrences {
		scores[doc] = e.Contribution(tfRaw, df, doc, qtf)
	}
	if e.cache != nil {
		e.cache.Set(ctx, term, scores)
	}
	return scores
}

// Contribution scores one (term, document) pair.
func (e *Engine) Contribution(tfRaw, df, doc, qtf int) float64 {
	n := float64(e.stats.N)
	tf := math.Log10(1 + float64(tfRaw))
	switch e.model {
	case TFIDF:
		return tf * idf(n, df)
	case BM25:
		k1, b := e.params.K1, e.params.B
		lengthNorm := (1 - b) + b*e.lengthRatio(doc)
		return idf(n, df) * ((k1 + 1) * tf) / (k1*lengthNorm + tf)
	case BM25Alt, BM25VA:
		k1, k3 := e.params.K1, e.params.K3
		bva := e.bva(doc)
		if bva == 0 {
			return 0
		}
		tfNorm := tf / bva
		q := float64(qtf)
		queryPart := ((k3 + 1) * q) / (k3 + q)
		docPart := ((k1 + 1) * tfNorm) / (k1 + tfNorm)
		return queryPart * docPart * math.Log10((n+0.5)/(float64(df)+0.5))
	default:
		panic(fmt.Sprintf("ranker: unhandled model %q", e.model))
	}
}

// bva is the length-adjustment factor of BM25-alt and BM25VA.
func (e *Engine) bva(doc int) float64 {
	if e.model == BM25Alt {
		b := e.params.B
		return (1 - b) + b*e.lengthRatio(doc)
	}
	mavgtf := e.stats.MeanAvgTF
	distinct := e.stats.DocSetLengths[doc]
	if distinct == 0 || mavgtf == 0 {
		return 0
	}
	avgTF := float64(e.stats.DocLengths[doc]) / float64(distinct)
	return avgTF/(mavgtf*mavgtf) + (1-1/mavgtf)*e.lengthRatio(doc)
}

func (e *Engine) lengthRatio(doc int) float64 {
	if e.stats.AvgDocLength == 0 {
		return 0
	}
	return float64(e.stats.DocLengths[doc]) / e.stats.AvgDocLength
}

func idf(n float64, df int) float64 {
	if df == 0 {
		return 0
	}
	return math.Log10(n / float64(df))
}
