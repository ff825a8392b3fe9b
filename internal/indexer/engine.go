// Package indexer builds an on-disk index from a document collection: files
// are partitioned into memory-sized blocks, blocks are built in parallel and
// written sorted by term, then merged into one postings file with metadata.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/document"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/blocker"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/merger"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/notify"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/textenc"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding"
)

// Notifier is told about every successfully built index.
type Notifier interface {
	IndexBuilt(ctx context.Context, ev notify.IndexComplete) error
}

type Engine struct {
	cfg      config.IndexerConfig
	norm     *normalizer.Normalizer
	enc      encoding.Encoding
	sample   blocker.MemorySampler
	metrics  *metrics.Metrics
	notifier Notifier
	logger   *slog.Logger
}

// Summary describes a finished build.
type Summary struct {
	Meta     *store.Meta
	Blocks   int
	Terms    int
	Duration time.Duration
}

// NewEngine validates the encoding and prepares a build. m may be nil.
func NewEngine(cfg config.IndexerConfig, opts normalizer.Options, m *metrics.Metrics) (*Engine, error) {
	enc, err := textenc.Lookup(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	if cfg.BlockDir == "" {
		cfg.BlockDir = filepath.Join(cfg.IndexDir, "blocks")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Engine{
		cfg:     cfg,
		norm:    normalizer.New(opts),
		enc:     enc,
		sample:  blocker.SystemMemory,
		metrics: m,
		logger:  slog.Default().With("component", "indexer"),
	}, nil
}

// SetMemorySampler replaces the host memory probe used for partitioning and
// the memory guard.
func (e *Engine) SetMemorySampler(s blocker.MemorySampler) {
	e.sample = s
}

func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// blockResult is what one block build hands to the fan-in.
type blockResult struct {
	path  string
	ids   []string
	stats map[int]index.DocStats
	terms int
}

// Build indexes the files under paths. The metadata file is written last, so
// a failed build never leaves a readable index behind.
func (e *Engine) Build(ctx context.Context, paths []string) (*Summary, error) {
	start := time.Now()
	files, err := blocker.ExpandPaths(paths)
	if err != nil {
		return nil, err
	}
	blocks, err := blocker.NewPartitioner(e.cfg.SafetyFactor, e.cfg.MemoryBudget, e.sample).Partition(files)
	if err != nil {
		return nil, err
	}
	if err := e.prepareDirs(); err != nil {
		return nil, err
	}

	results := make([]*blockResult, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, blk := range blocks {
		g.Go(func() error {
			res, err := e.buildBlock(gctx, blk)
			if err != nil {
				e.observeBlock("failed", 0)
				return fmt.Errorf("building block %d: %w", blk.ID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.removeBlocks(results)
		return nil, err
	}

	meta, sources := fold(results)
	mergeStart := time.Now()
	mres, err := merger.New(e.cfg.BufferLength, e.enc, e.cfg.KeepBlocks).
		Merge(ctx, sources, filepath.Join(e.cfg.IndexDir, store.PostingsFileName))
	if err != nil {
		e.removeBlocks(results)
		return nil, fmt.Errorf("merging blocks: %w", err)
	}
	if e.metrics != nil {
		e.metrics.MergeDuration.Observe(time.Since(mergeStart).Seconds())
		e.metrics.MergedTermsTotal.Add(float64(mres.Terms))
	}
	if !e.cfg.KeepBlocks {
		// only succeeds when the directory is empty
		os.Remove(e.cfg.BlockDir)
	}

	meta.Normalization = e.norm.Options()
	meta.ItemCount = mres.Terms
	meta.Encoding = e.cfg.Encoding
	meta.PostingsFile = store.PostingsFileName
	meta.PostingsVersion = index.FormatVersion
	meta.Blocks = len(blocks)
	meta.BuiltAt = time.Now().UTC()
	if err := store.WriteMeta(e.cfg.IndexDir, meta); err != nil {
		return nil, err
	}

	summary := &Summary{
		Meta:     meta,
		Blocks:   len(blocks),
		Terms:    mres.Terms,
		Duration: time.Since(start),
	}
	e.logger.Info("index built",
		"dir", e.cfg.IndexDir,
		"documents", meta.DocCount(),
		"terms", mres.Terms,
		"blocks", len(blocks),
		"duration", summary.Duration.Round(time.Millisecond),
	)
	if meta.DocCount() == 0 {
		e.logger.Warn("no documents found in input", "files", len(files))
	}
	if e.notifier != nil {
		// the index is already valid; the notifier logs its own failures
		_ = e.notifier.IndexBuilt(ctx, notify.IndexComplete{
			IndexDir:  e.cfg.IndexDir,
			Documents: meta.DocCount(),
			Terms:     mres.Terms,
			Blocks:    len(blocks),
			BuiltAt:   meta.BuiltAt,
		})
	}
	return summary, nil
}

func (e *Engine) prepareDirs() error {
	if err := os.MkdirAll(e.cfg.IndexDir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	if err := os.MkdirAll(e.cfg.BlockDir, 0o755); err != nil {
		return fmt.Errorf("creating block directory: %w", err)
	}
	// drop any previous metadata so a failed rebuild reads as missing
	err := os.Remove(filepath.Join(e.cfg.IndexDir, store.MetaFileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing previous metadata: %w", err)
	}
	return nil
}

func (e *Engine) buildBlock(ctx context.Context, blk blocker.Block) (*blockResult, error) {
	start := time.Now()
	reg := document.NewRegistry()
	mem := index.NewMemoryIndex()
	guard := blocker.NewGuard(e.sample, e.cfg.MinFreeMemory, e.cfg.MemoryCheckInterval)

	for _, f := range blk.Files {
		docs, err := e.readDocuments(f.Path)
		if err != nil {
			return nil, err
		}
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := guard.Check(); err != nil {
				return nil, err
			}
			id, _ := reg.Register(doc.ID)
			text := doc.Text
			if e.cfg.IndexHeadline && doc.Headline != "" {
				text = doc.Headline + " " + text
			}
			tokens := e.norm.Normalize(text)
			mem.AddDocument(id, tokens)
			e.logger.Debug("document added", "block", blk.ID, "doc", doc.ID, "tokens", len(tokens))
		}
		if e.metrics != nil {
			e.metrics.DocsIndexedTotal.Add(float64(len(docs)))
		}
	}

	path := filepath.Join(e.cfg.BlockDir, fmt.Sprintf("block_%04d.jsonl", blk.ID))
	lines, err := segment.WriteAll(path, mem.Snapshot(), e.enc)
	if err != nil {
		return nil, fmt.Errorf("writing block file: %w", err)
	}
	e.observeBlock("ok", time.Since(start))
	e.logger.Info("block built",
		"block", blk.ID,
		"files", len(blk.Files),
		"documents", reg.Len(),
		"terms", lines,
		"estimated_bytes", mem.Size(),
	)
	return &blockResult{
		path:  path,
		ids:   reg.IDs(),
		stats: mem.Stats(),
		terms: lines,
	}, nil
}

func (e *Engine) readDocuments(path string) ([]document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(textenc.NewReader(f, e.enc))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return document.Parse(string(data)), nil
}

func (e *Engine) observeBlock(status string, d time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.BlocksBuiltTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		e.metrics.BlockBuildDuration.Observe(d.Seconds())
	}
}

func (e *Engine) removeBlocks(results []*blockResult) {
	if e.cfg.KeepBlocks {
		return
	}
	for _, r := range results {
		if r != nil {
			os.Remove(r.path)
		}
	}
}

// fold assigns global ids in block order. An external id seen in an earlier
// block keeps its global id and its lengths are added up.
func fold(results []*blockResult) (*store.Meta, []merger.Source) {
	global := document.NewRegistry()
	meta := &store.Meta{}
	sources := make([]merger.Source, 0, len(results))
	for _, r := range results {
		remap := make([]int, len(r.ids))
		for local, ext := range r.ids {
			gid, added := global.Register(ext)
			if added {
				meta.DocumentLengths = append(meta.DocumentLengths, 0)
				meta.DocumentSetLengths = append(meta.DocumentSetLengths, 0)
			}
			st := r.stats[local]
			meta.DocumentLengths[gid] += st.Length
			meta.DocumentSetLengths[gid] += st.DistinctLength
			remap[local] = gid
		}
		sources = append(sources, merger.Source{Path: r.path, Remap: remap})
	}
	meta.DocIDs = global.IDs()
	if meta.DocIDs == nil {
		meta.DocIDs = []string{}
		meta.DocumentLengths = []int{}
		meta.DocumentSetLengths = []int{}
	}
	return meta, sources
}
