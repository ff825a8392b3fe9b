package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/results"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/topic"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/redis"
	"github.com/google/uuid"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	topicsPath := flag.String("topics", "topics.txt", "TREC topic file")
	model := flag.String("model", "", "scoring model: tfidf, bm25, bm25alt, bm25va")
	k1 := flag.Float64("k1", 0, "BM25 k1")
	k3 := flag.Float64("k3", 0, "BM25-alt/BM25VA k3")
	b := flag.Float64("b", 0, "BM25 b")
	runName := flag.String("run", "", "run name written to the results file")
	indexDir := flag.String("index-dir", "", "directory holding the index artifacts")
	resultsDir := flag.String("results-dir", "", "directory for the results file")
	perTopic := flag.Bool("per-topic", false, "keep the top K per topic instead of per run")
	flushCache := flag.Bool("flush-cache", false, "drop cached term scores for this index and model before ranking")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.Search.Model = *model
		case "k1":
			cfg.Search.K1 = *k1
		case "k3":
			cfg.Search.K3 = *k3
		case "b":
			cfg.Search.B = *b
		case "run":
			cfg.Search.RunName = *runName
		case "index-dir":
			cfg.Indexer.IndexDir = *indexDir
		case "results-dir":
			cfg.Search.ResultsDir = *resultsDir
		case "per-topic":
			cfg.Search.PerTopic = *perTopic
		case "flush-cache":
			cfg.Cache.Flush = *flushCache
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if err := run(cfg, *topicsPath); err != nil {
		slog.Error("ranking run failed", "error", err)
		if hint := apperrors.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(cfg *config.Config, topicsPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithRunID(ctx, uuid.NewString())
	log := logger.FromContext(ctx)

	model, err := ranker.ParseModel(cfg.Search.Model)
	if err != nil {
		return err
	}
	params := ranker.Params{K1: cfg.Search.K1, B: cfg.Search.B, K3: cfg.Search.K3}

	// fail on missing artifacts before reading topics or connecting anywhere
	if _, err := store.Check(cfg.Indexer.IndexDir); err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(nil)
		shutdown, err := metrics.StartServer(cfg.Metrics.Port, m)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	topics, err := topic.ParseFile(topicsPath)
	if err != nil {
		return apperrors.Newf(apperrors.ErrInvalidInput, "%v", err)
	}
	idx, err := store.Open(cfg.Indexer.IndexDir)
	if err != nil {
		return err
	}

	termCache, closeCache, err := openCache(ctx, cfg, idx.Meta, model, params)
	if err != nil {
		return err
	}
	defer closeCache()

	exec := executor.New(idx, executor.Options{
		Model:    model,
		Params:   params,
		TopK:     cfg.Search.TopK,
		PerTopic: cfg.Search.PerTopic,
	}, cache.Instrument(termCache, m), m)

	start := time.Now()
	rows, err := exec.Run(ctx, topics)
	if err != nil {
		return err
	}
	path, err := results.WriteFile(cfg.Search.ResultsDir, cfg.Search.RunName, string(model), rows, start)
	if err != nil {
		return err
	}
	log.Info("ranking run complete",
		"model", model,
		"topics", len(topics),
		"rows", len(rows),
		"results", path,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		if _, err := results.NewPostgresSink(db).Save(ctx, cfg.Search.RunName, string(model), rows); err != nil {
			return err
		}
	}
	fmt.Println(path)
	return nil
}

func openCache(ctx context.Context, cfg *config.Config, meta *store.Meta, model ranker.Model, params ranker.Params) (ranker.TermCache, func(), error) {
	switch cfg.Cache.Backend {
	case "redis":
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		c := cache.NewRedis(client, cache.Namespace(meta, model, params), cfg.Redis.CacheTTL)
		if cfg.Cache.Flush {
			if err := c.Invalidate(ctx); err != nil {
				client.Close()
				return nil, nil, err
			}
		}
		return c, func() { client.Close() }, nil
	case "none":
		return nil, func() {}, nil
	default:
		return cache.NewMemory(), func() {}, nil
	}
}
