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

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/notify"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	caseFolding := flag.Bool("c", false, "fold tokens to lower case")
	specialStrings := flag.Bool("s", false, "strip accents and non-alphanumeric characters")
	stopWords := flag.Bool("w", false, "remove stop words")
	stemming := flag.Bool("S", false, "apply the Snowball English stemmer")
	lemmatization := flag.Bool("l", false, "lemmatize English nouns")
	encoding := flag.String("encoding", "", "input and index file encoding (utf-8, iso-8859-1)")
	indexDir := flag.String("index-dir", "", "directory for the index artifacts")
	keepBlocks := flag.Bool("keep-blocks", false, "keep block files after the merge")
	workers := flag.Int("workers", 0, "blocks built in parallel")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] PATH...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	n := &cfg.Normalize
	n.CaseFolding = n.CaseFolding || *caseFolding
	n.SpecialStrings = n.SpecialStrings || *specialStrings
	n.StopWords = n.StopWords || *stopWords
	n.Stemming = n.Stemming || *stemming
	n.Lemmatization = n.Lemmatization || *lemmatization
	if *encoding != "" {
		cfg.Indexer.Encoding = *encoding
	}
	if *indexDir != "" {
		cfg.Indexer.IndexDir = *indexDir
	}
	if *keepBlocks {
		cfg.Indexer.KeepBlocks = true
	}
	if *workers > 0 {
		cfg.Indexer.Workers = *workers
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(cfg, flag.Args()); err != nil {
		slog.Error("index build failed", "error", err)
		if hint := apperrors.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, hint)
		}
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(cfg *config.Config, paths []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	opts := normalizer.Options{
		CaseFolding:    cfg.Normalize.CaseFolding,
		SpecialStrings: cfg.Normalize.SpecialStrings,
		StopWords:      cfg.Normalize.StopWords,
		Stemming:       cfg.Normalize.Stemming,
		Lemmatization:  cfg.Normalize.Lemmatization,
	}
	engine, err := indexer.NewEngine(cfg.Indexer, opts, m)
	if err != nil {
		return err
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		engine.SetNotifier(notify.New(producer, resilience.RetryConfig{MaxAttempts: 3}))
	}

	slog.Info("starting index build",
		"paths", len(paths),
		"index_dir", cfg.Indexer.IndexDir,
		"encoding", cfg.Indexer.Encoding,
		"workers", cfg.Indexer.Workers,
		"normalization", opts,
	)
	summary, err := engine.Build(ctx, paths)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d documents, %d terms, %d blocks in %s\n",
		summary.Meta.DocCount(), summary.Terms, summary.Blocks, summary.Duration.Round(time.Millisecond))
	return nil
}
