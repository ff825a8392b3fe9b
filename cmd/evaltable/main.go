package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/evaltable"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/logger"
)

func main() {
	measure := flag.String("measure", evaltable.DefaultMeasure, "trec_eval measure to tabulate")
	out := flag.String("out", "trec_eval_table.csv", "output CSV file")
	first := flag.Int("first", evaltable.FirstTopic, "first topic id")
	last := flag.Int("last", evaltable.LastTopic, "last topic id")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] TFIDF BM25 BM25VA\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	logger.Setup("info", "text")

	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(1)
	}
	if err := run(flag.Args(), *measure, *out, *first, *last); err != nil {
		slog.Error("building evaluation table failed", "error", err)
		os.Exit(1)
	}
}

func run(paths []string, measure, out string, first, last int) error {
	names := []string{"TF-IDF", "BM25", "BM25VA"}
	cols := make([]evaltable.Column, len(paths))
	for i, path := range paths {
		scores, err := evaltable.ParseFile(path, measure)
		if err != nil {
			return err
		}
		cols[i] = evaltable.Column{Name: names[i], Scores: scores}
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := evaltable.Write(f, cols, first, last); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", out, err)
	}
	slog.Info("evaluation table written", "path", out, "measure", measure)
	return nil
}
