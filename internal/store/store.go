package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/textenc"
	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/logger"
)

// Index is the query-time view: metadata plus the resident postings map.
type Index struct {
	Dir      string
	Meta     *Meta
	Postings map[string]*index.PostingsEntry
}

// PostingsPath returns the merged postings file of the index in dir.
func PostingsPath(dir string, meta *Meta) string {
	name := PostingsFileName
	if meta != nil && meta.PostingsFile != "" {
		name = meta.PostingsFile
	}
	return filepath.Join(dir, name)
}

// Check verifies both artifacts exist without loading the postings.
func Check(dir string) (*Meta, error) {
	meta, err := ReadMeta(dir)
	if err != nil {
		return nil, err
	}
	path := PostingsPath(dir, meta)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Newf(apperrors.ErrMissingIndex, "no postings file at %s", path)
	} else if err != nil {
		return nil, fmt.Errorf("checking postings file: %w", err)
	}
	return meta, nil
}

// Open checks both artifacts and streams the postings file into memory.
func Open(dir string) (*Index, error) {
	log := logger.WithComponent("index-store")
	start := time.Now()
	meta, err := Check(dir)
	if err != nil {
		return nil, err
	}
	postings, err := LoadPostings(dir, meta)
	if err != nil {
		return nil, err
	}
	log.Info("index loaded",
		"dir", dir,
		"documents", meta.DocCount(),
		"terms", len(postings),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return &Index{Dir: dir, Meta: meta, Postings: postings}, nil
}

// LoadPostings reads the postings file one line at a time into a token map.
func LoadPostings(dir string, meta *Meta) (map[string]*index.PostingsEntry, error) {
	if meta.PostingsVersion > index.FormatVersion {
		return nil, apperrors.Newf(apperrors.ErrMalformedPostings,
			"postings format %d is newer than supported %d", meta.PostingsVersion, index.FormatVersion)
	}
	enc, err := textenc.Lookup(meta.Encoding)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrMalformedPostings, "metadata encoding: %v", err)
	}
	path := PostingsPath(dir, meta)
	postings, err := segment.ReadAll(path, enc)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Newf(apperrors.ErrMissingIndex, "no postings file at %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading postings: %w", err)
	}
	if len(postings) != meta.ItemCount {
		return nil, apperrors.Newf(apperrors.ErrMalformedPostings,
			"postings hold %d terms, metadata expects %d", len(postings), meta.ItemCount)
	}
	n := meta.DocCount()
	for token, entry := range postings {
		for doc := range entry.Occurrences {
			if doc >= n {
				return nil, apperrors.Newf(apperrors.ErrMalformedPostings,
					"term %q references unknown document %d", token, doc)
			}
		}
	}
	return postings, nil
}
