package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/normalizer"
	"github.com/Adithya-Monish-Kumar-K/spimi-search/internal/textenc"
	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMeta() *Meta {
	return &Meta{
		DocumentLengths:    []int{10, 20},
		DocumentSetLengths: []int{5, 12},
		DocIDs:             []string{"A", "B"},
		Normalization:      normalizer.Options{CaseFolding: true, Stemming: true},
		ItemCount:          2,
		Encoding:           "utf-8",
		PostingsFile:       PostingsFileName,
		PostingsVersion:    index.FormatVersion,
		Blocks:             2,
		BuiltAt:            time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
	}
}

func writePostings(t *testing.T, dir string, entries ...*index.PostingsEntry) {
	t.Helper()
	utf8, _ := textenc.Lookup("utf-8")
	_, err := segment.WriteAll(filepath.Join(dir, PostingsFileName), entries, utf8)
	require.NoError(t, err)
}

func TestMetaRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := sampleMeta()
	require.NoError(t, WriteMeta(dir, want))

	got, err := ReadMeta(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 2, got.DocCount())
}

func TestMetaRejectsCorruption(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteMeta(dir, sampleMeta()))
	path := filepath.Join(dir, MetaFileName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	flipped := append([]byte(nil), data...)
	flipped[headerSize+3] ^= 0xff
	require.NoError(t, os.WriteFile(path, flipped, 0o644))
	_, err = ReadMeta(dir)
	assert.ErrorIs(t, err, apperrors.ErrMalformedPostings)

	require.NoError(t, os.WriteFile(path, data[:len(data)-2], 0o644))
	_, err = ReadMeta(dir)
	assert.ErrorIs(t, err, apperrors.ErrMalformedPostings)

	require.NoError(t, os.WriteFile(path, []byte("not an index at all"), 0o644))
	_, err = ReadMeta(dir)
	assert.ErrorIs(t, err, apperrors.ErrMalformedPostings)
}

func TestMetaInvariant(t *testing.T) {
	m := sampleMeta()
	m.DocumentSetLengths = []int{1}
	assert.Error(t, WriteMeta(t.TempDir(), m))
}

func TestOpenMissingArtifacts(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir)
	assert.ErrorIs(t, err, apperrors.ErrMissingIndex)

	require.NoError(t, WriteMeta(dir, sampleMeta()))
	_, err = Open(dir)
	assert.ErrorIs(t, err, apperrors.ErrMissingIndex, "metadata without postings")
}

func TestOpenLoadsPostings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteMeta(dir, sampleMeta()))
	writePostings(t, dir,
		&index.PostingsEntry{Token: "x", Occurrences: map[int]int{0: 2}},
		&index.PostingsEntry{Token: "y", Occurrences: map[int]int{0: 1, 1: 3}},
	)

	idx, err := Open(dir)
	require.NoError(t, err)
	assert.Len(t, idx.Postings, 2)
	assert.Equal(t, 3, idx.Postings["y"].OccurrencesIn(1))
}

func TestLoadPostingsIntegrity(t *testing.T) {
	dir := t.TempDir()
	meta := sampleMeta()
	writePostings(t, dir, &index.PostingsEntry{Token: "x", Occurrences: map[int]int{5: 1}})

	meta.ItemCount = 1
	_, err := LoadPostings(dir, meta)
	assert.ErrorIs(t, err, apperrors.ErrMalformedPostings, "unknown document id")

	meta.ItemCount = 3
	_, err = LoadPostings(dir, meta)
	assert.ErrorIs(t, err, apperrors.ErrMalformedPostings, "term count mismatch")

	meta.PostingsVersion = index.FormatVersion + 1
	_, err = LoadPostings(dir, meta)
	assert.ErrorIs(t, err, apperrors.ErrMalformedPostings)
}
