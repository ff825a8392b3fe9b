package evaltable

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trecEvalOutput = `runid                 	401	run1
num_ret               	401	1000
map                   	401	0.2500
P_10                  	401	0.4000
map                   	402	0.1000

map                   	all	0.1750
`

func TestParseScoresSelectsMeasure(t *testing.T) {
	scores, err := ParseScores(strings.NewReader(trecEvalOutput), DefaultMeasure)
	require.NoError(t, err)
	assert.Equal(t, Scores{"401": 0.25, "402": 0.1, "all": 0.175}, scores)

	p10, err := ParseScores(strings.NewReader(trecEvalOutput), "P_10")
	require.NoError(t, err)
	assert.Equal(t, Scores{"401": 0.4}, p10)
}

func TestParseScoresRejectsBadLines(t *testing.T) {
	_, err := ParseScores(strings.NewReader("map 401\n"), DefaultMeasure)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = ParseScores(strings.NewReader("map 401 high\n"), DefaultMeasure)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestWriteTable(t *testing.T) {
	cols := []Column{
		{Name: "TF-IDF", Scores: Scores{"401": 0.25, "all": 0.2}},
		{Name: "BM25", Scores: Scores{"402": 0.5}},
		{Name: "BM25VA", Scores: Scores{}},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cols, 401, 403))
	assert.Equal(t, ", TF-IDF, BM25, BM25VA\n"+
		"401, 0.250000, 0.000000, 0.000000\n"+
		"402, 0.000000, 0.500000, 0.000000\n"+
		"403, 0.000000, 0.000000, 0.000000\n"+
		"all, 0.200000, 0.000000, 0.000000\n",
		buf.String())
}

func TestWriteDefaultRangeRowCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tfidf.eval")
	require.NoError(t, os.WriteFile(path, []byte(trecEvalOutput), 0o644))
	scores, err := ParseFile(path, DefaultMeasure)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []Column{{Name: "TF-IDF", Scores: scores}}, FirstTopic, LastTopic))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 1+50+1)
	assert.Equal(t, "401, 0.250000", lines[1])
	assert.Equal(t, "all, 0.175000", lines[51])
}
