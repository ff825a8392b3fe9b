package index

import (
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineRoundTrip(t *testing.T) {
	entry := NewPostingsEntry("élan")
	entry.Add(12, 3)
	entry.Add(2, 1)
	entry.Add(2, 1)

	line, err := entry.MarshalLine()
	require.NoError(t, err)
	assert.JSONEq(t, `{"élan":{"12":3,"2":2}}`, string(line))

	back, err := ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, entry.Token, back.Token)
	assert.Equal(t, entry.Occurrences, back.Occurrences)
	assert.Equal(t, 2, back.Count())
	assert.Equal(t, 2, back.OccurrencesIn(2))
	assert.Equal(t, 0, back.OccurrencesIn(99))
}

func TestLineRoundTripEscapedTokens(t *testing.T) {
	tokens := []string{`a<b>&c`, `say"hi"`, `back\slash`, "line\u2028sep", "para\u2029sep", "caf\ufffd", "tab\tbed"}
	for _, token := range tokens {
		entry := NewPostingsEntry(token)
		entry.Add(0, 1)

		line, err := entry.MarshalLine()
		require.NoError(t, err, token)
		assert.NotContains(t, string(line), "\n", token)

		back, err := ParseLine(line)
		require.NoError(t, err, token)
		assert.Equal(t, token, back.Token)
	}
}

func TestMarshalLineRejectsInvalidUTF8(t *testing.T) {
	for _, token := range []string{"caf\xe9", "\xff", "ok\xc3"} {
		entry := NewPostingsEntry(token)
		entry.Add(0, 1)
		_, err := entry.MarshalLine()
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, token)
	}
}

func TestParseLineRejectsMalformed(t *testing.T) {
	lines := []string{
		`{"foo":{"1":2}`,
		`{}`,
		`{"a":{"1":1},"b":{"2":1}}`,
		`{"a":{}}`,
		`{"a":null}`,
		`{"a":{"x":1}}`,
		`{"a":{"1":0}}`,
		`{"a":{"-1":2}}`,
		`{"a":{"1":1.5}}`,
		`["a"]`,
	}
	for _, line := range lines {
		_, err := ParseLine([]byte(line))
		assert.ErrorIs(t, err, apperrors.ErrMalformedPostings, line)
	}
}

func TestCombineUnionsAndSums(t *testing.T) {
	a := NewPostingsEntry("foo")
	a.Add(1, 3)
	a.Add(2, 1)
	b := NewPostingsEntry("foo")
	b.Add(1, 3)
	b.Add(5, 4)

	a.Combine(b)
	assert.Equal(t, map[int]int{1: 6, 2: 1, 5: 4}, a.Occurrences)
	assert.Equal(t, 3, a.Count())
}

func TestMemoryIndex(t *testing.T) {
	m := NewMemoryIndex()
	m.AddDocument(0, []string{"b", "a", "b", "c"})
	m.AddDocument(1, []string{"a"})

	snap := m.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{snap[0].Token, snap[1].Token, snap[2].Token})
	assert.Equal(t, 2, snap[0].Count())
	assert.Equal(t, 2, snap[1].OccurrencesIn(0))
	assert.Equal(t, DocStats{Length: 4, DistinctLength: 3}, m.Stats()[0])
	assert.Equal(t, DocStats{Length: 1, DistinctLength: 1}, m.Stats()[1])
	assert.Greater(t, m.Size(), int64(0))

	m.AddDocument(1, []string{"a", "d"})
	assert.Equal(t, DocStats{Length: 3, DistinctLength: 2}, m.Stats()[1])
	assert.Len(t, m.Snapshot(), 4)
}
