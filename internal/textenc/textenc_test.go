package textenc

import (
	"bytes"
	"io"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatin1RoundTrip(t *testing.T) {
	enc, err := Lookup("latin-1")
	require.NoError(t, err)

	var buf bytes.Buffer
	w := NewWriter(&buf, enc)
	_, err = io.WriteString(w, "café")
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 'a', 'f', 0xe9}, buf.Bytes())

	out, err := io.ReadAll(NewReader(bytes.NewReader(buf.Bytes()), enc))
	require.NoError(t, err)
	assert.Equal(t, "café", string(out))
}

func TestUTF8ReaderReplacesInvalidBytes(t *testing.T) {
	enc, err := Lookup("utf-8")
	require.NoError(t, err)

	out, err := io.ReadAll(NewReader(bytes.NewReader([]byte("caf\xe9 \xc3\xa9t\xe8")), enc))
	require.NoError(t, err)
	assert.Equal(t, "caf\ufffd \u00e9t\ufffd", string(out))
	assert.True(t, utf8.Valid(out))
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("koi8")
	assert.Error(t, err)
}
