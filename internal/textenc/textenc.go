// Package textenc resolves the configured on-disk text encoding and wraps
// readers and writers so the rest of the pipeline only sees UTF-8.
package textenc

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Lookup returns the encoding registered under name.
func Lookup(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "iso-8859-1", "latin-1", "latin1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// NewReader decodes r from enc into UTF-8. Input declared as UTF-8 still
// goes through the decoder so invalid byte sequences come out as U+FFFD.
func NewReader(r io.Reader, enc encoding.Encoding) io.Reader {
	return enc.NewDecoder().Reader(r)
}

// NewWriter encodes UTF-8 written to the returned writer into enc.
func NewWriter(w io.Writer, enc encoding.Encoding) io.Writer {
	if enc == unicode.UTF8 {
		return w
	}
	return enc.NewEncoder().Writer(w)
}
