package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
)

// FormatVersion identifies the postings line layout recorded in the index
// metadata. Bump it when the line schema changes.
const FormatVersion = 1

// PostingsEntry records which documents contain Token and how often.
type PostingsEntry struct {
	Token       string
	Occurrences map[int]int
}

func NewPostingsEntry(token string) *PostingsEntry {
	return &PostingsEntry{
		Token:       token,
		Occurrences: make(map[int]int),
	}
}

// Add records n more occurrences of the token in doc.
func (p *PostingsEntry) Add(doc int, n int) {
	p.Occurrences[doc] += n
}

// Count returns the document frequency.
func (p *PostingsEntry) Count() int {
	return len(p.Occurrences)
}

// OccurrencesIn returns the raw term frequency in doc, 0 when absent.
func (p *PostingsEntry) OccurrencesIn(doc int) int {
	return p.Occurrences[doc]
}

// Combine folds other into p: the union of document keys with counts added
// where both hold the same document.
func (p *PostingsEntry) Combine(other *PostingsEntry) {
	for doc, n := range other.Occurrences {
		p.Occurrences[doc] += n
	}
}

// MarshalLine encodes p as a single JSON object {"token":{"doc":count,...}}
// without the trailing newline. Tokens must be valid UTF-8; anything else
// would not read back as the same token.
func (p *PostingsEntry) MarshalLine() ([]byte, error) {
	if !utf8.ValidString(p.Token) {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "term %q is not valid UTF-8; check the input encoding", p.Token)
	}
	line, err := json.Marshal(map[string]map[int]int{p.Token: p.Occurrences})
	if err != nil {
		return nil, fmt.Errorf("marshaling postings for term %q: %w", p.Token, err)
	}
	return line, nil
}

// ParseLine decodes one postings line. Anything other than exactly one token
// key mapping non-negative document ids to positive counts is rejected with
// ErrMalformedPostings.
func ParseLine(line []byte) (*PostingsEntry, error) {
	line = bytes.TrimSpace(line)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, apperrors.Newf(apperrors.ErrMalformedPostings, "decoding line: %v", err)
	}
	if len(raw) != 1 {
		return nil, apperrors.Newf(apperrors.ErrMalformedPostings, "expected exactly one token per line, got %d", len(raw))
	}
	var (
		token string
		value json.RawMessage
	)
	for t, v := range raw {
		token, value = t, v
	}
	var occ map[int]int
	if err := json.Unmarshal(value, &occ); err != nil {
		return nil, apperrors.Newf(apperrors.ErrMalformedPostings, "decoding postings for term %q: %v", token, err)
	}
	if len(occ) == 0 {
		return nil, apperrors.Newf(apperrors.ErrMalformedPostings, "term %q has no postings", token)
	}
	for doc, n := range occ {
		if doc < 0 || n <= 0 {
			return nil, apperrors.Newf(apperrors.ErrMalformedPostings, "term %q: invalid posting %d:%d", token, doc, n)
		}
	}
	return &PostingsEntry{Token: token, Occurrences: occ}, nil
}

type DocStats struct {
	Length         int
	DistinctLength int
}
