// Package normalizer turns raw text into the ordered token sequence that is
// indexed and queried. Each step is a toggle; the order of application is
// case folding, special-character stripping, stemming, lemmatization and
// finally stop-word removal. Duplicates are retained.
package normalizer

import (
	_ "embed"
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//go:embed stopwords.txt
var stopWordsFile string

// Options selects the normalization steps. The same Options must be used for
// documents at build time and for queries at search time.
type Options struct {
	CaseFolding    bool `json:"case_folding"`
	SpecialStrings bool `json:"special_strings"`
	StopWords      bool `json:"stop_words"`
	Stemming       bool `json:"stemming"`
	Lemmatization  bool `json:"lemmatization"`
}

// Normalizer applies Options to text. It is safe for concurrent use.
type Normalizer struct {
	opts      Options
	stopWords map[string]struct{}
}

func New(opts Options) *Normalizer {
	n := &Normalizer{
		opts:      opts,
		stopWords: make(map[string]struct{}),
	}
	for _, w := range strings.Split(stopWordsFile, "\n") {
		if w = strings.TrimSpace(w); w != "" {
			n.stopWords[w] = struct{}{}
		}
	}
	return n
}

func (n *Normalizer) Options() Options {
	return n.opts
}

// Normalize splits text on whitespace and normalizes every token. Tokens that
// end up empty are dropped.
func (n *Normalizer) Normalize(text string) []string {
	words := strings.Fields(text)
	tokens := make([]string, 0, len(words))
	for _, t := range words {
		if n.opts.CaseFolding {
			t = strings.ToLower(t)
		}
		if n.opts.SpecialStrings {
			t = stripSpecials(t)
		}
		if n.opts.Stemming {
			t = english.Stem(t, true)
		}
		if n.opts.Lemmatization {
			t = lemmatize(t)
		}
		if t == "" {
			continue
		}
		if n.opts.StopWords {
			if _, isStop := n.stopWords[t]; isStop {
				continue
			}
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// stripSpecials folds accented letters to their base form and drops every
// rune outside [a-zA-Z0-9].
func stripSpecials(word string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), word)
	if err != nil {
		folded = word
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
