package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFlags(t *testing.T) {
	text := "The Running   connections, of the CAFÉ!"
	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{"none", Options{}, []string{"The", "Running", "connections,", "of", "the", "CAFÉ!"}},
		{"case", Options{CaseFolding: true}, []string{"the", "running", "connections,", "of", "the", "café!"}},
		{"case+special", Options{CaseFolding: true, SpecialStrings: true}, []string{"the", "running", "connections", "of", "the", "cafe"}},
		{"case+special+stop", Options{CaseFolding: true, SpecialStrings: true, StopWords: true}, []string{"running", "connections", "cafe"}},
		{"all+stem", Options{CaseFolding: true, SpecialStrings: true, StopWords: true, Stemming: true}, []string{"run", "connect", "cafe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.opts).Normalize(text))
		})
	}
}

func TestNormalizeDropsEmptyAndKeepsDuplicates(t *testing.T) {
	n := New(Options{SpecialStrings: true})
	assert.Equal(t, []string{"x", "x", "x"}, n.Normalize("x -- x ... x"))
}

func TestLemmatize(t *testing.T) {
	cases := map[string]string{
		"cats":     "cat",
		"boxes":    "box",
		"parties":  "party",
		"glasses":  "glass",
		"children": "child",
		"analysis": "analysis",
		"bus":      "bus",
		"is":       "is",
	}
	for in, want := range cases {
		assert.Equal(t, want, lemmatize(in), in)
	}
}
