package normalizer

import "strings"

var irregularNouns = map[string]string{
	"children":  "child",
	"criteria":  "criterion",
	"feet":      "foot",
	"geese":     "goose",
	"halves":    "half",
	"knives":    "knife",
	"leaves":    "leaf",
	"lives":     "life",
	"men":       "man",
	"mice":      "mouse",
	"people":    "person",
	"phenomena": "phenomenon",
	"teeth":     "tooth",
	"wives":     "wife",
	"wolves":    "wolf",
	"women":     "woman",
}

// Checked in order; the first matching suffix wins.
var pluralRules = []struct {
	suffix      string
	replacement string
}{
	{"sses", "ss"},
	{"shes", "sh"},
	{"ches", "ch"},
	{"xes", "x"},
	{"zes", "z"},
	{"ies", "y"},
	{"s", ""},
}

// lemmatize reduces English plural nouns to their singular form. Words that
// look singular (ending in ss, us or is) are left alone.
func lemmatize(word string) string {
	if lemma, ok := irregularNouns[word]; ok {
		return lemma
	}
	if len(word) <= 3 {
		return word
	}
	for _, suffix := range []string{"ss", "us", "is"} {
		if strings.HasSuffix(word, suffix) {
			return word
		}
	}
	for _, rule := range pluralRules {
		if strings.HasSuffix(word, rule.suffix) {
			stem := word[:len(word)-len(rule.suffix)]
			if len(stem) < 2 {
				return word
			}
			return stem + rule.replacement
		}
	}
	return word
}
