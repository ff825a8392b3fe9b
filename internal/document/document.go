// Package document extracts documents from TREC-style markup and keeps the
// registry that maps external document numbers to dense internal ids.
package document

import (
	"regexp"
	"strings"
)

// Document is one record extracted from a corpus file.
type Document struct {
	ID       string
	Text     string
	Headline string
}

var (
	docPattern      = regexp.MustCompile(`(?s)<DOC>(.*?)</DOC>`)
	docnoPattern    = regexp.MustCompile(`(?s)<DOCNO>(.*?)</DOCNO>`)
	textPattern     = regexp.MustCompile(`(?s)<TEXT>(.*?)</TEXT>`)
	headlinePattern = regexp.MustCompile(`(?s)<HEADLINE>(.*?)</HEADLINE>`)
)

// Parse returns every <DOC> in text that carries a non-empty <DOCNO> and
// <TEXT>. Documents missing either are skipped.
func Parse(text string) []Document {
	matches := docPattern.FindAllStringSubmatch(text, -1)
	docs := make([]Document, 0, len(matches))
	for _, m := range matches {
		body := m[1]
		docno := firstGroup(docnoPattern, body)
		content := firstGroup(textPattern, body)
		if docno == "" || content == "" {
			continue
		}
		docs = append(docs, Document{
			ID:       docno,
			Text:     content,
			Headline: firstGroup(headlinePattern, body),
		})
	}
	return docs
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
