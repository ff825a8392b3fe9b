// Package topic parses TREC topic files into query texts.
package topic

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Topic is one TREC query: its number and the collected text.
type Topic struct {
	ID   string
	Text string
}

const (
	numPrefix   = "<num> Number:"
	titlePrefix = "<title>"
)

// ParseFile reads the topic file at path.
func ParseFile(path string) ([]Topic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening topic file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads topics in file order. The title and every untagged line after
// <num> contribute to the query text; the <desc> and <narr> marker lines
// themselves are skipped.
func Parse(r io.Reader) ([]Topic, error) {
	var (
		topics []Topic
		id     string
		text   strings.Builder
		inside bool
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case strings.HasPrefix(line, "<desc>"), strings.HasPrefix(line, "<narr>"):
		case strings.HasPrefix(line, "</top>"):
			if inside {
				topics = append(topics, Topic{ID: id, Text: strings.TrimSpace(text.String())})
			}
			inside = false
			text.Reset()
		case strings.HasPrefix(line, numPrefix):
			id = strings.TrimSpace(strings.TrimPrefix(line, numPrefix))
			if id == "" {
				return nil, fmt.Errorf("topic without number: %q", line)
			}
			inside = true
		case strings.HasPrefix(line, titlePrefix):
			text.WriteString(strings.TrimSpace(strings.TrimPrefix(line, titlePrefix)))
			text.WriteByte(' ')
		case inside:
			text.WriteString(line)
			text.WriteByte(' ')
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading topics: %w", err)
	}
	return topics, nil
}
