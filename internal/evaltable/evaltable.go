// Package evaltable builds the per-topic comparison table of trec_eval
// outputs for several scoring models.
package evaltable

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/spimi-search/pkg/errors"
)

const (
	DefaultMeasure = "map"
	FirstTopic     = 401
	LastTopic      = 450
	AllRow         = "all"
)

// Scores maps a topic id (or "all") to the value of one measure.
type Scores map[string]float64

// Column is one model's scores under its table heading.
type Column struct {
	Name   string
	Scores Scores
}

// ParseScores reads "measure topic value" lines as printed by trec_eval -q.
// Only lines of the given measure are kept; an empty measure keeps all.
func ParseScores(r io.Reader, measure string) (Scores, error) {
	scores := make(Scores)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "line %d: expected 3 columns, got %d", lineNo, len(fields))
		}
		if measure != "" && fields[0] != measure {
			continue
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			// trec_eval prints run ids and counts for some measures
			if measure == "" {
				continue
			}
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "line %d: value %q: %v", lineNo, fields[2], err)
		}
		scores[fields[1]] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading evaluation output: %w", err)
	}
	return scores, nil
}

func ParseFile(path, measure string) (Scores, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening evaluation output: %w", err)
	}
	defer f.Close()
	scores, err := ParseScores(f, measure)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scores, nil
}

// Write emits one row per topic in [first, last] and a final "all" row.
// Missing values print as 0.
func Write(w io.Writer, cols []Column, first, last int) error {
	bw := bufio.NewWriter(w)
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	fmt.Fprintf(bw, ", %s\n", strings.Join(names, ", "))
	for id := first; id <= last; id++ {
		writeRow(bw, strconv.Itoa(id), cols)
	}
	writeRow(bw, AllRow, cols)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing evaluation table: %w", err)
	}
	return nil
}

func writeRow(w io.Writer, key string, cols []Column) {
	var sb strings.Builder
	sb.WriteString(key)
	for _, c := range cols {
		fmt.Fprintf(&sb, ", %f", c.Scores[key])
	}
	sb.WriteByte('\n')
	io.WriteString(w, sb.String())
}
