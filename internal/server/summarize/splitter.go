package summarize

import (
	"strings"
	"unicode/utf8"
)

// Splitter cuts text into chunks of at most ChunkSize characters, trying
// each separator in turn and keeping up to Overlap characters of context
// between neighbouring chunks.
type Splitter struct {
	ChunkSize  int
	Overlap    int
	Separators []string
}

func NewSplitter() *Splitter {
	return &Splitter{
		ChunkSize:  1500,
		Overlap:    200,
		Separators: []string{"\n\n", "\n", " ", ""},
	}
}

func (s *Splitter) Split(text string) []string {
	return s.split(text, s.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := ""
	var rest []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	var (
		out  []string
		good []string
	)
	for _, piece := range splitNonEmpty(text, sep) {
		if length(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, s.merge(good, sep)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		out = append(out, s.merge(good, sep)...)
	}
	return out
}

// merge joins small pieces back into chunks up to ChunkSize, carrying the
// tail of each chunk into the next one.
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := length(sep)

	var (
		out     []string
		current []string
		total   int
	)
	joinedLen := func(extra int) int {
		if len(current) > 0 {
			return total + extra + sepLen
		}
		return total + extra
	}

	for _, p := range pieces {
		l := length(p)
		if joinedLen(l) > s.ChunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
				out = append(out, doc)
			}
			for total > s.Overlap || (joinedLen(l) > s.ChunkSize && total > 0) {
				total -= length(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		current = append(current, p)
		total += l
		if len(current) > 1 {
			total += sepLen
		}
	}
	if doc := strings.TrimSpace(strings.Join(current, sep)); doc != "" {
		out = append(out, doc)
	}
	return out
}

func splitNonEmpty(text, sep string) []string {
	parts := strings.Split(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func length(s string) int { return utf8.RuneCountInString(s) }
