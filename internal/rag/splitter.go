package rag

import (
	"strings"
	"unicode/utf8"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplitter cuts text on the coarsest separator that occurs in it and
// recurses with finer separators for pieces that are still too long. Adjacent
// pieces are then merged back up to ChunkSize runes, carrying up to
// ChunkOverlap runes of trailing context into the next chunk. Separators stay
// attached to the start of the piece that follows them.
type RecursiveSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

func NewRecursiveSplitter(chunkSize, chunkOverlap int) *RecursiveSplitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &RecursiveSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		Separators:   defaultSeparators,
	}
}

func (s *RecursiveSplitter) Split(text string) []string {
	seps := s.Separators
	if len(seps) == 0 {
		seps = defaultSeparators
	}
	return s.split(text, seps)
}

func runeLen(text string) int {
	return utf8.RuneCountInString(text)
}

func (s *RecursiveSplitter) split(text string, seps []string) []string {
	separator := seps[len(seps)-1]
	var rest []string
	for i, sep := range seps {
		if sep == "" {
			separator = ""
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = seps[i+1:]
			break
		}
	}

	var final []string
	var good []string
	for _, piece := range splitKeepSeparator(text, separator) {
		if runeLen(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
			continue
		}
		final = append(final, s.split(piece, rest)...)
	}
	if len(good) > 0 {
		final = append(final, s.merge(good)...)
	}
	return final
}

func splitKeepSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, len(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	if parts[0] != "" {
		out = append(out, parts[0])
	}
	for _, p := range parts[1:] {
		out = append(out, sep+p)
	}
	return out
}

func (s *RecursiveSplitter) merge(pieces []string) []string {
	var docs []string
	var current []string
	total := 0
	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > s.ChunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				docs = append(docs, doc)
			}
			for total > s.ChunkOverlap || (total+n > s.ChunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}
