package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// markdownSeparators are tried in order: headings, code fences, horizontal
// rules, paragraphs, lines, words. The empty pattern splits into runes.
var markdownSeparators = []string{
	`\n#{1,6} `,
	"```\n",
	`\n\*\*\*+\n`,
	`\n---+\n`,
	`\n___+\n`,
	`\n\n`,
	`\n`,
	` `,
	``,
}

// Splitter breaks text into overlapping chunks of at most ChunkSize runes,
// preferring to cut at markdown structure. Separators are kept at the start of
// the piece that follows them.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	separators   []*regexp.Regexp
}

// NewMarkdownSplitter creates a splitter tuned for markdown documents
func NewMarkdownSplitter(chunkSize, chunkOverlap int) *Splitter {
	seps := make([]*regexp.Regexp, len(markdownSeparators))
	for i, s := range markdownSeparators {
		seps[i] = regexp.MustCompile(s)
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: min(chunkOverlap, max(chunkSize-1, 0)),
		separators:   seps,
	}
}

// Split returns the chunks of text in document order. Chunks are trimmed and
// never empty.
func (s *Splitter) Split(text string) []string {
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []*regexp.Regexp) []string {
	// Pick the first separator present in the text; finer ones are kept for
	// pieces that are still too long.
	sep := separators[len(separators)-1]
	var finer []*regexp.Regexp
	for i, candidate := range separators {
		if candidate.String() == "" {
			sep = candidate
			break
		}
		if candidate.MatchString(text) {
			sep = candidate
			finer = separators[i+1:]
			break
		}
	}

	var chunks, pending []string
	for _, piece := range splitKeepingSeparator(text, sep) {
		if runeLen(piece) < s.ChunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending)...)
			pending = nil
		}
		if len(finer) == 0 {
			chunks = appendTrimmed(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, finer)...)
		}
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending)...)
	}
	return chunks
}

// merge packs consecutive pieces into chunks no longer than ChunkSize,
// carrying up to ChunkOverlap runes of trailing pieces into the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var (
		chunks  []string
		current []string
		total   int
	)

	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > s.ChunkSize && len(current) > 0 {
			chunks = appendTrimmed(chunks, strings.Join(current, ""))
			for len(current) > 0 && (total > s.ChunkOverlap || total+n > s.ChunkSize) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, piece)
		total += n
	}

	if len(current) > 0 {
		chunks = appendTrimmed(chunks, strings.Join(current, ""))
	}
	return chunks
}

// splitKeepingSeparator splits text at every match of sep, attaching each
// separator to the start of the following piece. Empty pieces are dropped.
func splitKeepingSeparator(text string, sep *regexp.Regexp) []string {
	if sep.String() == "" {
		pieces := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}

	var pieces []string
	last := 0
	for _, loc := range sep.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			pieces = append(pieces, text[last:loc[0]])
		}
		last = loc[0]
	}
	if last < len(text) {
		pieces = append(pieces, text[last:])
	}
	return pieces
}

func appendTrimmed(chunks []string, chunk string) []string {
	if trimmed := strings.TrimSpace(chunk); trimmed != "" {
		return append(chunks, trimmed)
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
