// Package chunker splits document text into overlapping, sentence-respecting
// segments sized for an embedding model's context window.
package chunker

import (
	"errors"
	"fmt"
)

// Sizes are given in approximate tokens; one token is taken as four characters.
const charsPerToken = 4

// ErrInvalidChunking reports a caller contract violation in the chunking
// parameters. It is never returned for any property of the input text.
var ErrInvalidChunking = errors.New("chunker: invalid chunk parameters")

// Span is one produced segment. Text may begin with an overlap carried from
// the end of the previous span; Start and End delimit the newly covered
// region of the original text, so concatenating original[Start:End] across
// all spans reconstructs the document.
type Span struct {
	Text  string
	Start int
	End   int
}

// TokenCount approximates the token length of the span text.
func (s Span) TokenCount() int { return len(s.Text) / charsPerToken }

// Split produces an ordered sequence of spans covering text with no gaps.
// chunkSize and overlap are approximate token counts; overlap must be
// positive and smaller than chunkSize.
func Split(text string, chunkSize, overlap int) ([]Span, error) {
	if chunkSize <= 0 || overlap <= 0 {
		return nil, fmt.Errorf("%w: chunkSize=%d overlap=%d", ErrInvalidChunking, chunkSize, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d >= chunkSize %d", ErrInvalidChunking, overlap, chunkSize)
	}
	if len(text) == 0 {
		return nil, nil
	}

	maxChars := chunkSize * charsPerToken
	overlapChars := overlap * charsPerToken

	bounds := sentenceBounds(text)
	if len(bounds) <= 1 {
		// no sentence boundary: the whole text is one chunk
		return []Span{{Text: text, Start: 0, End: len(text)}}, nil
	}

	var spans []Span
	carry := "" // overlap seeded from the previous closed chunk
	regionStart := 0
	prev := 0
	for _, b := range bounds {
		sentLen := b - prev
		curLen := len(carry) + (prev - regionStart)
		if prev > regionStart && curLen+sentLen > maxChars {
			chunk := carry + text[regionStart:prev]
			spans = append(spans, Span{Text: chunk, Start: regionStart, End: prev})
			carry = tailOverlap(chunk, overlapChars)
			regionStart = prev
		}
		prev = b
	}
	if regionStart < len(text) {
		spans = append(spans, Span{Text: carry + text[regionStart:], Start: regionStart, End: len(text)})
	}
	return spans, nil
}

// sentenceBounds returns the end offset of every sentence in text, scanning
// for '.', '!' and '?' and consuming any run of terminators plus trailing
// whitespace. The final offset is always len(text).
func sentenceBounds(text string) []int {
	var bounds []int
	i := 0
	for i < len(text) {
		c := text[i]
		if c == '.' || c == '!' || c == '?' {
			for i < len(text) && (text[i] == '.' || text[i] == '!' || text[i] == '?') {
				i++
			}
			for i < len(text) && (text[i] == ' ' || text[i] == '\t' || text[i] == '\n' || text[i] == '\r') {
				i++
			}
			bounds = append(bounds, i)
			continue
		}
		i++
	}
	if len(bounds) == 0 || bounds[len(bounds)-1] != len(text) {
		bounds = append(bounds, len(text))
	}
	return bounds
}

// tailOverlap picks the trailing overlap of a closed chunk, preferring to
// start at the sentence boundary nearest the tail so the next chunk opens
// with whole sentences when possible.
func tailOverlap(chunk string, overlapChars int) string {
	if overlapChars >= len(chunk) {
		return chunk
	}
	window := len(chunk) - overlapChars
	for _, b := range sentenceBounds(chunk) {
		if b >= window && b < len(chunk) {
			return chunk[b:]
		}
	}
	return chunk[window:]
}
