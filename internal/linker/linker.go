// Package linker rewrites note text, inserting [[wiki-link]] markup around
// spans matched semantically or by exact note title. It must never corrupt
// spans that are already linked.
package linker

import (
	"context"
	"io"
	"log"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/0x5457/note-index/internal/config"
	"github.com/0x5457/note-index/internal/embeddings"
	"github.com/0x5457/note-index/internal/models"
	"github.com/0x5457/note-index/internal/vault"
)

// Searcher serves top-K similarity for an already-computed query vector.
type Searcher interface {
	SearchEmbedding(vec []float32, k int) ([]models.SemanticHit, error)
}

// TitleSource provides the exact-match note title entries.
type TitleSource interface {
	Entries(ctx context.Context) ([]models.NoteTitle, error)
}

// Linker composes two link mechanisms per pass, in fixed order: semantic
// linking first, exact-title linking second. The exact pass runs on the
// already-semantically-linked text, so it must not re-wrap those spans.
type Linker struct {
	searcher Searcher
	emb      embeddings.Embedder
	titles   TitleSource
	cfg      config.LinkerConfig
	logger   *log.Logger
}

func New(searcher Searcher, emb embeddings.Embedder, titles TitleSource, cfg config.LinkerConfig, logger *log.Logger) *Linker {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Linker{searcher: searcher, emb: emb, titles: titles, cfg: cfg, logger: logger}
}

// Apply rewrites text with cross-reference links and reports how many were
// inserted. Linking is best-effort: a failing embedding or search call
// yields the original text, never an error.
func (l *Linker) Apply(ctx context.Context, text string) models.LinkResult {
	out, semCount := l.semanticPass(ctx, text)
	out, exactCount := l.exactPass(ctx, out)
	return models.LinkResult{Text: out, MatchCount: semCount + exactCount}
}

var (
	linkRe     = regexp.MustCompile(`\[\[[^\[\]]*\]\]`)
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

type span struct{ start, end int }

type replacement struct {
	span
	markup string
}

// semanticPass embeds every sentence in one batch and anchors links for
// candidates at or above the similarity threshold.
func (l *Linker) semanticPass(ctx context.Context, text string) (string, int) {
	sents := sentenceSpans(text)
	if len(sents) == 0 {
		return text, 0
	}
	queries := make([]string, len(sents))
	for i, s := range sents {
		queries[i] = text[s.start:s.end]
	}
	vecs, err := l.emb.EmbedBatch(ctx, queries)
	if err != nil {
		l.logger.Printf("semantic linking skipped: %v", err)
		return text, 0
	}

	claimed := linkSpans(text)
	var reps []replacement
	for si, sent := range sents {
		hits, err := l.searcher.SearchEmbedding(vecs[si], l.cfg.MaxCandidates)
		if err != nil {
			l.logger.Printf("semantic linking skipped: %v", err)
			return text, 0
		}
		accepted := 0
		for _, h := range hits {
			if accepted >= l.cfg.MaxLinksPerSentence {
				break
			}
			// the threshold boundary is inclusive
			if h.Score < l.cfg.Threshold {
				continue
			}
			title := vault.Title(h.Chunk.Doc)
			anchor, ok := anchorIn(text, sent, title, h.Chunk.Text)
			if !ok {
				continue
			}
			anchor = trimSpan(text, anchor)
			if anchor.start >= anchor.end {
				continue
			}
			if overlapsAny(claimed, anchor) {
				continue
			}
			surface := text[anchor.start:anchor.end]
			reps = append(reps, replacement{span: anchor, markup: markupFor(title, surface)})
			claimed = append(claimed, anchor)
			accepted++
		}
	}
	return applyReplacements(text, reps), len(reps)
}

// exactPass wraps case-insensitive occurrences of note titles that are not
// already inside link markup. Longer titles are matched first, so a more
// specific title wins over a shorter substring of it.
func (l *Linker) exactPass(ctx context.Context, text string) (string, int) {
	entries, err := l.titles.Entries(ctx)
	if err != nil {
		l.logger.Printf("exact-title linking skipped: %v", err)
		return text, 0
	}
	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		// short titles are too error-prone to auto-link
		if len(e.Title) < 3 {
			continue
		}
		titles = append(titles, e.Title)
	}
	sort.SliceStable(titles, func(i, j int) bool { return len(titles[i]) > len(titles[j]) })

	count := 0
	for _, title := range titles {
		linked := linkSpans(text)
		// replace right to left so earlier offsets stay valid
		for _, occ := range wordOccurrences(text, title) {
			if overlapsAny(linked, occ) {
				continue
			}
			surface := text[occ.start:occ.end]
			text = text[:occ.start] + markupFor(title, surface) + text[occ.end:]
			count++
		}
	}
	return text, count
}

// markupFor preserves the original surface text for the reader via an alias
// when its case differs from the canonical title.
func markupFor(title, surface string) string {
	if surface == title {
		return "[[" + title + "]]"
	}
	return "[[" + title + "|" + surface + "]]"
}

// anchorIn locates the span inside the sentence that a candidate should
// wrap: the candidate title if it appears verbatim, otherwise the longest
// shared keyword, otherwise the whole sentence.
func anchorIn(text string, sent span, title, content string) (span, bool) {
	sentText := text[sent.start:sent.end]
	if occ := firstWordOccurrence(sentText, title); occ.end > occ.start {
		return span{sent.start + occ.start, sent.start + occ.end}, true
	}
	var keywords []string
	for _, tok := range tokenize(title) {
		if len(tok) >= 3 {
			keywords = append(keywords, tok)
		}
	}
	for _, tok := range tokenize(content) {
		if len(tok) >= 5 {
			keywords = append(keywords, tok)
		}
	}
	sort.SliceStable(keywords, func(i, j int) bool { return len(keywords[i]) > len(keywords[j]) })
	for _, kw := range keywords {
		if occ := firstWordOccurrence(sentText, kw); occ.end > occ.start {
			return span{sent.start + occ.start, sent.start + occ.end}, true
		}
	}
	return sent, true
}

// applyReplacements rewrites highest offset first, so inserting markup at
// one position never shifts a not-yet-applied earlier replacement.
func applyReplacements(text string, reps []replacement) string {
	sort.Slice(reps, func(i, j int) bool { return reps[i].start > reps[j].start })
	for _, r := range reps {
		text = text[:r.start] + r.markup + text[r.end:]
	}
	return text
}

func sentenceSpans(text string) []span {
	var out []span
	for _, loc := range sentenceRe.FindAllStringIndex(text, -1) {
		s := trimSpan(text, span{loc[0], loc[1]})
		if s.start < s.end {
			out = append(out, s)
		}
	}
	return out
}

func linkSpans(text string) []span {
	var out []span
	for _, loc := range linkRe.FindAllStringIndex(text, -1) {
		out = append(out, span{loc[0], loc[1]})
	}
	return out
}

func overlapsAny(spans []span, s span) bool {
	for _, o := range spans {
		if s.start < o.end && o.start < s.end {
			return true
		}
	}
	return false
}

func trimSpan(text string, s span) span {
	for s.start < s.end && isSpace(text[s.start]) {
		s.start++
	}
	for s.end > s.start && isSpace(text[s.end-1]) {
		s.end--
	}
	return s
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b >= 0x80
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r >= 0x80)
	})
}

// foldPrefixLen reports the byte length of the prefix of hay[from:] whose
// runes case-fold equal to needle, or -1 when it does not match.
func foldPrefixLen(hay string, from int, needle string) int {
	i := from
	for _, nr := range needle {
		hr, size := utf8.DecodeRuneInString(hay[i:])
		if size == 0 {
			return -1
		}
		if hr != nr && unicode.ToLower(hr) != unicode.ToLower(nr) {
			return -1
		}
		i += size
	}
	return i - from
}

// wordOccurrences finds every case-insensitive occurrence of needle in hay
// that sits on word boundaries, ordered right to left. Spans are byte
// offsets into hay itself: matching folds rune by rune rather than indexing
// a lowered copy, whose byte layout can differ from hay's (lowercasing
// U+212A or U+0130 changes the rune's encoded length).
func wordOccurrences(hay, needle string) []span {
	if needle == "" {
		return nil
	}
	var out []span
	lastEnd := 0
	for pos := 0; pos < len(hay); {
		n := foldPrefixLen(hay, pos, needle)
		if n > 0 && pos >= lastEnd && boundaryAt(hay, pos, pos+n) {
			out = append(out, span{pos, pos + n})
			lastEnd = pos + n
		}
		_, size := utf8.DecodeRuneInString(hay[pos:])
		pos += size
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

func firstWordOccurrence(hay, needle string) span {
	if needle == "" {
		return span{}
	}
	for pos := 0; pos < len(hay); {
		if n := foldPrefixLen(hay, pos, needle); n > 0 && boundaryAt(hay, pos, pos+n) {
			return span{pos, pos + n}
		}
		_, size := utf8.DecodeRuneInString(hay[pos:])
		pos += size
	}
	return span{}
}

func boundaryAt(text string, start, end int) bool {
	if start > 0 && isWordByte(text[start-1]) && isWordByte(text[start]) {
		return false
	}
	if end < len(text) && isWordByte(text[end-1]) && isWordByte(text[end]) {
		return false
	}
	return true
}
