package analysis

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"

	banalysis "github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

// TokenizerType is the bleve registry type of the segmentation tokenizer.
// Its config takes a "mode" key: "exact", "all" or "search".
const TokenizerType = "gse_cjk"

func init() {
	_ = registry.RegisterTokenizer(TokenizerType, tokenizerConstructor)
}

// Mode selects how text is segmented.
type Mode int

const (
	// ModeExact is the single most likely segmentation.
	ModeExact Mode = iota
	// ModeAll emits every dictionary word found, so tokens may overlap.
	ModeAll
	// ModeSearch emits the exact segmentation plus the dictionary
	// sub-words of each long word, sub-words first.
	ModeSearch
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeSearch:
		return "search"
	default:
		return "exact"
	}
}

// ParseMode parses a config mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "exact", "":
		return ModeExact, nil
	case "all":
		return ModeAll, nil
	case "search":
		return ModeSearch, nil
	default:
		return ModeExact, fmt.Errorf("unknown segmentation mode %q", s)
	}
}

// Token is one word of segmented text. Byte offsets index the source
// string; char offsets count runes. Position is the 1-based ordinal of
// the word in its stream. A token starting inside the span of an earlier
// token shares its position, so overlapping sub-words of one word do not
// push later words further apart.
type Token struct {
	Text      string
	CharStart int
	CharEnd   int
	ByteFrom  int
	ByteTo    int
	Position  int
}

// Tokenizer adapts a Segmenter to a token stream. It holds no per-call
// state and is safe for concurrent use.
type Tokenizer struct {
	seg  Segmenter
	mode Mode
}

// NewTokenizer creates a tokenizer segmenting in mode.
func NewTokenizer(seg Segmenter, mode Mode) *Tokenizer {
	return &Tokenizer{seg: seg, mode: mode}
}

// Mode returns the segmentation mode.
func (t *Tokenizer) Mode() Mode {
	return t.mode
}

// Tokens segments text and yields its tokens in segmentation order.
// Whitespace-only words are not yielded. Each range over the sequence
// segments the text again.
func (t *Tokenizer) Tokens(text string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		var (
			chars   = runeCounter{text: text}
			pos     int
			spanEnd int
		)
		emit := func(word string, start int) bool {
			if strings.TrimSpace(word) == "" {
				return true
			}
			charStart := chars.at(start)
			charEnd := charStart + utf8.RuneCountInString(word)
			if pos == 0 || charStart >= spanEnd {
				pos++
			}
			spanEnd = max(spanEnd, charEnd)
			return yield(Token{
				Text:      word,
				CharStart: charStart,
				CharEnd:   charEnd,
				ByteFrom:  start,
				ByteTo:    start + len(word),
				Position:  pos,
			})
		}

		switch t.mode {
		case ModeAll:
			for run := range hanRuns(text) {
				for w, start := range t.allCuts(run) {
					if !emit(w, run.start+start) {
						return
					}
				}
			}

		case ModeSearch:
			for w, start := range t.exact(text) {
				sub := newLocator(w)
				for _, s := range t.seg.CutSearch(w, false) {
					i := sub.find(s)
					if i < 0 {
						continue
					}
					if !emit(w[i:i+len(s)], start+i) {
						return
					}
				}
			}

		default:
			for w, start := range t.exact(text) {
				if !emit(w, start) {
					return
				}
			}
		}
	}
}

// exact yields the exact segmentation with byte offsets. Words follow
// each other, so each is searched from the end of the previous one.
func (t *Tokenizer) exact(text string) iter.Seq2[string, int] {
	return func(yield func(string, int) bool) {
		loc := newLocator(text)
		loc.sequential = true
		for _, w := range t.seg.Cut(text, false) {
			start := loc.find(w)
			if start < 0 {
				continue
			}
			if !yield(text[start:start+len(w)], start) {
				return
			}
		}
	}
}

// allCuts yields every dictionary word of a Han run, or the exact words
// of any other run. All-cuts segmentation of Latin text yields single
// letters, so only Han runs are cut that way.
func (t *Tokenizer) allCuts(run textRun) iter.Seq2[string, int] {
	if !run.han {
		return t.exact(run.text)
	}
	return func(yield func(string, int) bool) {
		loc := newLocator(run.text)
		for _, w := range t.seg.CutAll(run.text) {
			start := loc.find(w)
			if start < 0 {
				continue
			}
			if !yield(run.text[start:start+len(w)], start) {
				return
			}
		}
	}
}

// textRun is a maximal stretch of text that is either all Han or free of
// Han characters. start is its byte offset in the source.
type textRun struct {
	text  string
	start int
	han   bool
}

func hanRuns(text string) iter.Seq[textRun] {
	return func(yield func(textRun) bool) {
		start := 0
		var han bool
		for i, r := range text {
			h := unicode.Is(unicode.Han, r)
			if i > 0 && h != han {
				if !yield(textRun{text: text[start:i], start: start, han: han}) {
					return
				}
				start = i
			}
			han = h
		}
		if start < len(text) {
			yield(textRun{text: text[start:], start: start, han: han})
		}
	}
}

// Tokenize implements analysis.Tokenizer.
func (t *Tokenizer) Tokenize(input []byte) banalysis.TokenStream {
	text := string(input)
	stream := make(banalysis.TokenStream, 0, len(text)/3+1)
	for tok := range t.Tokens(text) {
		typ := banalysis.AlphaNumeric
		if containsHan(tok.Text) {
			typ = banalysis.Ideographic
		}
		stream = append(stream, &banalysis.Token{
			Term:     []byte(tok.Text),
			Start:    tok.ByteFrom,
			End:      tok.ByteTo,
			Position: tok.Position,
			Type:     typ,
		})
	}
	return stream
}

func tokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (banalysis.Tokenizer, error) {
	name, _ := config["mode"].(string)
	mode, err := ParseMode(name)
	if err != nil {
		return nil, err
	}
	seg, err := DefaultSegmenter()
	if err != nil {
		return nil, err
	}
	return NewTokenizer(seg, mode), nil
}

// locator finds where segmenter output words sit in the source text.
// Words arrive with non-decreasing start offsets; a start already taken
// by an equal-length word is skipped so repeated words resolve to later
// occurrences. Segmenters may fold ASCII case, so a word that is not
// found verbatim is matched case-insensitively; token text is always
// sliced from the source.
type locator struct {
	text       string
	folded     string
	from       int
	maxEnd     int
	sequential bool
	used       map[[2]int]struct{}
}

func newLocator(text string) *locator {
	return &locator{
		text:   text,
		folded: foldASCII(text),
		used:   make(map[[2]int]struct{}),
	}
}

func (l *locator) find(w string) int {
	if w == "" {
		return -1
	}
	fw := foldASCII(w)

	start := l.forward(l.text, w)
	if start < 0 {
		start = l.forward(l.folded, fw)
	}
	if start < 0 && l.maxEnd > 0 {
		// a covering word emitted after its parts
		start = strings.LastIndex(l.text[:l.maxEnd], w)
		if start < 0 {
			start = strings.LastIndex(l.folded[:l.maxEnd], fw)
		}
	}
	if start < 0 {
		return -1
	}

	end := start + len(w)
	l.used[[2]int{start, len(w)}] = struct{}{}
	switch {
	case l.sequential:
		l.from = end
	case start > l.from:
		l.from = start
	}
	if end > l.maxEnd {
		l.maxEnd = end
	}
	return start
}

func (l *locator) forward(haystack, w string) int {
	for from := l.from; from < len(haystack); {
		i := strings.Index(haystack[from:], w)
		if i < 0 {
			return -1
		}
		if _, dup := l.used[[2]int{from + i, len(w)}]; !dup {
			return from + i
		}
		from += i + 1
	}
	return -1
}

func foldASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if b[j] >= 'A' && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}

// runeCounter converts byte offsets to rune offsets. Offsets usually
// grow, so counting resumes from the previous position.
type runeCounter struct {
	text  string
	bytes int
	chars int
}

func (c *runeCounter) at(b int) int {
	if b < c.bytes {
		c.bytes, c.chars = 0, 0
	}
	c.chars += utf8.RuneCountInString(c.text[c.bytes:b])
	c.bytes = b
	return c.chars
}
