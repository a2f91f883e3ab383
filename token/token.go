package token

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ScriptKind classifies a word's writing system, which picks the
// segmentation rules used for it.
type ScriptKind int

const (
	Latin ScriptKind = iota
	CJK
	Punctuation
)

func (k ScriptKind) String() string {
	switch k {
	case CJK:
		return "cjk"
	case Punctuation:
		return "punct"
	default:
		return "latin"
	}
}

// Word is one selectable token. Start/End are byte offsets into the
// source text so the caller can project highlights back onto it.
type Word struct {
	Text  string
	Start int
	End   int
	Kind  ScriptKind
}

// Auto-generated captions tend to be short fragments without sentence
// punctuation; authored ones are capitalized full sentences.
const (
	autoMaxWords = 10
	autoMaxChars = 100
)

// Word pattern for the auto-generated path: letter/digit runs with
// internal apostrophes kept ("don't", "it's").
var autoWordRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:'[\p{L}\p{N}]+)*`)

// Tokenize segments caption text into addressable words.
//
// Three paths, in order of applicability: per-character segmentation when
// the text contains CJK code points, a word-boundary pattern for text that
// looks auto-generated, and whitespace splitting with punctuation
// stripping for ordinary authored captions.
func Tokenize(text string) []Word {
	if text == "" {
		return nil
	}
	if containsCJK(text) {
		return tokenizeCJK(text)
	}
	if looksAutoGenerated(text) {
		if words := tokenizeAuto(text); len(words) > 0 {
			return words
		}
		return splitFields(text, false)
	}
	return splitFields(text, true)
}

func containsCJK(text string) bool {
	for _, r := range text {
		if isCJK(r) {
			return true
		}
	}
	return false
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// Segment boundaries in the CJK path: whitespace plus sentence
// punctuation, ASCII and fullwidth forms.
func isBoundary(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '.', ',', '!', '?', ';', ':', '\'', '"',
		'。', '，', '！', '？', '；', '：', '、',
		'“', '”', '‘', '’', '…', '「', '」', '『', '』':
		return true
	}
	return false
}

// tokenizeCJK emits each CJK character as its own word; runs of other
// non-boundary characters between them are grouped into a single word.
func tokenizeCJK(text string) []Word {
	var words []Word
	runStart := -1

	flush := func(end int) {
		if runStart < 0 {
			return
		}
		words = append(words, Word{
			Text:  text[runStart:end],
			Start: runStart,
			End:   end,
			Kind:  Latin,
		})
		runStart = -1
	}

	for i, r := range text {
		size := utf8.RuneLen(r)
		switch {
		case isCJK(r):
			flush(i)
			words = append(words, Word{
				Text:  text[i : i+size],
				Start: i,
				End:   i + size,
				Kind:  CJK,
			})
		case isBoundary(r):
			flush(i)
		default:
			if runStart < 0 {
				runStart = i
			}
		}
	}
	flush(len(text))
	return words
}

func looksAutoGenerated(text string) bool {
	if len(strings.Fields(text)) > autoMaxWords || len(text) > autoMaxChars {
		return false
	}
	// Capitalized text ending in sentence punctuation reads as authored.
	return !(startsCapitalized(text) && hasTerminalPunct(text))
}

func startsCapitalized(text string) bool {
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		return unicode.IsUpper(r)
	}
	return false
}

func hasTerminalPunct(text string) bool {
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	r, size := utf8.DecodeLastRuneInString(trimmed)
	if size == 0 {
		return false
	}
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func tokenizeAuto(text string) []Word {
	var words []Word
	for _, m := range autoWordRe.FindAllStringIndex(text, -1) {
		words = append(words, Word{
			Text:  text[m[0]:m[1]],
			Start: m[0],
			End:   m[1],
			Kind:  Latin,
		})
	}
	return words
}

// splitFields splits on whitespace; with strip set, leading and trailing
// punctuation is removed from each token and empty results are dropped.
func splitFields(text string, strip bool) []Word {
	var words []Word
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				if w, ok := makeWord(text, start, i, strip); ok {
					words = append(words, w)
				}
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		if w, ok := makeWord(text, start, len(text), strip); ok {
			words = append(words, w)
		}
	}
	return words
}

func makeWord(text string, start, end int, strip bool) (Word, bool) {
	if strip {
		for start < end {
			r, size := utf8.DecodeRuneInString(text[start:end])
			if !unicode.IsPunct(r) {
				break
			}
			start += size
		}
		for start < end {
			r, size := utf8.DecodeLastRuneInString(text[start:end])
			if !unicode.IsPunct(r) {
				break
			}
			end -= size
		}
		if start >= end {
			return Word{}, false
		}
	}
	return Word{Text: text[start:end], Start: start, End: end, Kind: Latin}, true
}

// PreserveIndex decides where the selection lands after re-tokenization.
// The index survives when the new word list shares a short prefix with
// the old one and the index is still in range; otherwise the lists are
// treated as unrelated and the selection resets to the first word.
func PreserveIndex(oldWords, newWords []Word, idx int) int {
	if len(newWords) == 0 {
		return 0
	}
	n := 3
	if len(oldWords) < n {
		n = len(oldWords)
	}
	if len(newWords) < n {
		n = len(newWords)
	}
	if n == 0 {
		return 0
	}
	for i := 0; i < n; i++ {
		if oldWords[i].Text != newWords[i].Text {
			return 0
		}
	}
	if idx >= 0 && idx < len(newWords) {
		return idx
	}
	return 0
}
