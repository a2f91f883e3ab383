package token

import (
	"strings"
	"testing"
)

func texts(words []Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return out
}

func wantWords(t *testing.T, got []Word, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", texts(got), want)
	}
	for i, w := range want {
		if got[i].Text != w {
			t.Fatalf("word %d = %q, want %q (all: %v)", i, got[i].Text, w, texts(got))
		}
	}
}

func TestTokenizeCJK(t *testing.T) {
	got := Tokenize("我爱Python")
	wantWords(t, got, "我", "爱", "Python")
	if got[0].Kind != CJK || got[1].Kind != CJK {
		t.Error("CJK characters not classified as CJK")
	}
	if got[2].Kind != Latin {
		t.Error("embedded Latin run not classified as Latin")
	}
}

func TestTokenizeCJKPunctuationBoundaries(t *testing.T) {
	got := Tokenize("你好，世界。")
	wantWords(t, got, "你", "好", "世", "界")
}

func TestTokenizeCJKMixedRuns(t *testing.T) {
	// Non-CJK runs between CJK characters group into one word each.
	got := Tokenize("用Go语言写code")
	wantWords(t, got, "用", "Go", "语", "言", "写", "code")
}

func TestTokenizeAutoGenerated(t *testing.T) {
	// Short, no terminal punctuation: auto-generated path.
	wantWords(t, Tokenize("quick brown fox"), "quick", "brown", "fox")
}

func TestTokenizeAutoKeepsApostrophes(t *testing.T) {
	wantWords(t, Tokenize("don't stop believing"), "don't", "stop", "believing")
}

func TestTokenizeAuthored(t *testing.T) {
	got := Tokenize("The quick brown fox jumped over the lazy dog.")
	wantWords(t, got, "The", "quick", "brown", "fox", "jumped", "over", "the", "lazy", "dog")
}

func TestTokenizeAuthoredStripsPunctuation(t *testing.T) {
	got := Tokenize(`Well, she said, that's everything I truly needed to hear today!`)
	for _, w := range got {
		if strings.HasPrefix(w.Text, `"`) || strings.HasSuffix(w.Text, ",") || strings.HasSuffix(w.Text, "!") {
			t.Errorf("token %q kept surrounding punctuation", w.Text)
		}
	}
	if got[0].Text != "Well" {
		t.Errorf("first word = %q, want Well", got[0].Text)
	}
	// Internal apostrophe survives stripping.
	found := false
	for _, w := range got {
		if w.Text == "that's" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected that's in %v", texts(got))
	}
}

func TestTokenizeOffsetsRoundTrip(t *testing.T) {
	for _, text := range []string{
		"quick brown fox",
		"The quick brown fox jumped over the lazy dog.",
		"我爱Python",
		"用Go语言写code",
		"don't stop",
	} {
		t.Run(text, func(t *testing.T) {
			prev := -1
			for _, w := range Tokenize(text) {
				if text[w.Start:w.End] != w.Text {
					t.Errorf("offsets [%d:%d] = %q, want %q", w.Start, w.End, text[w.Start:w.End], w.Text)
				}
				if w.Start < prev {
					t.Errorf("words out of order at %q", w.Text)
				}
				prev = w.Start
			}
		})
	}
}

func TestTokenizeEmptyAndPunctOnly(t *testing.T) {
	if got := Tokenize(""); got != nil {
		t.Errorf("Tokenize(\"\") = %v, want nil", texts(got))
	}
	// Pattern yields nothing; whitespace fallback keeps the raw token.
	wantWords(t, Tokenize("???"), "???")
}

func TestTokenizeLongUnpunctuatedUsesAuthoredPath(t *testing.T) {
	// Over 10 words: not auto-generated despite missing punctuation.
	text := "one two three four five six seven eight nine ten eleven twelve"
	got := Tokenize(text)
	if len(got) != 12 {
		t.Fatalf("got %d words, want 12", len(got))
	}
}

func TestPreserveIndex(t *testing.T) {
	oldWords := Tokenize("the quick brown fox")
	for _, tt := range []struct {
		name string
		new  string
		idx  int
		want int
	}{
		{"same text keeps index", "the quick brown fox", 2, 2},
		{"shared prefix keeps index", "the quick brown foxes run", 3, 3},
		{"unrelated resets", "something else entirely here", 2, 0},
		{"out of range resets", "the quick brown", 3, 0},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreserveIndex(oldWords, Tokenize(tt.new), tt.idx); got != tt.want {
				t.Errorf("PreserveIndex = %d, want %d", got, tt.want)
			}
		})
	}
	if got := PreserveIndex(oldWords, nil, 1); got != 0 {
		t.Errorf("PreserveIndex with empty new list = %d, want 0", got)
	}
}
