package dict

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const youdaoWorldJSON = `{
	"ec": {"word": [{"usphone": "wɜːrld", "trs": [
		{"tr": [{"l": {"i": ["n. 世界；地球"]}}]},
		{"tr": [{"l": {"i": ["n. 领域"]}}]}
	]}]},
	"web_trans": {"web-translation": [
		{"key": "world", "trans": [{"value": "世界杯"}]}
	]},
	"blng_sents_part": {"sentence-pair": [
		{"sentence": "Hello world.", "sentence-translation": "你好，世界。"}
	]}
}`

const freeDictWorldJSON = `[{
	"word": "world",
	"phonetic": "/wɜːld/",
	"meanings": [{
		"partOfSpeech": "noun",
		"definitions": [
			{"definition": "The Earth.", "example": "People from all over the world"},
			{"definition": "A planet."}
		]
	}]
}]`

func youdaoServer(t *testing.T, body string, status int) *Youdao {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/jsonapi") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewYoudao(srv.URL, "zh", NewTracedClient(2*time.Second))
}

func freeDictServer(t *testing.T, body string, status int) *FreeDict {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewFreeDict(srv.URL, NewTracedClient(2*time.Second))
}

func TestYoudaoParsesSections(t *testing.T) {
	y := youdaoServer(t, youdaoWorldJSON, http.StatusOK)
	res, err := y.Define(context.Background(), "world")
	if err != nil {
		t.Fatal(err)
	}
	if res.Phonetic != "[wɜːrld]" {
		t.Errorf("Phonetic = %q", res.Phonetic)
	}
	if len(res.Sections) != 3 {
		t.Fatalf("got %d sections, want 3: %+v", len(res.Sections), res.Sections)
	}
	if res.Sections[0].Heading != "Basic meanings" || len(res.Sections[0].Entries) != 2 {
		t.Errorf("basic section = %+v", res.Sections[0])
	}
	if res.Sections[1].Heading != "Web meanings" {
		t.Errorf("second section = %q", res.Sections[1].Heading)
	}
	if res.Sections[2].Heading != "Example sentences" {
		t.Errorf("third section = %q", res.Sections[2].Heading)
	}
	if res.Note != "" {
		t.Errorf("unexpected language note %q for Chinese response", res.Note)
	}
}

func TestYoudaoWrongLanguageAnnotated(t *testing.T) {
	body := `{"ec": {"word": [{"trs": [{"tr": [{"l": {"i": ["n. the earth"]}}]}]}]}}`
	y := youdaoServer(t, body, http.StatusOK)
	res, err := y.Define(context.Background(), "world")
	if err != nil {
		t.Fatal(err)
	}
	if res.Note == "" {
		t.Error("expected wrong-language note on English-only response")
	}
	if res.Empty() {
		t.Error("annotated response must keep its content")
	}
}

func TestYoudaoHTTPError(t *testing.T) {
	y := youdaoServer(t, "server busy", http.StatusBadGateway)
	if _, err := y.Define(context.Background(), "world"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestYoudaoParseError(t *testing.T) {
	y := youdaoServer(t, "<html>not json</html>", http.StatusOK)
	_, err := y.Define(context.Background(), "world")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "not json") {
		t.Errorf("error should quote short raw payload, got: %v", err)
	}
}

func TestFreeDictParses(t *testing.T) {
	f := freeDictServer(t, freeDictWorldJSON, http.StatusOK)
	res, err := f.Define(context.Background(), "world")
	if err != nil {
		t.Fatal(err)
	}
	if res.Phonetic != "/wɜːld/" {
		t.Errorf("Phonetic = %q", res.Phonetic)
	}
	if len(res.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(res.Sections))
	}
	if got := res.Sections[0].Entries[0]; got != "noun. The Earth." {
		t.Errorf("first entry = %q", got)
	}
}

func TestFreeDictNotFoundIsEmpty(t *testing.T) {
	f := freeDictServer(t, `{"title":"No Definitions Found"}`, http.StatusNotFound)
	res, err := f.Define(context.Background(), "zzzz")
	if err != nil {
		t.Fatalf("404 should not be an error: %v", err)
	}
	if !res.Empty() {
		t.Error("404 result should be empty")
	}
}

type stubProvider struct {
	name string
	res  *Result
	err  error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Define(context.Context, string) (*Result, error) {
	return s.res, s.err
}

func TestServicePrefersPrimary(t *testing.T) {
	primary := &stubProvider{name: "p", res: &Result{
		Word:     "fox",
		Sections: []Section{{Heading: "Basic meanings", Entries: []string{"a fox"}}},
	}}
	backup := &stubProvider{name: "b", err: errors.New("should not be called")}
	res := NewService(primary, backup).Lookup(context.Background(), "fox")
	if res.Unavailable || res.Sections[0].Entries[0] != "a fox" {
		t.Errorf("got %+v", res)
	}
}

func TestServiceFallsBackOnError(t *testing.T) {
	primary := &stubProvider{name: "p", err: errors.New("boom")}
	backup := &stubProvider{name: "b", res: &Result{
		Word:     "fox",
		Sections: []Section{{Heading: "Basic meanings", Entries: []string{"backup fox"}}},
	}}
	res := NewService(primary, backup).Lookup(context.Background(), "fox")
	if res.Unavailable {
		t.Fatalf("expected backup result, got %+v", res)
	}
	if res.Sections[0].Entries[0] != "backup fox" {
		t.Errorf("got %+v", res)
	}
}

func TestServiceFallsBackOnEmptyPrimary(t *testing.T) {
	primary := &stubProvider{name: "p", res: &Result{Word: "fox"}}
	backup := &stubProvider{name: "b", res: &Result{
		Word:     "fox",
		Sections: []Section{{Heading: "Basic meanings", Entries: []string{"backup fox"}}},
	}}
	res := NewService(primary, backup).Lookup(context.Background(), "fox")
	if res.Empty() {
		t.Fatal("expected backup content")
	}
}

func TestServiceBothFailShapesError(t *testing.T) {
	primary := &stubProvider{name: "p", err: errors.New("primary down")}
	backup := &stubProvider{name: "b", err: errors.New("backup down")}
	res := NewService(primary, backup).Lookup(context.Background(), "fox")
	if !res.Unavailable {
		t.Fatal("expected unavailable result")
	}
	if res.Word != "fox" || res.Note != "definition unavailable" {
		t.Errorf("got %+v", res)
	}
	joined := strings.Join(res.Sections[0].Entries, "\n")
	if !strings.Contains(joined, "primary down") || !strings.Contains(joined, "backup down") {
		t.Errorf("details missing causes: %q", joined)
	}
}
