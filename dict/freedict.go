package dict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const freeDictBaseURL = "https://api.dictionaryapi.dev"

// FreeDict is the backup provider (dictionaryapi.dev). English-only
// monolingual definitions; used when the primary fails or comes back
// empty.
type FreeDict struct {
	baseURL string
	client  *TracedClient
}

func NewFreeDict(baseURL string, client *TracedClient) *FreeDict {
	return &FreeDict{baseURL: baseURL, client: client}
}

func (f *FreeDict) Name() string { return "freedict" }

type freeDictEntry struct {
	Word      string `json:"word"`
	Phonetic  string `json:"phonetic"`
	Phonetics []struct {
		Text string `json:"text"`
	} `json:"phonetics"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
			Example    string `json:"example"`
		} `json:"definitions"`
	} `json:"meanings"`
}

func (f *FreeDict) Define(ctx context.Context, word string) (*Result, error) {
	u := f.baseURL + "/api/v2/entries/en/" + url.PathEscape(word)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		// Word not in the dictionary; an empty result, not a failure.
		return &Result{Word: word, Provider: f.Name(), Metrics: resp.Metrics}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("freedict API error %d: %s", resp.StatusCode, snippet(resp.Body))
	}

	var entries []freeDictEntry
	if err := json.Unmarshal(resp.Body, &entries); err != nil {
		return nil, fmt.Errorf("freedict response parse error: %v (%s)", err, snippet(resp.Body))
	}

	res := &Result{Word: word, Provider: f.Name(), Metrics: resp.Metrics}

	var defs []string
	var examples []string
	for _, e := range entries {
		if res.Phonetic == "" {
			if e.Phonetic != "" {
				res.Phonetic = e.Phonetic
			} else {
				for _, p := range e.Phonetics {
					if p.Text != "" {
						res.Phonetic = p.Text
						break
					}
				}
			}
		}
		for _, m := range e.Meanings {
			for _, d := range m.Definitions {
				if d.Definition != "" {
					defs = append(defs, m.PartOfSpeech+". "+d.Definition)
				}
				if d.Example != "" && len(examples) < maxExampleSentences {
					examples = append(examples, d.Example)
				}
			}
		}
	}
	if len(defs) > 0 {
		res.Sections = append(res.Sections, Section{Heading: "Basic meanings", Entries: defs})
	}
	if len(examples) > 0 {
		res.Sections = append(res.Sections, Section{Heading: "Example sentences", Entries: examples})
	}

	return res, nil
}
