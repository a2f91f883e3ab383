package dict

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"unicode"
)

const youdaoBaseURL = "https://dict.youdao.com"

// Youdao is the primary provider. Its jsonapi endpoint returns dictionary
// entries, web-scraped translations, and bilingual example sentences in
// one semi-structured payload.
type Youdao struct {
	baseURL    string
	targetLang string
	client     *TracedClient
}

func NewYoudao(baseURL, targetLang string, client *TracedClient) *Youdao {
	return &Youdao{baseURL: baseURL, targetLang: targetLang, client: client}
}

func (y *Youdao) Name() string { return "youdao" }

type youdaoResponse struct {
	EC struct {
		Word []struct {
			USPhone string `json:"usphone"`
			UKPhone string `json:"ukphone"`
			Trs     []struct {
				Tr []struct {
					L struct {
						I []any `json:"i"`
					} `json:"l"`
				} `json:"tr"`
			} `json:"trs"`
		} `json:"word"`
	} `json:"ec"`
	WebTrans struct {
		WebTranslation []struct {
			Key   string `json:"key"`
			Trans []struct {
				Value string `json:"value"`
			} `json:"trans"`
		} `json:"web-translation"`
	} `json:"web_trans"`
	BlngSents struct {
		SentencePair []struct {
			Sentence            string `json:"sentence"`
			SentenceTranslation string `json:"sentence-translation"`
		} `json:"sentence-pair"`
	} `json:"blng_sents_part"`
}

const maxExampleSentences = 3

func (y *Youdao) Define(ctx context.Context, word string) (*Result, error) {
	u := y.baseURL + "/jsonapi?q=" + url.QueryEscape(word) + "&le=en"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youdao API error %d: %s", resp.StatusCode, snippet(resp.Body))
	}

	var yr youdaoResponse
	if err := json.Unmarshal(resp.Body, &yr); err != nil {
		return nil, fmt.Errorf("youdao response parse error: %v (%s)", err, snippet(resp.Body))
	}

	res := &Result{Word: word, Provider: y.Name(), Metrics: resp.Metrics}

	var basic []string
	for _, w := range yr.EC.Word {
		if res.Phonetic == "" {
			if w.USPhone != "" {
				res.Phonetic = "[" + w.USPhone + "]"
			} else if w.UKPhone != "" {
				res.Phonetic = "[" + w.UKPhone + "]"
			}
		}
		for _, trs := range w.Trs {
			for _, tr := range trs.Tr {
				for _, item := range tr.L.I {
					if s, ok := item.(string); ok && s != "" {
						basic = append(basic, s)
					}
				}
			}
		}
	}
	if len(basic) > 0 {
		res.Sections = append(res.Sections, Section{Heading: "Basic meanings", Entries: basic})
	}

	var web []string
	for _, wt := range yr.WebTrans.WebTranslation {
		for _, tr := range wt.Trans {
			if tr.Value != "" {
				web = append(web, tr.Value)
			}
		}
	}
	if len(web) > 0 {
		res.Sections = append(res.Sections, Section{Heading: "Web meanings", Entries: web})
	}

	var examples []string
	for _, sp := range yr.BlngSents.SentencePair {
		if sp.Sentence == "" {
			continue
		}
		ex := sp.Sentence
		if sp.SentenceTranslation != "" {
			ex += " / " + sp.SentenceTranslation
		}
		examples = append(examples, ex)
		if len(examples) >= maxExampleSentences {
			break
		}
	}
	if len(examples) > 0 {
		res.Sections = append(res.Sections, Section{Heading: "Example sentences", Entries: examples})
	}

	// A response in the wrong display language is annotated, not
	// discarded: a foreign definition still beats none.
	if len(basic) > 0 && !inTargetLanguage(basic, y.targetLang) {
		res.Note = fmt.Sprintf("response not in target language (%s)", y.targetLang)
	}

	return res, nil
}

// inTargetLanguage is a cheap script check over the basic-meaning
// entries. Only Chinese has a reliable signal (Han code points); other
// target languages pass.
func inTargetLanguage(entries []string, lang string) bool {
	if lang != "zh" {
		return true
	}
	for _, e := range entries {
		for _, r := range e {
			if unicode.Is(unicode.Han, r) {
				return true
			}
		}
	}
	return false
}

func snippet(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
