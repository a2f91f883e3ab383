package dict

import (
	"context"
	"time"

	"wordtap/log"
)

// Section is one heading of a definition ("Basic meanings", "Web
// meanings", "Example sentences") with its entries in display order.
type Section struct {
	Heading string
	Entries []string
}

// Result is the formatted outcome of one lookup. Failures are shaped as
// Results too, so nothing downstream has to handle provider errors.
type Result struct {
	Word        string
	Phonetic    string // e.g. "[wɜːrld]", empty when unknown
	Note        string // diagnostic header, e.g. wrong-language warning
	Sections    []Section
	Provider    string
	Unavailable bool
	Metrics     *NetworkMetrics
}

// Empty reports whether the result carries no usable definition content.
func (r *Result) Empty() bool {
	if r == nil {
		return true
	}
	for _, s := range r.Sections {
		if len(s.Entries) > 0 {
			return false
		}
	}
	return true
}

// Provider is one dictionary backend.
type Provider interface {
	Name() string
	Define(ctx context.Context, word string) (*Result, error)
}

const lookupTimeout = 8 * time.Second

// ProviderName labels the production provider chain in the session log.
const ProviderName = "youdao+dictionaryapi"

// Service resolves words against a primary provider with a single
// backup-provider fallback. Lookup never returns an error: transport and
// parse failures resolve to an unavailable-shaped Result.
type Service struct {
	primary Provider
	backup  Provider
	timeout time.Duration
}

// New builds the production service: Youdao primary, Free Dictionary API
// backup, sharing one traced client.
func New(targetLang string) *Service {
	client := NewTracedClient(lookupTimeout)
	return &Service{
		primary: NewYoudao(youdaoBaseURL, targetLang, client),
		backup:  NewFreeDict(freeDictBaseURL, client),
		timeout: lookupTimeout,
	}
}

// NewService wires explicit providers; tests point these at local
// servers.
func NewService(primary, backup Provider) *Service {
	return &Service{primary: primary, backup: backup, timeout: lookupTimeout}
}

func (s *Service) Lookup(ctx context.Context, word string) *Result {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, perr := s.primary.Define(ctx, word)
	if perr == nil && !res.Empty() {
		logLookup(s.primary.Name(), word, "ok", res)
		return res
	}
	if perr != nil {
		log.Warnf("%s lookup %q: %v", s.primary.Name(), word, perr)
		logLookup(s.primary.Name(), word, "error", res)
	} else {
		logLookup(s.primary.Name(), word, "empty", res)
	}

	bres, berr := s.backup.Define(ctx, word)
	if berr == nil && !bres.Empty() {
		logLookup(s.backup.Name(), word, "fallback", bres)
		return bres
	}
	if berr != nil {
		log.Warnf("%s lookup %q: %v", s.backup.Name(), word, berr)
	}

	return unavailable(word, perr, berr)
}

func unavailable(word string, perr, berr error) *Result {
	var entries []string
	if perr != nil {
		entries = append(entries, "primary: "+perr.Error())
	}
	if berr != nil {
		entries = append(entries, "backup: "+berr.Error())
	}
	if len(entries) == 0 {
		entries = []string{"no definitions found"}
	}
	return &Result{
		Word:        word,
		Unavailable: true,
		Note:        "definition unavailable",
		Sections:    []Section{{Heading: "Details", Entries: entries}},
	}
}

func logLookup(provider, word, status string, res *Result) {
	m := log.LookupMetrics{Provider: provider, Word: word, Status: status}
	if res != nil && res.Metrics != nil {
		m.DNSTimeMs = float64(res.Metrics.DNS.Milliseconds())
		m.TLSTimeMs = float64(res.Metrics.TLS.Milliseconds())
		m.TTFBMs = float64(res.Metrics.TTFB.Milliseconds())
		m.TotalTimeMs = float64(res.Metrics.Total.Milliseconds())
		m.ConnReused = res.Metrics.ConnReused
	}
	log.Lookup(m)
}
