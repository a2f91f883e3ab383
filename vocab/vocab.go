package vocab

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store is the learned-word list: words the user has already looked up
// and marked as known. Backed by a YAML file, words normalized to lower
// case. Safe for use from any goroutine; the engine never calls into it,
// only the UI does.
type Store struct {
	path  string
	mu    sync.Mutex
	words map[string]struct{}
}

type fileFormat struct {
	Words []string `yaml:"words"`
}

// Open loads the store, creating an empty one when the file does not
// exist yet.
func Open(path string) (*Store, error) {
	s := &Store{path: path, words: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading vocabulary file: %w", err)
	}

	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("parsing vocabulary file %s: %w", path, err)
	}
	for _, w := range ff.Words {
		if n := normalize(w); n != "" {
			s.words[n] = struct{}{}
		}
	}
	return s, nil
}

func normalize(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}

func (s *Store) Contains(word string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.words[normalize(word)]
	return ok
}

func (s *Store) Add(word string) error {
	n := normalize(word)
	if n == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[n]; ok {
		return nil
	}
	s.words[n] = struct{}{}
	return s.save()
}

func (s *Store) Remove(word string) error {
	n := normalize(word)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[n]; !ok {
		return nil
	}
	delete(s.words, n)
	return s.save()
}

func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.words)
}

// save writes the file atomically (tmp + rename) so a crash mid-write
// never truncates the list. Caller holds the lock.
func (s *Store) save() error {
	words := make([]string, 0, len(s.words))
	for w := range s.words {
		words = append(words, w)
	}
	sort.Strings(words)

	data, err := yaml.Marshal(fileFormat{Words: words})
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
