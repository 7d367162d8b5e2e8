package stoplist

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/kljensen/snowball/english"
	"gopkg.in/yaml.v3"
)

//go:embed english.yaml
var englishRaw []byte

// Checker reports whether a token is a stopword
type Checker interface {
	IsStop(token string) bool
}

// Set is an exact-match stopword set. Comparison is case-sensitive; callers
// that want case-insensitive matching store and query folded forms.
type Set struct {
	stops map[string]struct{}
}

// New creates a stopword set from the given words, case as provided
func New(words []string) *Set {
	s := &Set{stops: make(map[string]struct{}, len(words))}
	for _, w := range words {
		s.Add(w)
	}
	return s
}

// IsStop checks if a token is a stopword
func (s *Set) IsStop(token string) bool {
	_, ok := s.stops[token]
	return ok
}

// Add adds a token to the set
func (s *Set) Add(token string) {
	s.stops[token] = struct{}{}
}

// Len returns the number of stopwords
func (s *Set) Len() int {
	return len(s.stops)
}

// File is the on-disk stoplist format
type File struct {
	Terms []string `yaml:"terms"`
}

// Parse decodes a YAML stoplist
func Parse(data []byte) ([]string, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse stoplist: %w", err)
	}
	return f.Terms, nil
}

// Load reads a YAML stoplist file into a new Set
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	terms, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return New(terms), nil
}

var (
	englishOnce  sync.Once
	englishTerms []string
)

// EnglishTerms returns a copy of the built-in English stopword list.
// The embedded list is parsed once and never modified afterwards.
func EnglishTerms() []string {
	englishOnce.Do(func() {
		terms, err := Parse(englishRaw)
		if err != nil {
			panic(fmt.Sprintf("stoplist: embedded english list: %v", err))
		}
		englishTerms = terms
	})
	return append([]string(nil), englishTerms...)
}

// English returns a fresh Set holding the built-in English stopwords
func English() *Set {
	return New(EnglishTerms())
}

// Snowball checks tokens against the Snowball English stopword list
type Snowball struct{}

// IsStop reports whether the token is a Snowball English stopword
func (Snowball) IsStop(token string) bool {
	return english.IsStopWord(token)
}

// None never reports a stopword
type None struct{}

// IsStop always returns false
func (None) IsStop(string) bool { return false }
