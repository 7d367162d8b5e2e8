package lexicon

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
)

//go:embed english.yaml
var englishRaw []byte

// Lemmatizer reduces a word to its dictionary form
type Lemmatizer interface {
	Lemmatize(word string) string
}

// Func adapts a plain function to the Lemmatizer interface
type Func func(string) string

// Lemmatize calls f(word)
func (f Func) Lemmatize(word string) string { return f(word) }

// Identity leaves every word unchanged
type Identity struct{}

// Lemmatize returns word
func (Identity) Lemmatize(word string) string { return word }

// Snowball reduces words with the Snowball English stemmer. Output is
// lowercase stems ("connecting" -> "connect"), not dictionary lemmas.
type Snowball struct{}

// Lemmatize returns the Snowball stem of word
func (Snowball) Lemmatize(word string) string {
	return english.Stem(word, false)
}

// Dictionary is the dictionary-based reducer: a lexicon lookup first, then
// conservative noun-plural suffix rules for words the lexicon does not know.
// Words it cannot reduce are returned unchanged, original case included.
type Dictionary struct {
	lex      *Lexicon
	suffixes bool
}

// NewDictionary wraps a lexicon. With suffixes disabled only lexicon
// entries are reduced.
func NewDictionary(lex *Lexicon, suffixes bool) *Dictionary {
	if lex == nil {
		lex = New()
	}
	return &Dictionary{lex: lex, suffixes: suffixes}
}

// Lemmatize reduces word to its lemma.
//
// Examples:
//   - Lemmatize("things") -> "thing"
//   - Lemmatize("children") -> "child"
//   - Lemmatize("Connecting") -> "Connecting"
func (d *Dictionary) Lemmatize(word string) string {
	if canonical, ok := d.lex.Lookup(word); ok {
		if strings.EqualFold(canonical, word) {
			return word
		}
		return canonical
	}
	if d.suffixes {
		return reducePlural(word)
	}
	return word
}

// Lexicon returns the lexicon backing the reducer
func (d *Dictionary) Lexicon() *Lexicon {
	return d.lex
}

// pluralRules are tried in order; the first matching suffix wins
var pluralRules = []struct {
	suffix  string
	replace string
}{
	{"sses", "ss"},
	{"ies", "y"},
	{"ches", "ch"},
	{"shes", "sh"},
	{"xes", "x"},
	{"s", ""},
}

// keepEndings never lose a trailing "s"; "'s" is a contraction or possessive
var keepEndings = []string{"ss", "us", "is", "as", "'s"}

const minLemmaRunes = 3

func reducePlural(word string) string {
	for _, e := range keepEndings {
		if hasSuffixFold(word, e) {
			return word
		}
	}
	for _, r := range pluralRules {
		if !hasSuffixFold(word, r.suffix) {
			continue
		}
		stem := word[:len(word)-len(r.suffix)] + r.replace
		if utf8.RuneCountInString(stem) < minLemmaRunes {
			return word
		}
		return stem
	}
	return word
}

func hasSuffixFold(word, suffix string) bool {
	return len(word) >= len(suffix) && strings.EqualFold(word[len(word)-len(suffix):], suffix)
}

var (
	englishOnce sync.Once
	englishLex  *Lexicon
)

// englishLexicon parses the embedded dictionary once; the result is only
// read afterwards.
func englishLexicon() *Lexicon {
	englishOnce.Do(func() {
		lex, err := Parse(englishRaw)
		if err != nil {
			panic(fmt.Sprintf("lexicon: embedded english dictionary: %v", err))
		}
		englishLex = lex
	})
	return englishLex
}

// EnglishLexicon returns a fresh copy of the built-in English lemma lexicon
func EnglishLexicon() *Lexicon {
	src := englishLexicon()
	lex := New()
	for canonical, variants := range src.lemmas {
		lex.AddGroup(canonical, variants)
	}
	return lex
}

// English returns the default dictionary reducer over the built-in lexicon
func English() *Dictionary {
	return NewDictionary(EnglishLexicon(), true)
}
