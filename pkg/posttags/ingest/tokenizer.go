package ingest

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/cognicore/posttags/pkg/posttags/internalerr"
	"github.com/cognicore/posttags/pkg/posttags/pipeline"
	"github.com/cognicore/posttags/pkg/posttags/stoplist"
)

const (
	// DefaultWordPattern matches runs of letters, digits and underscores
	DefaultWordPattern = `[\p{L}\p{N}_]+`
	// DefaultMinLength keeps tokens longer than one character
	DefaultMinLength = 1
)

// TokenizerOptions configures a Tokenizer. Zero values select defaults.
type TokenizerOptions struct {
	Pattern     string
	Stopwords   stoplist.Checker // queried with the case-folded token
	FilterWords []string
	MinLength   *int // tokens must be strictly longer, in runes; nil selects DefaultMinLength
}

// Tokenizer extracts word tokens, keeping original case and order
type Tokenizer struct {
	re          *regexp.Regexp
	stops       stoplist.Checker
	filterWords []string
	filter      map[string]struct{}
	minLength   int
	fold        cases.Caser
}

// NewTokenizer creates a tokenizer. An invalid pattern fails here.
func NewTokenizer(opts TokenizerOptions) (*Tokenizer, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultWordPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("word pattern %q: %w: %v", pattern, internalerr.ErrInvalidRule, err)
	}

	minLength := DefaultMinLength
	if opts.MinLength != nil {
		minLength = *opts.MinLength
	}
	if minLength < 0 {
		return nil, fmt.Errorf("min length %d: %w", minLength, internalerr.ErrInvalidInput)
	}

	return &Tokenizer{
		re:          re,
		stops:       opts.Stopwords,
		filterWords: append([]string(nil), opts.FilterWords...),
		minLength:   minLength,
		fold:        cases.Fold(),
	}, nil
}

// Tokenize returns every match of the word pattern that survives the
// stopword, length and filter-word checks. Duplicates are kept.
func (t *Tokenizer) Tokenize(text string) []string {
	t.prepare()

	matches := t.re.FindAllString(text, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		if utf8.RuneCountInString(m) <= t.minLength {
			continue
		}
		folded := t.fold.String(m)
		if t.stops.IsStop(folded) {
			continue
		}
		if _, drop := t.filter[folded]; drop {
			continue
		}
		tokens = append(tokens, m)
	}
	return tokens
}

// Fit builds the filter-word set and installs default stopwords
func (t *Tokenizer) Fit(any) (pipeline.Stage, error) {
	t.prepare()
	return t, nil
}

// Apply tokenizes a string input
func (t *Tokenizer) Apply(input any) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, unexpected(input, "string")
	}
	return t.Tokenize(text), nil
}

func (t *Tokenizer) prepare() {
	if t.stops == nil {
		t.stops = stoplist.English()
	}
	if t.filter == nil {
		t.filter = make(map[string]struct{}, len(t.filterWords))
		for _, w := range t.filterWords {
			t.filter[t.fold.String(w)] = struct{}{}
		}
	}
}
