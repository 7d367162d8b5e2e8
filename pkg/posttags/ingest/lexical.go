package ingest

import (
	"strings"

	"github.com/cognicore/posttags/pkg/posttags/lexicon"
	"github.com/cognicore/posttags/pkg/posttags/pipeline"
	"github.com/cognicore/posttags/pkg/posttags/stoplist"
)

// LexicalFilter drops stopwords and reduces the remaining words to lemmas
type LexicalFilter struct {
	stops      stoplist.Checker
	lemmatizer lexicon.Lemmatizer
}

// NewLexicalFilter creates a filter. A nil checker is replaced by the
// built-in English stopwords on the first Fit; a nil lemmatizer by the
// built-in dictionary reducer.
func NewLexicalFilter(stops stoplist.Checker, lem lexicon.Lemmatizer) *LexicalFilter {
	if lem == nil {
		lem = lexicon.English()
	}
	return &LexicalFilter{stops: stops, lemmatizer: lem}
}

// Reduce splits text on whitespace, drops tokens that equal a stopword
// verbatim and lemmatizes the rest. Order is preserved.
func (f *LexicalFilter) Reduce(text string) string {
	stops := f.checker()
	words := strings.Fields(text)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if stops.IsStop(w) {
			continue
		}
		kept = append(kept, f.lemmatizer.Lemmatize(w))
	}
	return strings.Join(kept, " ")
}

// Fit installs the default stopword set if none was configured. The set
// is kept across later fits.
func (f *LexicalFilter) Fit(any) (pipeline.Stage, error) {
	if f.stops == nil {
		f.stops = stoplist.English()
	}
	return f, nil
}

// Apply reduces a string input
func (f *LexicalFilter) Apply(input any) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, unexpected(input, "string")
	}
	return f.Reduce(text), nil
}

// checker covers Reduce being called without a prior Fit
func (f *LexicalFilter) checker() stoplist.Checker {
	if f.stops == nil {
		f.stops = stoplist.English()
	}
	return f.stops
}
