package rank

import (
	"fmt"
	"slices"

	"github.com/cognicore/posttags/pkg/posttags/ingest"
	"github.com/cognicore/posttags/pkg/posttags/internalerr"
	"github.com/cognicore/posttags/pkg/posttags/pipeline"
)

// DocumentCounter counts the unigrams of the raw document it is fitted on.
// Apply ignores its argument and hands back the fitted distribution.
type DocumentCounter struct {
	tok  *ingest.Tokenizer
	dist *Distribution
}

// NewDocumentCounter creates a counter over tok's tokens
func NewDocumentCounter(tok *ingest.Tokenizer) *DocumentCounter {
	return &DocumentCounter{tok: tok}
}

// Fit tokenizes the document and counts each token
func (c *DocumentCounter) Fit(input any) (pipeline.Stage, error) {
	text, ok := input.(string)
	if !ok {
		return nil, fmt.Errorf("got %T, want string: %w", input, internalerr.ErrUnexpectedInput)
	}
	if _, err := c.tok.Fit(input); err != nil {
		return nil, err
	}
	c.dist = Count(ingest.Generate(c.tok.Tokenize(text), 1))
	return c, nil
}

// Apply returns the distribution built by Fit
func (c *DocumentCounter) Apply(any) (any, error) {
	if c.dist == nil {
		return NewDistribution(), nil
	}
	return c.dist, nil
}

// Vocabulary returns the distinct tokens in first-occurrence order
func (c *DocumentCounter) Vocabulary() []string {
	if c.dist == nil {
		return nil
	}
	vocab := make([]string, 0, c.dist.Len())
	for _, e := range c.dist.entries {
		vocab = append(vocab, e.Tag())
	}
	return slices.Clip(vocab)
}
