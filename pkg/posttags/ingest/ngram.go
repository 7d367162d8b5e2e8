package ingest

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/cognicore/posttags/pkg/posttags/internalerr"
	"github.com/cognicore/posttags/pkg/posttags/pipeline"
)

// NGram is an ordered run of one or more tokens. Width-1 n-grams are
// one-element slices, so downstream code never special-cases arity.
type NGram []string

// String renders the n-gram as its tokens joined by single spaces
func (g NGram) String() string {
	return strings.Join(g, " ")
}

// Generate lazily yields every contiguous window of n tokens in order. It
// yields nothing when n < 1 or there are fewer than n tokens. Each yielded
// n-gram is a copy; calling Generate again restarts the sequence.
func Generate(tokens []string, n int) iter.Seq[NGram] {
	return func(yield func(NGram) bool) {
		if n < 1 {
			return
		}
		for i := 0; i+n <= len(tokens); i++ {
			gram := make(NGram, n)
			copy(gram, tokens[i:i+n])
			if !yield(gram) {
				return
			}
		}
	}
}

// Make collects Generate into a slice
func Make(tokens []string, n int) []NGram {
	return slices.Collect(Generate(tokens, n))
}

// NGrammer is the n-gram stage
type NGrammer struct {
	n int
}

// NewNGrammer creates an n-gram stage of width n (n >= 1)
func NewNGrammer(n int) (*NGrammer, error) {
	if n < 1 {
		return nil, fmt.Errorf("n-gram width %d: %w", n, internalerr.ErrInvalidInput)
	}
	return &NGrammer{n: n}, nil
}

// N returns the window width
func (g *NGrammer) N() int {
	return g.n
}

// Fit is a no-op
func (g *NGrammer) Fit(any) (pipeline.Stage, error) {
	return g, nil
}

// Apply turns a token slice into a lazy n-gram sequence
func (g *NGrammer) Apply(input any) (any, error) {
	tokens, ok := input.([]string)
	if !ok {
		return nil, unexpected(input, "[]string")
	}
	return Generate(tokens, g.n), nil
}
