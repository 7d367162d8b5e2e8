package rank

import (
	"fmt"
	"iter"
	"slices"

	"github.com/cognicore/posttags/pkg/posttags/ingest"
	"github.com/cognicore/posttags/pkg/posttags/internalerr"
	"github.com/cognicore/posttags/pkg/posttags/pipeline"
)

// Selector is the tag-selection stage
type Selector struct {
	policy Policy
	last   []Entry
}

// NewSelector creates a selector. A nil policy keeps the top five.
func NewSelector(policy Policy) *Selector {
	if policy == nil {
		policy = TopK{K: 5}
	}
	return &Selector{policy: policy}
}

// Ranked returns the full ranked set from the last Apply
func (s *Selector) Ranked() []Entry {
	return s.last
}

// Fit is a no-op
func (s *Selector) Fit(any) (pipeline.Stage, error) {
	return s, nil
}

// Apply ranks an n-gram sequence or slice and returns the selected tags
func (s *Selector) Apply(input any) (any, error) {
	var seq iter.Seq[ingest.NGram]
	switch v := input.(type) {
	case iter.Seq[ingest.NGram]:
		seq = v
	case []ingest.NGram:
		seq = slices.Values(v)
	default:
		return nil, fmt.Errorf("got %T, want n-grams: %w", input, internalerr.ErrUnexpectedInput)
	}
	s.last = Count(seq).Ranked()
	return Tags(s.policy.Select(s.last)), nil
}
