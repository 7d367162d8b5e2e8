package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/posttags/pkg/posttags/internalerr"
	"github.com/cognicore/posttags/pkg/posttags/pipeline"
)

// Rule is a single pattern substitution. Multiline makes ^ and $ match at
// line boundaries.
type Rule struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
	Multiline   bool   `yaml:"multiline"`
}

// DefaultRules returns the built-in normalization rules. Order matters:
// markup tags must be replaced before the non-letter sweep destroys their
// delimiters.
func DefaultRules() []Rule {
	return []Rule{
		// URLs up to the next whitespace
		{Pattern: `[A-Za-z][A-Za-z0-9+.\-]*://\S+`, Replacement: "", Multiline: true},
		// inline code spans; a span never crosses a newline
		{Pattern: "`[^`\n]+`", Replacement: "", Multiline: true},
		// fenced code blocks
		{Pattern: "(?s)```.*?```", Replacement: "", Multiline: true},
		// table-of-contents bullets; the URL rule may already have eaten the closing paren
		{Pattern: `^[ \t]*-[ \t]+\[[^\]\n]*\]\([^)\n]*\)?`, Replacement: "", Multiline: true},
		// markup tags
		{Pattern: `</?[A-Za-z!][^<>]*>`, Replacement: " ", Multiline: true},
		// everything that is not a letter
		{Pattern: `[^\p{L}]+`, Replacement: " ", Multiline: true},
	}
}

type compiledRule struct {
	re          *regexp.Regexp
	replacement string
}

// Normalizer strips links, code, table-of-contents bullets, markup and
// non-letters from markdown-like text.
type Normalizer struct {
	rules    []Rule
	compiled []compiledRule
}

// NewNormalizer compiles the caller rules followed by DefaultRules. Caller
// rules run first. An invalid pattern fails here, not at apply time.
func NewNormalizer(rules []Rule) (*Normalizer, error) {
	all := make([]Rule, 0, len(rules)+6)
	all = append(all, rules...)
	all = append(all, DefaultRules()...)

	compiled := make([]compiledRule, len(all))
	for i, r := range all {
		expr := r.Pattern
		if r.Multiline {
			expr = "(?m)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("rule %d %q: %w: %v", i, r.Pattern, internalerr.ErrInvalidRule, err)
		}
		compiled[i] = compiledRule{re: re, replacement: r.Replacement}
	}

	return &Normalizer{rules: all, compiled: compiled}, nil
}

// Rules returns the rules in application order
func (n *Normalizer) Rules() []Rule {
	return append([]Rule(nil), n.rules...)
}

// Normalize applies every rule in order and trims the result
func (n *Normalizer) Normalize(text string) string {
	text = norm.NFC.String(text)
	for _, r := range n.compiled {
		text = r.re.ReplaceAllString(text, r.replacement)
	}
	return strings.TrimSpace(text)
}

// Fit is a no-op
func (n *Normalizer) Fit(any) (pipeline.Stage, error) {
	return n, nil
}

// Apply normalizes a string input
func (n *Normalizer) Apply(input any) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, unexpected(input, "string")
	}
	return n.Normalize(text), nil
}

func unexpected(input any, want string) error {
	return fmt.Errorf("got %T, want %s: %w", input, want, internalerr.ErrUnexpectedInput)
}
