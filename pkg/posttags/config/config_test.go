package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/cognicore/posttags/pkg/posttags"
	"github.com/cognicore/posttags/pkg/posttags/ingest"
	"github.com/cognicore/posttags/pkg/posttags/internalerr"
	"github.com/cognicore/posttags/pkg/posttags/lexicon"
	"github.com/cognicore/posttags/pkg/posttags/rank"
	"github.com/cognicore/posttags/pkg/posttags/stoplist"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Stopwords != StopwordsEnglish {
		t.Errorf("Expected english stopwords, got %q", cfg.Stopwords)
	}
	if cfg.Lemmatizer != LemmatizerDictionary {
		t.Errorf("Expected dictionary lemmatizer, got %q", cfg.Lemmatizer)
	}
	if cfg.NGram != 1 || cfg.MinLength == nil || *cfg.MinLength != 1 {
		t.Errorf("Expected ngram=1 min_length=1, got %d %v", cfg.NGram, cfg.MinLength)
	}
	if cfg.Policy.Kind != PolicyTopK || cfg.Policy.K != 5 {
		t.Errorf("Expected top_k 5, got %+v", cfg.Policy)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults should validate: %v", err)
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
stopwords: none
lemmatizer: snowball
ngram: 2
filter_words: [golang]
html: true
rules:
  - pattern: '\bk8s\b'
    replacement: kubernetes
policy:
  kind: proportion
  threshold: 0.8
logging:
  level: debug
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.NGram != 2 || !cfg.HTML || cfg.Logging.Level != "debug" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	if len(cfg.Rules) != 1 || cfg.Rules[0].Replacement != "kubernetes" {
		t.Errorf("Unexpected rules: %+v", cfg.Rules)
	}
	if cfg.Policy.Kind != PolicyProportion || cfg.Policy.Threshold != 0.8 {
		t.Errorf("Unexpected policy: %+v", cfg.Policy)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"ngram", func(c *Config) { c.NGram = -1 }, "ngram must be at least 1"},
		{"min length", func(c *Config) { n := -1; c.MinLength = &n }, "min_length"},
		{"lemmatizer", func(c *Config) { c.Lemmatizer = "wordnet" }, `got "wordnet"`},
		{"lexicon without dictionary", func(c *Config) { c.Lemmatizer = LemmatizerNone; c.Lexicon = "x.yaml" }, "lexicon requires"},
		{"policy kind", func(c *Config) { c.Policy.Kind = "random" }, "policy.kind"},
		{"threshold zero", func(c *Config) { c.Policy = PolicyConfig{Kind: PolicyProportion} }, "policy.threshold"},
		{"threshold above one", func(c *Config) { c.Policy = PolicyConfig{Kind: PolicyProportion, Threshold: 1.5} }, "policy.threshold"},
		{"empty rule", func(c *Config) { c.Rules = []ingest.Rule{{Pattern: ""}} }, "empty pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q should mention %q", err, tt.errMsg)
			}
		})
	}
}

func TestParseMinLengthZero(t *testing.T) {
	cfg, err := Parse([]byte("min_length: 0\nstopwords: none\nlemmatizer: none\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MinLength == nil || *cfg.MinLength != 0 {
		t.Fatalf("Expected explicit 0 to survive defaults, got %v", cfg.MinLength)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatal(err)
	}
	e, err := posttags.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Extract(context.Background(), "a bb c dd")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Tags, []string{"a", "bb", "c", "dd"}) {
		t.Errorf("Tags = %v, want single letters kept", res.Tags)
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("ngram: [1")); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("POSTTAGS_NGRAM", "3")

	cfg, err := Parse([]byte("ngram: ${POSTTAGS_NGRAM}\nstopwords: ${POSTTAGS_UNSET_STOPWORDS:-none}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NGram != 3 {
		t.Errorf("Expected ngram 3, got %d", cfg.NGram)
	}
	if cfg.Stopwords != StopwordsNone {
		t.Errorf("Expected default none, got %q", cfg.Stopwords)
	}
}

func TestLoadNonExistent(t *testing.T) {
	if _, err := Load("/nonexistent/posttags.yaml"); err == nil {
		t.Error("Should error on nonexistent config")
	}
}

func TestOptionsBuiltins(t *testing.T) {
	tests := []struct {
		stopwords  string
		lemmatizer string
		checkStops func(stoplist.Checker) bool
		checkLem   func(lexicon.Lemmatizer) bool
	}{
		{
			StopwordsEnglish, LemmatizerDictionary,
			func(c stoplist.Checker) bool { _, ok := c.(*stoplist.Set); return ok },
			func(l lexicon.Lemmatizer) bool { _, ok := l.(*lexicon.Dictionary); return ok },
		},
		{
			StopwordsSnowball, LemmatizerSnowball,
			func(c stoplist.Checker) bool { _, ok := c.(stoplist.Snowball); return ok },
			func(l lexicon.Lemmatizer) bool { _, ok := l.(lexicon.Snowball); return ok },
		},
		{
			StopwordsNone, LemmatizerNone,
			func(c stoplist.Checker) bool { _, ok := c.(stoplist.None); return ok },
			func(l lexicon.Lemmatizer) bool { _, ok := l.(lexicon.Identity); return ok },
		},
	}

	for _, tt := range tests {
		t.Run(tt.stopwords+"/"+tt.lemmatizer, func(t *testing.T) {
			cfg := Default()
			cfg.Stopwords, cfg.Lemmatizer = tt.stopwords, tt.lemmatizer

			opts, err := cfg.Options()
			if err != nil {
				t.Fatal(err)
			}
			if !tt.checkStops(opts.Stopwords) {
				t.Errorf("Unexpected stopwords %T", opts.Stopwords)
			}
			if !tt.checkLem(opts.Lemmatizer) {
				t.Errorf("Unexpected lemmatizer %T", opts.Lemmatizer)
			}
			if _, ok := opts.Policy.(rank.TopK); !ok {
				t.Errorf("Expected TopK policy, got %T", opts.Policy)
			}
		})
	}
}

func TestLoadResolvesRelativeResources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "stop.yaml", "terms: [draft, todo]\n")
	writeFile(t, dir, "lemmas.yaml", "lemmas:\n  - canonical: gopher\n    variants: [gophs]\n")
	path := writeFile(t, dir, "posttags.yaml", `
stopwords: stop.yaml
lexicon: lemmas.yaml
policy:
  kind: top_k
  k: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatal(err)
	}
	if !opts.Stopwords.IsStop("draft") || opts.Stopwords.IsStop("the") {
		t.Error("Expected the file stopword list")
	}
	if got := opts.Lemmatizer.Lemmatize("gophs"); got != "gopher" {
		t.Errorf("Expected merged lexicon entry, got %q", got)
	}
	if got := opts.Lemmatizer.Lemmatize("children"); got != "child" {
		t.Errorf("Built-in entries should survive the merge, got %q", got)
	}

	e, err := posttags.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Extract(context.Background(), "draft gophs gophs todo draft gopher notes notes notes")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Tags, []string{"gopher", "note"}) {
		t.Errorf("Tags = %v", res.Tags)
	}
}

func TestOptionsMissingResource(t *testing.T) {
	cfg := Default()
	cfg.Stopwords = "/nonexistent/stop.yaml"
	if _, err := cfg.Options(); err == nil {
		t.Error("Should error on missing stopword file")
	}

	cfg = Default()
	cfg.Lexicon = "/nonexistent/lemmas.yaml"
	if _, err := cfg.Options(); err == nil {
		t.Error("Should error on missing lexicon file")
	}
}
