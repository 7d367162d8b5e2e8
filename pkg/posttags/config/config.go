package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/posttags/pkg/posttags/ingest"
	"github.com/cognicore/posttags/pkg/posttags/internalerr"
)

// Built-in resource names
const (
	StopwordsEnglish  = "english"
	StopwordsSnowball = "snowball"
	StopwordsNone     = "none"

	LemmatizerDictionary = "dictionary"
	LemmatizerSnowball   = "snowball"
	LemmatizerNone       = "none"

	PolicyTopK       = "top_k"
	PolicyProportion = "proportion"
)

// Config is the YAML configuration of a tagging run
type Config struct {
	Stopwords   string        `yaml:"stopwords"`  // english, snowball, none or a YAML file path
	Lemmatizer  string        `yaml:"lemmatizer"` // dictionary, snowball, none
	Lexicon     string        `yaml:"lexicon"`    // extra lemma groups merged into the dictionary
	Rules       []ingest.Rule `yaml:"rules"`
	NGram       int           `yaml:"ngram"`
	MinLength   *int          `yaml:"min_length"` // unset means 1; 0 keeps every token
	WordPattern string        `yaml:"word_pattern"`
	FilterWords []string      `yaml:"filter_words"`
	HTML        bool          `yaml:"html"`
	Policy      PolicyConfig  `yaml:"policy"`
	Logging     LoggingConfig `yaml:"logging"`

	// dir resolves relative resource paths; set by Load
	dir string
}

// PolicyConfig selects how many ranked n-grams become tags
type PolicyConfig struct {
	Kind      string  `yaml:"kind"` // top_k (default) or proportion
	K         int     `yaml:"k"`
	Threshold float64 `yaml:"threshold"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns a configuration with every default applied
func Default() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// Load reads a YAML configuration file, expanding ${VAR} references
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes, defaults and validates configuration bytes
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w: %v", internalerr.ErrInvalidConfig, err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Stopwords == "" {
		c.Stopwords = StopwordsEnglish
	}
	if c.Lemmatizer == "" {
		c.Lemmatizer = LemmatizerDictionary
	}
	if c.NGram == 0 {
		c.NGram = 1
	}
	if c.MinLength == nil {
		n := ingest.DefaultMinLength
		c.MinLength = &n
	}
	if c.Policy.Kind == "" {
		c.Policy.Kind = PolicyTopK
	}
	if c.Policy.Kind == PolicyTopK && c.Policy.K == 0 {
		c.Policy.K = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.NGram < 1 {
		return fmt.Errorf("ngram must be at least 1, got %d: %w", c.NGram, internalerr.ErrInvalidConfig)
	}
	if c.MinLength != nil && *c.MinLength < 0 {
		return fmt.Errorf("min_length must not be negative, got %d: %w", *c.MinLength, internalerr.ErrInvalidConfig)
	}

	switch c.Lemmatizer {
	case LemmatizerDictionary, LemmatizerSnowball, LemmatizerNone:
	default:
		return fmt.Errorf("lemmatizer must be %q, %q or %q, got %q: %w",
			LemmatizerDictionary, LemmatizerSnowball, LemmatizerNone, c.Lemmatizer, internalerr.ErrInvalidConfig)
	}
	if c.Lexicon != "" && c.Lemmatizer != LemmatizerDictionary {
		return fmt.Errorf("lexicon requires the %q lemmatizer: %w", LemmatizerDictionary, internalerr.ErrInvalidConfig)
	}

	switch c.Policy.Kind {
	case PolicyTopK:
	case PolicyProportion:
		t := c.Policy.Threshold
		if math.IsNaN(t) || t <= 0 || t > 1 {
			return fmt.Errorf("policy.threshold must be in (0, 1], got %v: %w", t, internalerr.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("policy.kind must be %q or %q, got %q: %w",
			PolicyTopK, PolicyProportion, c.Policy.Kind, internalerr.ErrInvalidConfig)
	}

	for i, r := range c.Rules {
		if r.Pattern == "" {
			return fmt.Errorf("rules[%d]: empty pattern: %w", i, internalerr.ErrInvalidConfig)
		}
	}
	return nil
}

// resolve makes a relative resource path relative to the config file
func (c *Config) resolve(path string) string {
	if c.dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.dir, path)
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
