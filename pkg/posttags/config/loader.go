package config

import (
	"fmt"
	"os"

	"github.com/cognicore/posttags/pkg/posttags"
	"github.com/cognicore/posttags/pkg/posttags/lexicon"
	"github.com/cognicore/posttags/pkg/posttags/rank"
	"github.com/cognicore/posttags/pkg/posttags/stoplist"
)

// Options resolves the configured resources into extractor options.
// Logger and Observer are left for the caller.
func (c *Config) Options() (posttags.Options, error) {
	stops, err := c.stopwords()
	if err != nil {
		return posttags.Options{}, fmt.Errorf("load stopwords: %w", err)
	}

	lem, err := c.lemmatizer()
	if err != nil {
		return posttags.Options{}, fmt.Errorf("load lexicon: %w", err)
	}

	policy, err := c.policy()
	if err != nil {
		return posttags.Options{}, err
	}

	return posttags.Options{
		NGram:       c.NGram,
		Policy:      policy,
		Stopwords:   stops,
		Lemmatizer:  lem,
		Rules:       c.Rules,
		WordPattern: c.WordPattern,
		MinLength:   c.MinLength,
		FilterWords: c.FilterWords,
		HTML:        c.HTML,
	}, nil
}

func (c *Config) stopwords() (stoplist.Checker, error) {
	switch c.Stopwords {
	case StopwordsEnglish:
		return stoplist.English(), nil
	case StopwordsSnowball:
		return stoplist.Snowball{}, nil
	case StopwordsNone:
		return stoplist.None{}, nil
	default:
		return stoplist.Load(c.resolve(c.Stopwords))
	}
}

func (c *Config) lemmatizer() (lexicon.Lemmatizer, error) {
	switch c.Lemmatizer {
	case LemmatizerSnowball:
		return lexicon.Snowball{}, nil
	case LemmatizerNone:
		return lexicon.Identity{}, nil
	}

	lex := lexicon.EnglishLexicon()
	if c.Lexicon != "" {
		data, err := os.ReadFile(c.resolve(c.Lexicon))
		if err != nil {
			return nil, err
		}
		if err := lex.Merge(data); err != nil {
			return nil, err
		}
	}
	return lexicon.NewDictionary(lex, true), nil
}

func (c *Config) policy() (rank.Policy, error) {
	if c.Policy.Kind == PolicyProportion {
		return rank.NewProportion(c.Policy.Threshold)
	}
	return rank.TopK{K: c.Policy.K}, nil
}
