package lexicon

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon stores lemma mappings:
// - Canonical: the dictionary base form (thing, child, analysis)
// - Variants: inflected forms that reduce to it (things, children, analyses)
//
// Lookups are case-insensitive; all keys are stored lowercase.
type Lexicon struct {
	// canonical -> all variants (including canonical itself)
	// Example: "child" -> ["child", "children"]
	lemmas map[string][]string

	// variant -> canonical
	// Example: "children" -> "child"
	reverseIndex map[string]string
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		lemmas:       make(map[string][]string),
		reverseIndex: make(map[string]string),
	}
}

// File is the YAML lexicon format.
//
// Expected format:
//
//	lemmas:
//	  - canonical: child
//	    variants: [children]
//	  - canonical: analysis
//	    variants: [analyses]
//	  - canonical: series   # pinned, maps to itself
type File struct {
	Lemmas []struct {
		Canonical string   `yaml:"canonical"`
		Variants  []string `yaml:"variants"`
	} `yaml:"lemmas"`
}

// Parse decodes YAML lexicon data into a new Lexicon.
func Parse(data []byte) (*Lexicon, error) {
	lex := New()
	if err := lex.Merge(data); err != nil {
		return nil, err
	}
	return lex, nil
}

// Merge decodes YAML lexicon data and adds its groups to the lexicon.
// Groups already present are replaced.
func (l *Lexicon) Merge(data []byte) error {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	for _, entry := range f.Lemmas {
		if strings.TrimSpace(entry.Canonical) == "" {
			continue
		}
		l.AddGroup(entry.Canonical, entry.Variants)
	}
	return nil
}

// LoadFromYAML loads lemma mappings from a YAML file.
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// AddGroup adds a lemma group with a canonical form and its variants.
// The canonical form is always the first entry of the group.
// If the group already exists, old reverse index entries are cleaned up first.
func (l *Lexicon) AddGroup(canonical string, variants []string) {
	canonical = strings.ToLower(canonical)

	// Clean up old reverse index entries if this canonical already exists
	if oldVariants, exists := l.lemmas[canonical]; exists {
		for _, oldV := range oldVariants {
			delete(l.reverseIndex, oldV)
		}
	}

	normalized := make([]string, 0, len(variants)+1)
	seen := make(map[string]bool)

	normalized = append(normalized, canonical)
	seen[canonical] = true

	for _, v := range variants {
		v = strings.ToLower(v)
		if !seen[v] {
			normalized = append(normalized, v)
			seen[v] = true
		}
	}

	l.lemmas[canonical] = normalized

	for _, v := range normalized {
		l.reverseIndex[v] = canonical
	}
}

// Lookup returns the canonical form of a token and whether the token is known.
//
// Examples:
//   - Lookup("Children") -> "child", true
//   - Lookup("child") -> "child", true
//   - Lookup("unknown") -> "", false
func (l *Lexicon) Lookup(token string) (string, bool) {
	canonical, ok := l.reverseIndex[strings.ToLower(token)]
	return canonical, ok
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	total := 0
	for _, variants := range l.lemmas {
		total += len(variants)
	}
	return Stats{
		Groups:        len(l.lemmas),
		TotalVariants: total,
	}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Groups        int // Number of canonical forms
	TotalVariants int // Total number of variants across all groups
}
