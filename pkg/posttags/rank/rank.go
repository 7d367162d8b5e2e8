package rank

import (
	"fmt"
	"iter"
	"math"
	"sort"
	"strings"

	"github.com/cognicore/posttags/pkg/posttags/ingest"
	"github.com/cognicore/posttags/pkg/posttags/internalerr"
)

// Entry is one distinct n-gram with its frequency statistics
type Entry struct {
	NGram      ingest.NGram
	Count      int
	Proportion float64 // Count / total
	Cumulative float64 // running Count / total, in rank order
}

// Tag renders the entry's n-gram
func (e Entry) Tag() string {
	return e.NGram.String()
}

// Distribution counts n-gram occurrences and remembers the order in which
// each distinct n-gram was first seen.
type Distribution struct {
	index   map[string]int
	entries []Entry
	total   int
}

// NewDistribution creates an empty distribution
func NewDistribution() *Distribution {
	return &Distribution{index: make(map[string]int)}
}

// Count drains seq into a new distribution
func Count(seq iter.Seq[ingest.NGram]) *Distribution {
	d := NewDistribution()
	for g := range seq {
		d.Add(g)
	}
	return d
}

// Add records one occurrence of g. N-grams are compared token by token, so
// tokens that themselves contain spaces never merge with their neighbours.
func (d *Distribution) Add(g ingest.NGram) {
	key := strings.Join(g, "\x00")
	if i, ok := d.index[key]; ok {
		d.entries[i].Count++
	} else {
		d.index[key] = len(d.entries)
		d.entries = append(d.entries, Entry{NGram: append(ingest.NGram(nil), g...), Count: 1})
	}
	d.total++
}

// Total is the number of occurrences counted
func (d *Distribution) Total() int {
	return d.total
}

// Len is the number of distinct n-grams
func (d *Distribution) Len() int {
	return len(d.entries)
}


// Ranked returns every distinct n-gram ordered by count descending. Equal
// counts keep first-occurrence order. Proportions and cumulative
// proportions are filled; the last cumulative value is exactly 1.
func (d *Distribution) Ranked() []Entry {
	ranked := make([]Entry, len(d.entries))
	copy(ranked, d.entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if d.total == 0 {
		return ranked
	}
	total := float64(d.total)
	running := 0
	for i := range ranked {
		running += ranked[i].Count
		ranked[i].Proportion = float64(ranked[i].Count) / total
		ranked[i].Cumulative = float64(running) / total
	}
	return ranked
}

// Policy picks a prefix of a ranked entry list
type Policy interface {
	Select(ranked []Entry) []Entry
}

// TopK keeps the K highest ranked entries
type TopK struct {
	K int
}

// Select returns the first K entries, all of them when fewer exist, and
// none when K <= 0.
func (p TopK) Select(ranked []Entry) []Entry {
	if p.K <= 0 {
		return nil
	}
	if p.K >= len(ranked) {
		return ranked
	}
	return ranked[:p.K]
}

// Proportion keeps ranks up to the entry whose cumulative proportion is
// closest to Threshold. Ties go to the earlier rank.
type Proportion struct {
	Threshold float64
}

// NewProportion validates the threshold, which must lie in (0, 1]
func NewProportion(threshold float64) (Proportion, error) {
	if math.IsNaN(threshold) || threshold <= 0 || threshold > 1 {
		return Proportion{}, fmt.Errorf("proportion threshold %v: %w", threshold, internalerr.ErrInvalidInput)
	}
	return Proportion{Threshold: threshold}, nil
}

// Select returns ranks 1..m where m minimises |Cumulative - Threshold|
func (p Proportion) Select(ranked []Entry) []Entry {
	if len(ranked) == 0 {
		return nil
	}
	best := 0
	bestDist := math.Abs(ranked[0].Cumulative - p.Threshold)
	for i := 1; i < len(ranked); i++ {
		dist := math.Abs(ranked[i].Cumulative - p.Threshold)
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return ranked[:best+1]
}

// SelectTags counts seq, ranks it and renders the entries the policy keeps
func SelectTags(seq iter.Seq[ingest.NGram], policy Policy) []string {
	return Tags(policy.Select(Count(seq).Ranked()))
}

// Tags renders entries in order
func Tags(entries []Entry) []string {
	tags := make([]string, 0, len(entries))
	for _, e := range entries {
		tags = append(tags, e.Tag())
	}
	return tags
}
