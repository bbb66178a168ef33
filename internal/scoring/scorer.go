// Package scoring rates free text against weighted keyword categories.
//
// A category score is the number of case-insensitive keyword occurrences,
// times the category weight, times Scale, clamped to [0, 100]. Occurrences
// are literal and not tokenised, so partial-word matches count.
package scoring

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

const (
	// Scale converts weighted match counts into percentage points
	Scale = 10.0
	// MaxScore caps every category
	MaxScore = 100.0
)

// Category is one row of a score table
type Category struct {
	Name     string
	Keywords []string
	Weight   float64 // in (0, 1]
	Guidance string  // advice shown next to the score
}

// Table is an ordered, read-only list of categories
type Table []Category

// Validate checks names and weights
func (t Table) Validate() error {
	seen := make(map[string]bool, len(t))
	for _, c := range t {
		if c.Name == "" {
			return fmt.Errorf("category with empty name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[c.Name] = true
		if c.Weight <= 0 || c.Weight > 1 {
			return fmt.Errorf("category %q: weight %.2f outside (0,1]", c.Name, c.Weight)
		}
	}
	return nil
}

// CategoryScore is the score of one category
type CategoryScore struct {
	Name      string  `json:"name"`
	Matches   int     `json:"matches"`
	Score     float64 `json:"score"`
	Guidance  string  `json:"guidance,omitempty"`
	Aggregate bool    `json:"aggregate,omitempty"`
}

// Result holds scores in table order, followed by the aggregate if requested
type Result []CategoryScore

// Get returns the score of a category by name
func (r Result) Get(name string) (float64, bool) {
	for _, s := range r {
		if s.Name == name {
			return s.Score, true
		}
	}
	return 0, false
}

type options struct {
	aggregate string
}

// Option configures Score
type Option func(*options)

// WithAggregate appends a category named name whose value is the unweighted
// mean of the other categories (0 when the table is empty)
func WithAggregate(name string) Option {
	return func(o *options) {
		o.aggregate = name
	}
}

// Score rates text against table. It never mutates table.
func Score(text string, table Table, opts ...Option) Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	result := make(Result, 0, len(table)+1)
	total := 0.0
	for _, c := range table {
		matches := 0
		for _, kw := range c.Keywords {
			matches += CountMatches(text, kw)
		}
		score := clamp(float64(matches) * c.Weight * Scale)
		total += score
		result = append(result, CategoryScore{
			Name:     c.Name,
			Matches:  matches,
			Score:    score,
			Guidance: c.Guidance,
		})
	}

	if o.aggregate != "" {
		mean := 0.0
		if len(table) > 0 {
			mean = total / float64(len(table))
		}
		result = append(result, CategoryScore{Name: o.aggregate, Score: mean, Aggregate: true})
	}
	return result
}

// CountMatches counts non-overlapping case-insensitive occurrences of keyword in text
func CountMatches(text, keyword string) int {
	if text == "" || keyword == "" {
		return 0
	}
	return len(matcher(keyword).FindAllStringIndex(text, -1))
}

// matchers caches one compiled pattern per keyword
var matchers sync.Map

func matcher(keyword string) *regexp.Regexp {
	if re, ok := matchers.Load(keyword); ok {
		return re.(*regexp.Regexp)
	}
	// (?i) applies Unicode simple case folding
	re, _ := matchers.LoadOrStore(keyword, regexp.MustCompile("(?i)"+regexp.QuoteMeta(keyword)))
	return re.(*regexp.Regexp)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// Normalize trims keywords and drops empty ones, returning a copy
func (t Table) Normalize() Table {
	out := make(Table, len(t))
	for i, c := range t {
		kws := make([]string, 0, len(c.Keywords))
		for _, kw := range c.Keywords {
			if kw = strings.TrimSpace(kw); kw != "" {
				kws = append(kws, kw)
			}
		}
		c.Keywords = kws
		out[i] = c
	}
	return out
}
