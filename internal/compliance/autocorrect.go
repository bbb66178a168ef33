// Package compliance rewrites absolute claims that short-video platforms
// flag as advertising-law risks.
package compliance

import "strings"

// Rule replaces a risky word with a safer one
type Rule struct {
	Word        string `json:"word"`
	Replacement string `json:"replacement"`
}

// DefaultRules are applied in order
var DefaultRules = []Rule{
	{Word: "最", Replacement: "可能"},
	{Word: "第一", Replacement: "前列"},
	{Word: "绝对", Replacement: "建议"},
}

// AutoCorrect applies DefaultRules to text
func AutoCorrect(text string) string {
	return Apply(text, DefaultRules)
}

// Apply replaces every occurrence of each rule's word, one rule after another.
// Later rules see the output of earlier ones.
func Apply(text string, rules []Rule) string {
	for _, r := range rules {
		if r.Word == "" {
			continue
		}
		text = strings.ReplaceAll(text, r.Word, r.Replacement)
	}
	return text
}

// Finding reports how often a risky word occurs
type Finding struct {
	Word        string `json:"word"`
	Replacement string `json:"replacement"`
	Count       int    `json:"count"`
}

// Findings lists the DefaultRules words present in text, in rule order
func Findings(text string) []Finding {
	var out []Finding
	for _, r := range DefaultRules {
		if n := strings.Count(text, r.Word); n > 0 {
			out = append(out, Finding{Word: r.Word, Replacement: r.Replacement, Count: n})
		}
	}
	return out
}
