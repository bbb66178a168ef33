package calendar

import (
	"fmt"
	"sort"
)

// PlatformRule describes how content is shaped for a platform
type PlatformRule struct {
	Duration  string `json:"duration,omitempty"`  // video length
	Structure string `json:"structure,omitempty"` // note layout
	TitleRule string `json:"title_rule"`
}

// PlatformRules are keyed by platform label
var PlatformRules = map[string]PlatformRule{
	"抖音":  {Duration: "15-60秒", TitleRule: "带争议点"},
	"小红书": {Structure: "封面+标记点", TitleRule: "体验分享"},
}

// Platforms returns the labels that have rules, sorted
func Platforms() []string {
	out := make([]string, 0, len(PlatformRules))
	for p := range PlatformRules {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// PlatformSpec tags each topic with the platform's title rule
func PlatformSpec(topics []string, platform string) ([]string, error) {
	rule, ok := PlatformRules[platform]
	if !ok {
		return nil, fmt.Errorf("no rules for platform %q", platform)
	}
	out := make([]string, len(topics))
	for i, t := range topics {
		out[i] = fmt.Sprintf("%s [%s]", t, rule.TitleRule)
	}
	return out, nil
}
