package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Defaults used when the analysis reply omits a field
const (
	MissingPersona = "未找到"
	MissingRisk    = "无"
)

// stripMarkdownCodeBlock removes markdown code block delimiters from AI responses
func stripMarkdownCodeBlock(response string) string {
	response = strings.TrimSpace(response)

	startIdx := strings.Index(response, "{")
	if startIdx == -1 {
		return response
	}

	endIdx := strings.LastIndex(response, "}")
	if endIdx == -1 || endIdx < startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}

// Analysis is the decoded persona analysis reply
type Analysis struct {
	Persona         string   `json:"persona"`
	Differentiation []string `json:"differentiation"`
	Risk            string   `json:"risk"`
	// Structured is false when the reply was not a JSON object and Persona
	// holds the raw text instead
	Structured bool `json:"-"`
}

// ParseAnalysis decodes a persona analysis reply. Missing fields get their
// defaults; a reply that is not a JSON object is kept verbatim as Persona.
func ParseAnalysis(raw string) Analysis {
	var a Analysis
	if err := json.Unmarshal([]byte(stripMarkdownCodeBlock(raw)), &a); err != nil {
		return Analysis{
			Persona:         strings.TrimSpace(raw),
			Differentiation: []string{},
			Risk:            MissingRisk,
		}
	}

	a.Structured = true
	if strings.TrimSpace(a.Persona) == "" {
		a.Persona = MissingPersona
	}
	if a.Differentiation == nil {
		a.Differentiation = []string{}
	}
	if strings.TrimSpace(a.Risk) == "" {
		a.Risk = MissingRisk
	}
	return a
}

var numberedItemRe = regexp.MustCompile(`\d+\.\s+(.*)`)

// ParseTopics extracts the text of "N. topic" lines in order
func ParseTopics(raw string) []string {
	matches := numberedItemRe.FindAllStringSubmatch(raw, -1)
	topics := make([]string, 0, len(matches))
	for _, m := range matches {
		topic := strings.TrimSpace(m[1])
		if topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}
