// Package planner runs the account persona, content diagnosis and brand
// strategy flows on top of the prompt gateway.
package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/persona-agent/internal/models"
	"github.com/persona-agent/internal/social"
)

// Operation goals
const (
	GoalFollowers = "粉丝增长"
	GoalExposure  = "品牌曝光"
	GoalSales     = "产品销售"
	GoalTopics    = "20个爆款选题"
)

// Goals lists the operation goals in display order
var Goals = []string{GoalFollowers, GoalExposure, GoalSales, GoalTopics}

// ValidationError lists the required fields that were left empty
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Input is the account profile submitted for persona analysis
type Input models.Profile

// Normalize trims every field and drops blank list entries
func (in Input) Normalize() Input {
	in.AccountName = strings.TrimSpace(in.AccountName)
	in.Industry = strings.TrimSpace(in.Industry)
	in.TargetAudience = strings.TrimSpace(in.TargetAudience)
	in.CompetitorPlatform = strings.TrimSpace(in.CompetitorPlatform)
	in.Goal = strings.TrimSpace(in.Goal)
	in.CoreAdvantages = social.CleanAccounts(in.CoreAdvantages)
	in.Competitors = social.CleanAccounts(in.Competitors)
	return in
}

// Validate checks that every required field is present. Values are not
// otherwise checked.
func (in Input) Validate() error {
	in = in.Normalize()

	var missing []string
	if in.AccountName == "" {
		missing = append(missing, "account_name")
	}
	if in.Industry == "" {
		missing = append(missing, "industry")
	}
	if len(in.CoreAdvantages) == 0 {
		missing = append(missing, "core_advantages")
	}
	if in.TargetAudience == "" {
		missing = append(missing, "target_audience")
	}
	if len(in.Competitors) == 0 {
		missing = append(missing, "competitor_accounts")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

type payload struct {
	AccountName    string   `json:"account_name"`
	Industry       string   `json:"industry"`
	CoreAdvantages []string `json:"core_advantages"`
	TargetAudience string   `json:"target_audience"`
	Competitors    []string `json:"competitor_accounts"`
	Goal           string   `json:"operation_goal"`
}

// Payload renders the profile as the JSON document sent for analysis
func (in Input) Payload() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(payload{
		AccountName:    in.AccountName,
		Industry:       in.Industry,
		CoreAdvantages: in.CoreAdvantages,
		TargetAudience: in.TargetAudience,
		Competitors:    in.Competitors,
		Goal:           in.Goal,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// LoadInput reads a profile from a YAML or JSON file
func LoadInput(path string) (Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Input{}, fmt.Errorf("failed to read input file: %w", err)
	}

	var in Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("failed to parse input file %s: %w", path, err)
	}
	return in.Normalize(), nil
}
