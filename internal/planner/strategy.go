package planner

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/persona-agent/internal/ai"
	"github.com/persona-agent/pkg/logger"
)

// BrandBrief is the input of the brand strategy flow
type BrandBrief struct {
	BrandInfo   string `json:"brand_info" yaml:"brand_info"`
	ProductInfo string `json:"product_info" yaml:"product_info"`
	BrandNeeds  string `json:"brand_needs" yaml:"brand_needs"`
	Channels    string `json:"promotion_channels" yaml:"promotion_channels"`
}

// Validate checks that every section is present
func (b BrandBrief) Validate() error {
	var missing []string
	if strings.TrimSpace(b.BrandInfo) == "" {
		missing = append(missing, "brand_info")
	}
	if strings.TrimSpace(b.ProductInfo) == "" {
		missing = append(missing, "product_info")
	}
	if strings.TrimSpace(b.BrandNeeds) == "" {
		missing = append(missing, "brand_needs")
	}
	if strings.TrimSpace(b.Channels) == "" {
		missing = append(missing, "promotion_channels")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// LoadBrief reads a brand brief from a YAML or JSON file
func LoadBrief(path string) (BrandBrief, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BrandBrief{}, fmt.Errorf("failed to read brief file: %w", err)
	}

	var b BrandBrief
	if err := yaml.Unmarshal(data, &b); err != nil {
		return BrandBrief{}, fmt.Errorf("failed to parse brief file %s: %w", path, err)
	}
	return b, nil
}

// Strategy holds the stage analyses and the final plan
type Strategy struct {
	BrandAnalysis   string `json:"brand_analysis"`
	ProductAnalysis string `json:"product_analysis"`
	NeedsAnalysis   string `json:"needs_analysis"`
	ChannelAnalysis string `json:"channel_analysis"`
	Plan            string `json:"plan"`
}

type stage struct {
	task    string
	persona string
	input   string
	out     *string
}

// Strategist runs the brand strategy flow
type Strategist struct {
	aiClient Completer
	log      *logger.Logger
}

// NewStrategist creates a new strategist
func NewStrategist(aiClient Completer, log *logger.Logger) *Strategist {
	return &Strategist{
		aiClient: aiClient,
		log:      log.WithComponent("strategy"),
	}
}

// Plan runs the four stage analyses in order and then the comprehensive
// plan. A failed stage stops the flow so the plan is never built from a
// failure message.
func (s *Strategist) Plan(ctx context.Context, brief BrandBrief) (*Strategy, error) {
	if err := brief.Validate(); err != nil {
		return nil, err
	}

	result := &Strategy{}
	stages := []stage{
		{ai.TaskBrandAnalysis, ai.PersonaBrandAnalyst, brief.BrandInfo, &result.BrandAnalysis},
		{ai.TaskProductAnalysis, ai.PersonaProductAnalyst, brief.ProductInfo, &result.ProductAnalysis},
		{ai.TaskNeedsAnalysis, ai.PersonaBrandMarketer, brief.BrandNeeds, &result.NeedsAnalysis},
		{ai.TaskChannelAnalysis, ai.PersonaChannelMarketer, brief.Channels, &result.ChannelAnalysis},
	}

	for _, st := range stages {
		s.log.Info().Str("stage", st.task).Msg("Running strategy stage")
		text, err := s.aiClient.RunTask(ctx, st.persona, st.task, st.input)
		if err != nil {
			return result, fmt.Errorf("%s: %w", st.task, err)
		}
		*st.out = text
	}

	prompt := fmt.Sprintf(ai.StrategyPromptTemplate,
		result.BrandAnalysis, result.ProductAnalysis, result.NeedsAnalysis, result.ChannelAnalysis)

	plan, err := s.aiClient.RunTask(ctx, ai.PersonaOperator, ai.TaskStrategy, prompt)
	if err != nil {
		return result, fmt.Errorf("%s: %w", ai.TaskStrategy, err)
	}
	result.Plan = plan

	s.log.Info().Int("plan_len", len(plan)).Msg("Brand strategy generated")
	return result, nil
}
