package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/persona-agent/internal/ai"
	"github.com/persona-agent/internal/compliance"
	"github.com/persona-agent/internal/models"
	"github.com/persona-agent/internal/storage"
	"github.com/persona-agent/pkg/logger"
)

// Completer runs catalog tasks against the prompt gateway
type Completer interface {
	RunTask(ctx context.Context, persona, taskName, userText string) (string, error)
}

// TrendsContext supplies recent industry headlines, or "" when none
type TrendsContext interface {
	Context(ctx context.Context, industry string) string
}

// ErrNoAnalysis is returned when topics are requested before analysis
var ErrNoAnalysis = errors.New("session has no persona analysis")

// PersonaPlanner runs account persona analysis and hot topic generation
type PersonaPlanner struct {
	aiClient   Completer
	repository storage.Repository
	trends     TrendsContext
	log        *logger.Logger
}

// NewPersonaPlanner creates a new persona planner. trends may be nil.
func NewPersonaPlanner(
	aiClient Completer,
	repository storage.Repository,
	trends TrendsContext,
	log *logger.Logger,
) *PersonaPlanner {
	return &PersonaPlanner{
		aiClient:   aiClient,
		repository: repository,
		trends:     trends,
		log:        log.WithComponent("persona"),
	}
}

// Analyze validates the input, asks for a persona analysis and stores the
// resulting session together with a history row
func (p *PersonaPlanner) Analyze(ctx context.Context, input Input) (*Session, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	userText, err := input.Payload()
	if err != nil {
		return nil, fmt.Errorf("failed to encode input: %w", err)
	}

	p.log.Info().
		Str("account", input.AccountName).
		Str("industry", input.Industry).
		Msg("Starting persona analysis")

	raw, err := p.aiClient.RunTask(ctx, ai.IndustryPersona(input.Industry), ai.TaskPersonaAnalysis, userText)
	if err != nil {
		return nil, fmt.Errorf("persona analysis: %w", err)
	}

	analysis := ai.ParseAnalysis(raw)
	analysis.Risk = compliance.AutoCorrect(analysis.Risk)

	session := &Session{
		Input:       input,
		AnalysisRaw: raw,
		Analysis:    analysis,
		Topics:      []string{},
		ActiveAt:    time.Now(),
	}

	if err := p.save(ctx, session); err != nil {
		return nil, err
	}

	if err := p.repository.SaveHistory(ctx, &models.History{
		AccountName: input.AccountName,
		Industry:    input.Industry,
	}); err != nil {
		p.log.Warn().Err(err).Msg("Failed to save analysis history")
	}

	p.log.WithSession(session.ID).Info().
		Bool("structured", analysis.Structured).
		Int("differentiation", len(analysis.Differentiation)).
		Msg("Persona analysis completed")

	return session, nil
}

// HotTopics generates a batch of topics from the session persona. Calling
// it again replaces the batch. On failure the previous batch is kept.
func (p *PersonaPlanner) HotTopics(ctx context.Context, session *Session) error {
	return p.generateTopics(ctx, session, true)
}

// generateTopics marks the session active only for user requests
func (p *PersonaPlanner) generateTopics(ctx context.Context, session *Session, userDriven bool) error {
	if session.Analysis.Persona == "" {
		return ErrNoAnalysis
	}
	log := p.log.WithSession(session.ID)

	userText := session.Analysis.Persona
	if p.trends != nil {
		if headlines := p.trends.Context(ctx, session.Input.Industry); headlines != "" {
			userText = fmt.Sprintf(ai.TrendsContextTemplate, userText, headlines)
			log.Debug().Msg("Added industry headlines to topic request")
		}
	}

	raw, err := p.aiClient.RunTask(ctx, ai.IndustryPersona(session.Input.Industry), ai.TaskHotTopics, userText)
	if err != nil {
		return fmt.Errorf("hot topics: %w", err)
	}

	now := time.Now()
	session.TopicsRaw = raw
	session.Topics = ai.ParseTopics(raw)
	session.TopicRounds++
	session.TopicsGeneratedAt = &now
	if userDriven {
		session.ActiveAt = now
	}

	if err := p.save(ctx, session); err != nil {
		return err
	}

	log.Info().
		Int("topics", len(session.Topics)).
		Int("round", session.TopicRounds).
		Msg("Generated hot topics")
	return nil
}

// Load fetches a stored session
func (p *PersonaPlanner) Load(ctx context.Context, id string) (*Session, error) {
	r, err := p.repository.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return SessionFromRecord(r), nil
}

func (p *PersonaPlanner) save(ctx context.Context, session *Session) error {
	record := session.Record()
	var err error
	if record.ID == 0 {
		err = p.repository.CreateSession(ctx, record)
	} else {
		err = p.repository.UpdateSession(ctx, record)
	}
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	session.sync()
	return nil
}
