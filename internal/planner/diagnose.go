package planner

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/persona-agent/internal/ai"
	"github.com/persona-agent/internal/compliance"
	"github.com/persona-agent/internal/models"
	"github.com/persona-agent/internal/scoring"
	"github.com/persona-agent/internal/storage"
	"github.com/persona-agent/pkg/logger"
)

// DiagnosisTasks are the gateway calls issued for every diagnosis, in
// display order
var DiagnosisTasks = []string{
	ai.TaskOptimizeCopy,
	ai.TaskViralTitle,
	ai.TaskHashtags,
	ai.TaskPostingTime,
}

// Output is the outcome of one gateway call
type Output struct {
	Task string  `json:"task"`
	Text string  `json:"text,omitempty"`
	Kind ai.Kind `json:"failure,omitempty"`
	Err  error   `json:"-"`
}

// Display returns the text, or the task placeholder tagged with the failure kind
func (o Output) Display() string {
	return ai.TextOr(o.Text, o.Err, ai.Fallback(o.Task))
}

// Diagnosis is the full result of a content diagnosis
type Diagnosis struct {
	ID        uint                 `json:"id"`
	Text      string               `json:"text"`
	Scores    scoring.Result       `json:"scores"`
	Aggregate float64              `json:"aggregate"`
	Outputs   []Output             `json:"outputs"`
	RiskWords []compliance.Finding `json:"risk_words"`
	CreatedAt time.Time            `json:"created_at"`
}

// Output returns the outcome of a task
func (d *Diagnosis) Output(task string) (Output, bool) {
	for _, o := range d.Outputs {
		if o.Task == task {
			return o, true
		}
	}
	return Output{}, false
}

// Failed reports whether every gateway call failed
func (d *Diagnosis) Failed() bool {
	for _, o := range d.Outputs {
		if o.Err == nil {
			return false
		}
	}
	return len(d.Outputs) > 0
}

// Diagnoser scores content locally and asks the gateway for improvements
type Diagnoser struct {
	aiClient   Completer
	repository storage.Repository
	table      scoring.Table
	log        *logger.Logger
}

// NewDiagnoser creates a diagnoser using the default score table
func NewDiagnoser(aiClient Completer, repository storage.Repository, log *logger.Logger) *Diagnoser {
	return &Diagnoser{
		aiClient:   aiClient,
		repository: repository,
		table:      scoring.DiagnosisTable,
		log:        log.WithComponent("diagnosis"),
	}
}

// Diagnose scores text, issues the four improvement requests concurrently
// and stores the result. Each request succeeds or fails on its own; only
// blank text or a storage failure fails the call.
func (d *Diagnoser) Diagnose(ctx context.Context, text string) (*Diagnosis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Fields: []string{"text"}}
	}

	scores := scoring.Score(text, d.table, scoring.WithAggregate(scoring.ViralPotential))
	aggregate, _ := scores.Get(scoring.ViralPotential)

	outputs := make([]Output, len(DiagnosisTasks))
	var wg sync.WaitGroup
	for i, task := range DiagnosisTasks {
		wg.Add(1)
		go func(i int, task string) {
			defer wg.Done()
			out, err := d.aiClient.RunTask(ctx, ai.PersonaAssistant, task, text)
			outputs[i] = Output{Task: task, Text: out, Kind: ai.KindOf(err), Err: err}
		}(i, task)
	}
	wg.Wait()

	diagnosis := &Diagnosis{
		Text:      text,
		Scores:    scores,
		Aggregate: aggregate,
		Outputs:   outputs,
		RiskWords: compliance.Findings(text),
	}

	record := diagnosis.record()
	if err := d.repository.SaveDiagnosis(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save diagnosis: %w", err)
	}
	diagnosis.ID = record.ID
	diagnosis.CreatedAt = record.CreatedAt

	failed := 0
	for _, o := range outputs {
		if o.Err != nil {
			failed++
		}
	}
	d.log.Info().
		Float64("aggregate", aggregate).
		Int("failed_calls", failed).
		Int("risk_words", len(diagnosis.RiskWords)).
		Msg("Content diagnosis completed")

	return diagnosis, nil
}

func (d *Diagnosis) record() *models.Diagnosis {
	scores := make(models.JSON, len(d.Scores))
	for _, s := range d.Scores {
		scores[s.Name] = s.Score
	}
	failures := models.JSON{}
	texts := make(map[string]string, len(d.Outputs))
	for _, o := range d.Outputs {
		if o.Err != nil {
			failures[o.Task] = string(o.Kind)
			continue
		}
		texts[o.Task] = o.Text
	}
	words := make(models.StringSlice, 0, len(d.RiskWords))
	for _, f := range d.RiskWords {
		words = append(words, f.Word)
	}
	return &models.Diagnosis{
		Text:        d.Text,
		Scores:      scores,
		Aggregate:   d.Aggregate,
		Optimized:   texts[ai.TaskOptimizeCopy],
		Title:       texts[ai.TaskViralTitle],
		Hashtags:    texts[ai.TaskHashtags],
		PostingTime: texts[ai.TaskPostingTime],
		Failures:    failures,
		RiskWords:   words,
	}
}
