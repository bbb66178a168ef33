package planner

import (
	"time"

	"github.com/persona-agent/internal/ai"
	"github.com/persona-agent/internal/calendar"
	"github.com/persona-agent/internal/models"
)

// Session is the state of one persona planning run. It replaces any
// process-wide UI state: every step takes and returns a Session, and the
// planner persists it after each step.
type Session struct {
	ID                string      `json:"id"`
	Input             Input       `json:"input"`
	AnalysisRaw       string      `json:"analysis_raw"`
	Analysis          ai.Analysis `json:"analysis"`
	TopicsRaw         string      `json:"topics_raw,omitempty"`
	Topics            []string    `json:"topics"`
	TopicRounds       int         `json:"topic_rounds"`
	TopicsGeneratedAt *time.Time  `json:"topics_generated_at,omitempty"`
	ActiveAt          time.Time   `json:"active_at"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	record *models.Session
}

// Calendar schedules the session topics from start
func (s *Session) Calendar(start time.Time, platforms [2]string) []calendar.Entry {
	return calendar.ToCalendar(s.Topics, start, platforms)
}

// HasTopics reports whether hot topics were generated
func (s *Session) HasTopics() bool {
	return len(s.Topics) > 0
}

// Record copies the session into its storage row
func (s *Session) Record() *models.Session {
	if s.record == nil {
		s.record = &models.Session{}
	}
	r := s.record
	r.PublicID = s.ID
	r.Profile = models.Profile(s.Input)
	r.AnalysisRaw = s.AnalysisRaw
	r.Persona = s.Analysis.Persona
	r.Differentiation = s.Analysis.Differentiation
	r.Risk = s.Analysis.Risk
	r.Structured = s.Analysis.Structured
	r.TopicsRaw = s.TopicsRaw
	r.Topics = s.Topics
	r.TopicRounds = s.TopicRounds
	r.TopicsGeneratedAt = s.TopicsGeneratedAt
	r.ActiveAt = s.ActiveAt
	r.Status = models.SessionStatusAnalyzed
	if s.HasTopics() {
		r.Status = models.SessionStatusTopicsReady
	}
	return r
}

// sync reads back fields the store assigned
func (s *Session) sync() {
	if s.record == nil {
		return
	}
	s.ID = s.record.PublicID
	s.CreatedAt = s.record.CreatedAt
	s.UpdatedAt = s.record.UpdatedAt
}

// SessionFromRecord rebuilds a session from its storage row
func SessionFromRecord(r *models.Session) *Session {
	diff := []string(r.Differentiation)
	if diff == nil {
		diff = []string{}
	}
	topics := []string(r.Topics)
	if topics == nil {
		topics = []string{}
	}
	return &Session{
		ID:          r.PublicID,
		Input:       Input(r.Profile),
		AnalysisRaw: r.AnalysisRaw,
		Analysis: ai.Analysis{
			Persona:         r.Persona,
			Differentiation: diff,
			Risk:            r.Risk,
			Structured:      r.Structured,
		},
		TopicsRaw:         r.TopicsRaw,
		Topics:            topics,
		TopicRounds:       r.TopicRounds,
		TopicsGeneratedAt: r.TopicsGeneratedAt,
		ActiveAt:          r.ActiveAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		record:            r,
	}
}
