package storage

import (
	"context"
	"errors"
	"time"

	"github.com/persona-agent/internal/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// Repository defines the interface for data persistence
type Repository interface {
	// Analysis history
	SaveHistory(ctx context.Context, history *models.History) error
	ListHistory(ctx context.Context, filter HistoryFilter) ([]*models.History, error)

	// Planning sessions
	CreateSession(ctx context.Context, session *models.Session) error
	UpdateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, publicID string) (*models.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]*models.Session, error)

	// Content diagnoses
	SaveDiagnosis(ctx context.Context, diagnosis *models.Diagnosis) error
	ListDiagnoses(ctx context.Context, limit int) ([]*models.Diagnosis, error)

	// Maintenance
	Close() error
	Migrate() error
}

// HistoryFilter defines filtering options for history rows
type HistoryFilter struct {
	AccountName *string
	Industry    *string
	Limit       int
	Offset      int
}

// SessionFilter defines filtering options for sessions
type SessionFilter struct {
	Industry     *string
	Status       *models.SessionStatus
	UpdatedSince *time.Time
	ActiveSince  *time.Time
	Limit        int
	Offset       int
	OrderBy      string // "updated_at", "created_at"
	OrderDesc    bool
}

// DefaultHistoryFilter returns a filter with sensible defaults
func DefaultHistoryFilter() HistoryFilter {
	return HistoryFilter{Limit: 50}
}

// DefaultSessionFilter returns a filter with sensible defaults
func DefaultSessionFilter() SessionFilter {
	return SessionFilter{
		Limit:     50,
		OrderBy:   "updated_at",
		OrderDesc: true,
	}
}
