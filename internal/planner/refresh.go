package planner

import (
	"context"
	"time"

	"github.com/persona-agent/internal/models"
	"github.com/persona-agent/internal/storage"
)

// RefreshResult summarizes a scheduled topic refresh
type RefreshResult struct {
	Refreshed []*Session
	Errors    []error
	Duration  time.Duration
}

// Refresh regenerates hot topics for every session that already has topics
// and saw user activity after since. Refreshing does not count as activity,
// so a session drops out once its window has passed. A failing session is
// reported and skipped.
func (p *PersonaPlanner) Refresh(ctx context.Context, since time.Time) (*RefreshResult, error) {
	start := time.Now()
	status := models.SessionStatusTopicsReady
	filter := storage.SessionFilter{
		Status:      &status,
		ActiveSince: &since,
		OrderBy:     "updated_at",
	}

	rows, err := p.repository.ListSessions(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := &RefreshResult{}
	for _, row := range rows {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, ctx.Err())
			break
		}
		session := SessionFromRecord(row)
		if err := p.generateTopics(ctx, session, false); err != nil {
			p.log.WithSession(session.ID).Warn().Err(err).Msg("Failed to refresh topics")
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Refreshed = append(result.Refreshed, session)
	}

	result.Duration = time.Since(start)
	p.log.Info().
		Int("sessions", len(rows)).
		Int("refreshed", len(result.Refreshed)).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration).
		Msg("Topic refresh completed")
	return result, nil
}
