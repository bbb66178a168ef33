package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persona-agent/internal/models"
	"github.com/persona-agent/internal/storage"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestHistory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveHistory(ctx, &models.History{AccountName: "小美", Industry: "美妆"}))
	require.NoError(t, repo.SaveHistory(ctx, &models.History{AccountName: "数码君", Industry: "3C数码"}))
	require.NoError(t, repo.SaveHistory(ctx, &models.History{AccountName: "小美", Industry: "美妆"}))

	all, err := repo.ListHistory(ctx, storage.DefaultHistoryFilter())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint(3), all[0].ID, "newest first")
	assert.False(t, all[0].CreatedAt.IsZero())

	name := "小美"
	mine, err := repo.ListHistory(ctx, storage.HistoryFilter{AccountName: &name})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestSessionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := &models.Session{
		Profile: models.Profile{
			AccountName:    "小美",
			Industry:       "美妆",
			CoreAdvantages: models.StringSlice{"成分党", "平价"},
			Goal:           "粉丝增长",
		},
		Persona: "成分党学姐",
		Status:  models.SessionStatusAnalyzed,
	}
	require.NoError(t, repo.CreateSession(ctx, s))
	require.NotEmpty(t, s.PublicID)
	require.NotZero(t, s.ID)

	got, err := repo.GetSession(ctx, s.PublicID)
	require.NoError(t, err)
	assert.Equal(t, "成分党学姐", got.Persona)
	assert.Equal(t, models.StringSlice{"成分党", "平价"}, got.CoreAdvantages)
	assert.False(t, got.HasTopics())

	now := time.Now()
	got.Topics = models.StringSlice{"选题一", "选题二"}
	got.TopicRounds = 1
	got.TopicsGeneratedAt = &now
	got.Status = models.SessionStatusTopicsReady
	require.NoError(t, repo.UpdateSession(ctx, got))

	again, err := repo.GetSession(ctx, s.PublicID)
	require.NoError(t, err)
	assert.Equal(t, models.StringSlice{"选题一", "选题二"}, again.Topics)
	assert.Equal(t, models.SessionStatusTopicsReady, again.Status)
	assert.True(t, again.HasTopics())
}

func TestGetSessionNotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateSessionRequiresCreate(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.UpdateSession(context.Background(), &models.Session{PublicID: "x"})
	assert.Error(t, err)
}

func TestListSessionsFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, industry := range []string{"美妆", "教育", "美妆"} {
		require.NoError(t, repo.CreateSession(ctx, &models.Session{
			Profile: models.Profile{AccountName: "a", Industry: industry},
			Status:  models.SessionStatusAnalyzed,
		}))
	}

	beauty := "美妆"
	rows, err := repo.ListSessions(ctx, storage.SessionFilter{Industry: &beauty})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	all, err := repo.ListSessions(ctx, storage.DefaultSessionFilter())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Greater(t, all[0].ID, all[2].ID)

	future := time.Now().Add(time.Hour)
	none, err := repo.ListSessions(ctx, storage.SessionFilter{UpdatedSince: &future})
	require.NoError(t, err)
	assert.Empty(t, none)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, repo.CreateSession(ctx, &models.Session{
		Profile:  models.Profile{AccountName: "active", Industry: "教育"},
		ActiveAt: time.Now(),
	}))
	active, err := repo.ListSessions(ctx, storage.SessionFilter{ActiveSince: &past})
	require.NoError(t, err)
	require.Len(t, active, 1, "sessions without user activity are excluded")
	assert.Equal(t, "active", active[0].AccountName)

	limited, err := repo.ListSessions(ctx, storage.SessionFilter{Limit: 1, OrderBy: "id; DROP TABLE sessions"})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDiagnoses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	d := &models.Diagnosis{
		Text:      "最好用的面霜",
		Scores:    models.JSON{"情绪价值": 0.0, "爆款潜质": 2.0},
		Aggregate: 2,
		Failures:  models.JSON{"viral_title": "status"},
		RiskWords: models.StringSlice{"最"},
	}
	require.NoError(t, repo.SaveDiagnosis(ctx, d))
	require.NoError(t, repo.SaveDiagnosis(ctx, &models.Diagnosis{Text: "second"}))

	rows, err := repo.ListDiagnoses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "second", rows[0].Text)
	assert.Equal(t, "status", rows[1].Failures["viral_title"])
	assert.Equal(t, 2.0, rows[1].Scores["爆款潜质"])
	assert.Equal(t, models.StringSlice{"最"}, rows[1].RiskWords)
}
