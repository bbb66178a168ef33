package planner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/persona-agent/internal/ai"
	"github.com/persona-agent/internal/models"
	"github.com/persona-agent/internal/scoring"
	"github.com/persona-agent/internal/storage"
	"github.com/persona-agent/internal/storage/sqlite"
	"github.com/persona-agent/pkg/logger"
)

type call struct {
	Persona  string
	Task     string
	UserText string
}

// stubCompleter answers per task name; tasks listed in fail return a
// status failure
type stubCompleter struct {
	mu      sync.Mutex
	replies map[string]string
	fail    map[string]bool
	calls   []call
}

func (s *stubCompleter) RunTask(ctx context.Context, persona, taskName, userText string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call{Persona: persona, Task: taskName, UserText: userText})
	if s.fail[taskName] {
		return "", &ai.Error{Kind: ai.KindStatus, Provider: "stub", StatusCode: 500}
	}
	return s.replies[taskName], nil
}

func (s *stubCompleter) callsFor(task string) []call {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []call
	for _, c := range s.calls {
		if c.Task == task {
			out = append(out, c)
		}
	}
	return out
}

type staticTrends string

func (t staticTrends) Context(ctx context.Context, industry string) string {
	return string(t)
}

func newRepo(t *testing.T) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func validInput() Input {
	return Input{
		AccountName:    "小美成分课",
		Industry:       "美妆",
		CoreAdvantages: models.StringSlice{"化学硕士", " ", "平价测评"},
		TargetAudience: "18-28岁学生党",
		Competitors:    models.StringSlice{"美妆博主A", "美妆博主B"},
		Goal:           GoalTopics,
	}
}

const analysisReply = "```json\n{\"persona\":\"成分党学姐\",\"differentiation\":[\"专业背景\"],\"risk\":\"避免使用最有效等绝对化用语\"}\n```"

func TestInputValidate(t *testing.T) {
	assert.NoError(t, validInput().Validate())

	err := Input{AccountName: " ", CoreAdvantages: models.StringSlice{""}}.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"account_name", "industry", "core_advantages", "target_audience", "competitor_accounts"}, verr.Fields)
}

func TestInputPayload(t *testing.T) {
	payload, err := validInput().Normalize().Payload()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payload, `{"account_name":"小美成分课"`))
	assert.Contains(t, payload, `"core_advantages":["化学硕士","平价测评"]`)
	assert.Contains(t, payload, `"competitor_accounts":["美妆博主A","美妆博主B"]`)
	assert.Contains(t, payload, `"operation_goal":"20个爆款选题"`)
}

func TestLoadInput(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "input.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
account_name: 小美成分课
industry: 美妆
core_advantages:
  - 化学硕士
  - 平价测评
target_audience: 学生党
competitor_accounts: [博主A]
competitor_platform: 抖音
operation_goal: 粉丝增长
`), 0644))
	in, err := LoadInput(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "小美成分课", in.AccountName)
	assert.Equal(t, models.StringSlice{"化学硕士", "平价测评"}, in.CoreAdvantages)
	assert.Equal(t, "抖音", in.CompetitorPlatform)
	assert.NoError(t, in.Validate())

	jsonPath := filepath.Join(dir, "input.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"account_name":"a","industry":"教育","competitor_accounts":["b"]}`), 0644))
	in, err = LoadInput(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "教育", in.Industry)

	_, err = LoadInput(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	repo := newRepo(t)
	stub := &stubCompleter{replies: map[string]string{ai.TaskPersonaAnalysis: analysisReply}}
	p := NewPersonaPlanner(stub, repo, nil, logger.Nop())

	session, err := p.Analyze(context.Background(), validInput())
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)

	assert.Equal(t, "成分党学姐", session.Analysis.Persona)
	assert.Equal(t, []string{"专业背景"}, session.Analysis.Differentiation)
	assert.Equal(t, "避免使用可能有效等建议化用语", session.Analysis.Risk, "risk text is auto-corrected")
	assert.True(t, session.Analysis.Structured)
	assert.Empty(t, session.Topics)

	calls := stub.callsFor(ai.TaskPersonaAnalysis)
	require.Len(t, calls, 1)
	assert.Equal(t, ai.IndustryPersona("美妆"), calls[0].Persona)
	assert.Contains(t, calls[0].UserText, `"industry":"美妆"`)

	loaded, err := p.Load(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.Analysis.Risk, loaded.Analysis.Risk)
	assert.Equal(t, "小美成分课", loaded.Input.AccountName)

	history, err := repo.ListHistory(context.Background(), storage.DefaultHistoryFilter())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "美妆", history[0].Industry)
}

func TestAnalyzeValidationMakesNoCall(t *testing.T) {
	stub := &stubCompleter{}
	p := NewPersonaPlanner(stub, newRepo(t), nil, logger.Nop())

	_, err := p.Analyze(context.Background(), Input{AccountName: "x"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, stub.calls)
}

func TestAnalyzeGatewayFailure(t *testing.T) {
	repo := newRepo(t)
	stub := &stubCompleter{fail: map[string]bool{ai.TaskPersonaAnalysis: true}}
	p := NewPersonaPlanner(stub, repo, nil, logger.Nop())

	_, err := p.Analyze(context.Background(), validInput())
	require.Error(t, err)
	assert.Equal(t, ai.KindStatus, ai.KindOf(err))

	sessions, err := repo.ListSessions(context.Background(), storage.DefaultSessionFilter())
	require.NoError(t, err)
	assert.Empty(t, sessions, "failed analysis is not stored")
}

func TestHotTopicsAndRegenerate(t *testing.T) {
	repo := newRepo(t)
	stub := &stubCompleter{replies: map[string]string{
		ai.TaskPersonaAnalysis: analysisReply,
		ai.TaskHotTopics:       "1. 早八通勤妆\n2. 平价防晒测评\n3. 成分表怎么看",
	}}
	p := NewPersonaPlanner(stub, repo, staticTrends("- 秋冬修护"), logger.Nop())
	ctx := context.Background()

	session, err := p.Analyze(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, p.HotTopics(ctx, session))
	assert.Equal(t, []string{"早八通勤妆", "平价防晒测评", "成分表怎么看"}, session.Topics)
	assert.Equal(t, 1, session.TopicRounds)

	calls := stub.callsFor(ai.TaskHotTopics)
	require.Len(t, calls, 1)
	assert.True(t, strings.HasPrefix(calls[0].UserText, "成分党学姐"))
	assert.Contains(t, calls[0].UserText, "- 秋冬修护")

	stub.replies[ai.TaskHotTopics] = "1. 换一批选题"
	require.NoError(t, p.HotTopics(ctx, session))
	assert.Equal(t, []string{"换一批选题"}, session.Topics)

	loaded, err := p.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"换一批选题"}, loaded.Topics)
	assert.Equal(t, 2, loaded.TopicRounds)

	entries := loaded.Calendar(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), [2]string{"抖音", "小红书"})
	require.Len(t, entries, 1)
	assert.Equal(t, "抖音", entries[0].Platform)
}

func TestHotTopicsFailureKeepsPreviousBatch(t *testing.T) {
	stub := &stubCompleter{replies: map[string]string{
		ai.TaskPersonaAnalysis: analysisReply,
		ai.TaskHotTopics:       "1. 旧选题",
	}}
	p := NewPersonaPlanner(stub, newRepo(t), nil, logger.Nop())
	ctx := context.Background()

	session, err := p.Analyze(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, p.HotTopics(ctx, session))

	stub.fail = map[string]bool{ai.TaskHotTopics: true}
	err = p.HotTopics(ctx, session)
	require.Error(t, err)
	assert.Equal(t, ai.KindStatus, ai.KindOf(err))
	assert.Equal(t, []string{"旧选题"}, session.Topics)
}

func TestHotTopicsRequiresAnalysis(t *testing.T) {
	p := NewPersonaPlanner(&stubCompleter{}, newRepo(t), nil, logger.Nop())
	err := p.HotTopics(context.Background(), &Session{})
	assert.ErrorIs(t, err, ErrNoAnalysis)
}

func TestDiagnose(t *testing.T) {
	repo := newRepo(t)
	stub := &stubCompleter{
		replies: map[string]string{
			ai.TaskOptimizeCopy: "优化后的文案",
			ai.TaskHashtags:     "#话题",
			ai.TaskPostingTime:  "晚上8点",
		},
		fail: map[string]bool{ai.TaskViralTitle: true},
	}
	d := NewDiagnoser(stub, repo, logger.Nop())

	text := "这是最好的营销文案，结合市场和行业分析"
	diag, err := d.Diagnose(context.Background(), text)
	require.NoError(t, err)
	require.NotZero(t, diag.ID)

	score, ok := diag.Scores.Get("文案能力")
	require.True(t, ok)
	assert.Equal(t, 20.0, score)
	assert.InDelta(t, 7.2, diag.Aggregate, 1e-9)
	last := diag.Scores[len(diag.Scores)-1]
	assert.Equal(t, scoring.ViralPotential, last.Name)

	require.Len(t, diag.Outputs, 4)
	for i, task := range DiagnosisTasks {
		assert.Equal(t, task, diag.Outputs[i].Task)
		assert.Equal(t, ai.PersonaAssistant, stub.callsFor(task)[0].Persona)
	}
	title, _ := diag.Output(ai.TaskViralTitle)
	assert.Equal(t, ai.KindStatus, title.Kind)
	assert.Equal(t, "[status] 未生成标题", title.Display())
	optimized, _ := diag.Output(ai.TaskOptimizeCopy)
	assert.Equal(t, "优化后的文案", optimized.Display())
	assert.False(t, diag.Failed())

	require.Len(t, diag.RiskWords, 1)
	assert.Equal(t, "最", diag.RiskWords[0].Word)

	rows, err := repo.ListDiagnoses(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "status", rows[0].Failures[ai.TaskViralTitle])
	assert.Equal(t, "#话题", rows[0].Hashtags)
	assert.Empty(t, rows[0].Title)
}

func TestDiagnoseBlankText(t *testing.T) {
	stub := &stubCompleter{}
	d := NewDiagnoser(stub, newRepo(t), logger.Nop())
	_, err := d.Diagnose(context.Background(), "  \n")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Empty(t, stub.calls)
}

func TestStrategyPlan(t *testing.T) {
	stub := &stubCompleter{replies: map[string]string{
		ai.TaskBrandAnalysis:   "B",
		ai.TaskProductAnalysis: "P",
		ai.TaskNeedsAnalysis:   "N",
		ai.TaskChannelAnalysis: "C",
		ai.TaskStrategy:        "PLAN",
	}}
	s := NewStrategist(stub, logger.Nop())

	brief := BrandBrief{BrandInfo: "品牌", ProductInfo: "产品", BrandNeeds: "需求", Channels: "渠道"}
	result, err := s.Plan(context.Background(), brief)
	require.NoError(t, err)
	assert.Equal(t, "PLAN", result.Plan)

	brand := stub.callsFor(ai.TaskBrandAnalysis)
	require.Len(t, brand, 1)
	assert.Equal(t, ai.PersonaBrandAnalyst, brand[0].Persona)
	assert.Equal(t, "品牌", brand[0].UserText)

	final := stub.callsFor(ai.TaskStrategy)
	require.Len(t, final, 1)
	assert.Equal(t, ai.PersonaOperator, final[0].Persona)
	assert.True(t, strings.HasPrefix(final[0].UserText, "品牌分析:\nB\n\n产品分析:\nP"))
}

func TestStrategyStopsOnFailedStage(t *testing.T) {
	stub := &stubCompleter{
		replies: map[string]string{ai.TaskBrandAnalysis: "B"},
		fail:    map[string]bool{ai.TaskProductAnalysis: true},
	}
	s := NewStrategist(stub, logger.Nop())

	result, err := s.Plan(context.Background(), BrandBrief{BrandInfo: "a", ProductInfo: "b", BrandNeeds: "c", Channels: "d"})
	require.Error(t, err)
	assert.Equal(t, ai.KindStatus, ai.KindOf(err))
	assert.Equal(t, "B", result.BrandAnalysis)
	assert.Empty(t, stub.callsFor(ai.TaskStrategy))
}

func TestStrategyValidation(t *testing.T) {
	_, err := NewStrategist(&stubCompleter{}, logger.Nop()).Plan(context.Background(), BrandBrief{BrandInfo: "x"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"product_info", "brand_needs", "promotion_channels"}, verr.Fields)
}

func TestRefresh(t *testing.T) {
	repo := newRepo(t)
	stub := &stubCompleter{replies: map[string]string{
		ai.TaskPersonaAnalysis: analysisReply,
		ai.TaskHotTopics:       "1. 第一批",
	}}
	p := NewPersonaPlanner(stub, repo, nil, logger.Nop())
	ctx := context.Background()

	withTopics, err := p.Analyze(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, p.HotTopics(ctx, withTopics))

	_, err = p.Analyze(ctx, validInput())
	require.NoError(t, err)

	stub.replies[ai.TaskHotTopics] = "1. 第二批"
	result, err := p.Refresh(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, result.Refreshed, 1, "only sessions with topics are refreshed")
	assert.Equal(t, withTopics.ID, result.Refreshed[0].ID)
	assert.Equal(t, []string{"第二批"}, result.Refreshed[0].Topics)
	assert.Empty(t, result.Errors)

	result, err = p.Refresh(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, result.Refreshed)
}

func TestRefreshDoesNotExtendActivityWindow(t *testing.T) {
	repo := newRepo(t)
	stub := &stubCompleter{replies: map[string]string{
		ai.TaskPersonaAnalysis: analysisReply,
		ai.TaskHotTopics:       "1. 第一批",
	}}
	p := NewPersonaPlanner(stub, repo, nil, logger.Nop())
	ctx := context.Background()

	session, err := p.Analyze(ctx, validInput())
	require.NoError(t, err)
	require.NoError(t, p.HotTopics(ctx, session))
	activeAt := session.ActiveAt
	require.False(t, activeAt.IsZero())

	time.Sleep(10 * time.Millisecond)
	afterActivity := time.Now()

	result, err := p.Refresh(ctx, activeAt.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, result.Refreshed, 1)
	assert.Equal(t, 2, result.Refreshed[0].TopicRounds)

	stored, err := p.Load(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, stored.ActiveAt.Equal(activeAt), "refresh leaves the activity time alone")

	result, err = p.Refresh(ctx, afterActivity)
	require.NoError(t, err)
	assert.Empty(t, result.Refreshed, "a refreshed session must not stay inside a window that starts after the user's last activity")
	assert.Len(t, stub.callsFor(ai.TaskHotTopics), 2)

	require.NoError(t, p.HotTopics(ctx, stored))
	result, err = p.Refresh(ctx, afterActivity)
	require.NoError(t, err)
	assert.Len(t, result.Refreshed, 1, "a user request puts the session back in the window")
}

func TestLoadBrief(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brief.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
brand_info: 国货护肤
product_info: 修护面霜
brand_needs: 提升复购
promotion_channels: 小红书, 抖音
`), 0644))

	b, err := LoadBrief(path)
	require.NoError(t, err)
	assert.Equal(t, "修护面霜", b.ProductInfo)
	assert.Equal(t, "小红书, 抖音", b.Channels)
	assert.NoError(t, b.Validate())
}
