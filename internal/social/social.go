// Package social looks up public competitor account statistics.
package social

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/persona-agent/internal/config"
	"github.com/persona-agent/pkg/logger"
	"github.com/persona-agent/pkg/ratelimit"
)

// Platform labels
const (
	PlatformDouyin      = "抖音"
	PlatformXiaohongshu = "小红书"
	PlatformShipinhao   = "视频号"
)

// UnknownNickname is shown for accounts whose lookup failed
const UnknownNickname = "未知"

// ErrUnsupported is returned by platforms without a lookup implementation
var ErrUnsupported = errors.New("account lookup not supported")

// AccountStats are the public numbers of one account
type AccountStats struct {
	Account   string `json:"account"`
	Nickname  string `json:"nickname"`
	Platform  string `json:"platform"`
	Followers int64  `json:"followers"`
	Posts     int64  `json:"posts"`
}

// Fetcher looks up accounts on one platform
type Fetcher interface {
	// Platform returns the platform label this fetcher serves
	Platform() string

	// Lookup retrieves the public stats of an account
	Lookup(ctx context.Context, account string) (*AccountStats, error)
}

// Result is the outcome of one account lookup
type Result struct {
	Account string        `json:"account"`
	Stats   *AccountStats `json:"stats,omitempty"`
	Err     error         `json:"-"`
}

// Comparison holds lookups in the order the accounts were given
type Comparison struct {
	Platform string   `json:"platform"`
	Results  []Result `json:"results"`
}

// Rows returns one row per account. Failed lookups keep the account with an
// unknown nickname and zero counts.
func (c *Comparison) Rows() []AccountStats {
	rows := make([]AccountStats, 0, len(c.Results))
	for _, r := range c.Results {
		if r.Stats != nil {
			rows = append(rows, *r.Stats)
			continue
		}
		rows = append(rows, AccountStats{
			Account:  r.Account,
			Nickname: UnknownNickname,
			Platform: c.Platform,
		})
	}
	return rows
}

// Errors returns the per-account failures
func (c *Comparison) Errors() []error {
	var errs []error
	for _, r := range c.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Account, r.Err))
		}
	}
	return errs
}

// Manager dispatches lookups to the fetcher of each platform
type Manager struct {
	fetchers       map[string]Fetcher
	maxConcurrency int
	log            *logger.Logger
}

// NewManager creates an empty manager
func NewManager(maxConcurrency int, log *logger.Logger) *Manager {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Manager{
		fetchers:       make(map[string]Fetcher),
		maxConcurrency: maxConcurrency,
		log:            log.WithComponent("social"),
	}
}

// NewDefaultManager registers the 抖音 scraper and placeholders for the
// platforms without one
func NewDefaultManager(cfg config.SocialConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Manager {
	m := NewManager(cfg.MaxConcurrency, log)
	m.Register(NewDouyin(cfg, limiter, log))
	m.Register(Unsupported(PlatformXiaohongshu))
	m.Register(Unsupported(PlatformShipinhao))
	return m
}

// Register adds a fetcher, replacing any fetcher for the same platform
func (m *Manager) Register(f Fetcher) {
	m.fetchers[f.Platform()] = f
}

// Platforms returns the registered platform labels, sorted
func (m *Manager) Platforms() []string {
	out := make([]string, 0, len(m.fetchers))
	for p := range m.fetchers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Compare looks up every account concurrently. Individual failures are
// reported in the Comparison; only an unknown platform or an empty account
// list fails the whole call.
func (m *Manager) Compare(ctx context.Context, platform string, accounts []string) (*Comparison, error) {
	fetcher, ok := m.fetchers[platform]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q (known: %s)", platform, strings.Join(m.Platforms(), ", "))
	}

	accounts = CleanAccounts(accounts)
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no competitor accounts given")
	}

	type indexed struct {
		i int
		Result
	}

	results := make(chan indexed, len(accounts))
	sem := make(chan struct{}, m.maxConcurrency)

	for i, account := range accounts {
		go func(i int, account string) {
			sem <- struct{}{}
			defer func() { <-sem }()

			stats, err := fetcher.Lookup(ctx, account)
			results <- indexed{i: i, Result: Result{Account: account, Stats: stats, Err: err}}
		}(i, account)
	}

	cmp := &Comparison{Platform: platform, Results: make([]Result, len(accounts))}
	failed := 0
	for range accounts {
		r := <-results
		if r.Err != nil {
			r.Stats = nil
			failed++
		}
		cmp.Results[r.i] = r.Result
	}

	m.log.Info().
		Str("platform", platform).
		Int("accounts", len(accounts)).
		Int("failed", failed).
		Msg("Compared competitor accounts")

	return cmp, nil
}

// CleanAccounts trims names and drops blanks
func CleanAccounts(accounts []string) []string {
	out := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

type unsupported struct {
	platform string
}

// Unsupported returns a fetcher whose lookups always fail with ErrUnsupported
func Unsupported(platform string) Fetcher {
	return unsupported{platform: platform}
}

func (u unsupported) Platform() string {
	return u.platform
}

func (u unsupported) Lookup(ctx context.Context, account string) (*AccountStats, error) {
	return nil, fmt.Errorf("%s: %w", u.platform, ErrUnsupported)
}
