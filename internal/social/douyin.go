package social

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/persona-agent/internal/config"
	"github.com/persona-agent/pkg/logger"
	"github.com/persona-agent/pkg/ratelimit"
)

// Douyin scrapes public 抖音 profile pages
type Douyin struct {
	httpClient  *http.Client
	profileURL  string
	userAgent   string
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// NewDouyin creates a 抖音 profile scraper
func NewDouyin(cfg config.SocialConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Douyin {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Douyin{
		httpClient:  &http.Client{Timeout: timeout},
		profileURL:  cfg.DouyinProfile,
		userAgent:   cfg.UserAgent,
		rateLimiter: limiter,
		log:         log.WithPlatform(PlatformDouyin),
	}
}

func (d *Douyin) Platform() string {
	return PlatformDouyin
}

// Lookup fetches the profile page of an account and reads the nickname,
// follower count and post count from it
func (d *Douyin) Lookup(ctx context.Context, account string) (*AccountStats, error) {
	if d.rateLimiter != nil {
		if err := d.rateLimiter.Wait(ctx, ratelimit.LimiterSocial); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	target := fmt.Sprintf(d.profileURL, url.PathEscape(account))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")

	d.log.Debug().Str("url", target).Msg("Fetching profile")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile request returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile page: %w", err)
	}

	stats := parseDouyinProfile(doc)
	if stats.Nickname == "" && stats.Followers == 0 && stats.Posts == 0 {
		return nil, fmt.Errorf("no profile data found for %q", account)
	}
	stats.Account = account
	stats.Platform = PlatformDouyin
	if stats.Nickname == "" {
		stats.Nickname = account
	}
	return stats, nil
}

func parseDouyinProfile(doc *goquery.Document) *AccountStats {
	stats := &AccountStats{}

	nickname, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	if nickname == "" {
		nickname = doc.Find(`[data-e2e="user-info"] h1`).First().Text()
	}
	if nickname == "" {
		nickname = doc.Find("title").First().Text()
	}
	stats.Nickname = trimTitle(nickname)

	stats.Followers = ParseCount(doc.Find(`[data-e2e="user-info-fans"]`).First().Text())
	stats.Posts = ParseCount(doc.Find(`[data-e2e="user-tab-count"]`).First().Text())
	return stats
}

// page titles look like "昵称的抖音 - 抖音"
func trimTitle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, " - "); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "的抖音")
	return strings.TrimSpace(s)
}

// ParseCount reads a display count such as "12.3万", "1.5w", "2亿" or
// "1,024". Text around the number is ignored; unparsable input yields 0.
func ParseCount(s string) int64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))

	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return 0
	}
	end := start
	for end < len(s) && (s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}

	n, err := strconv.ParseFloat(s[start:end], 64)
	if err != nil {
		return 0
	}

	rest := strings.TrimSpace(s[end:])
	switch {
	case strings.HasPrefix(rest, "亿"):
		n *= 1e8
	case strings.HasPrefix(rest, "万"), strings.HasPrefix(rest, "w"), strings.HasPrefix(rest, "W"):
		n *= 1e4
	case strings.HasPrefix(rest, "k"), strings.HasPrefix(rest, "K"):
		n *= 1e3
	}
	return int64(n + 0.5)
}
