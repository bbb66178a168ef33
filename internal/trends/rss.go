package trends

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/persona-agent/pkg/logger"
	"github.com/persona-agent/pkg/ratelimit"
)

// RSS reads headlines from a single feed
type RSS struct {
	url         string
	maxAge      time.Duration
	parser      *gofeed.Parser
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// NewRSS creates a feed source. Items older than maxAge are skipped.
func NewRSS(url string, maxAge time.Duration, limiter *ratelimit.MultiLimiter, log *logger.Logger) *RSS {
	return &RSS{
		url:         url,
		maxAge:      maxAge,
		parser:      gofeed.NewParser(),
		rateLimiter: limiter,
		log:         log.WithComponent("rss"),
	}
}

func (s *RSS) Name() string {
	return s.url
}

// Fetch retrieves headlines from the feed
func (s *RSS) Fetch(ctx context.Context) ([]Headline, error) {
	if s.rateLimiter != nil {
		if err := s.rateLimiter.Wait(ctx, ratelimit.LimiterRSS); err != nil {
			return nil, err
		}
	}

	s.log.Debug().Str("url", s.url).Msg("Fetching RSS feed")

	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed %s: %w", s.url, err)
	}

	source := feed.Title
	if source == "" {
		source = s.url
	}

	headlines := make([]Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		publishedAt := time.Now()
		if item.PublishedParsed != nil {
			publishedAt = *item.PublishedParsed
			if s.maxAge > 0 && time.Since(publishedAt) > s.maxAge {
				continue
			}
		}

		title := cleanText(item.Title)
		if title == "" {
			continue
		}

		headlines = append(headlines, Headline{
			ID:          HeadlineID(source, title),
			Title:       title,
			URL:         item.Link,
			Source:      source,
			PublishedAt: publishedAt,
		})
	}

	s.log.Info().
		Int("count", len(headlines)).
		Str("feed", source).
		Msg("Fetched RSS headlines")

	return headlines, nil
}

// cleanText removes HTML markup and collapses whitespace
func cleanText(text string) string {
	if strings.ContainsRune(text, '<') {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = doc.Text()
		}
	}
	return strings.Join(strings.Fields(text), " ")
}
