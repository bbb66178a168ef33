package trends

import (
	"context"
	"sort"
	"strings"

	"github.com/persona-agent/internal/config"
	"github.com/persona-agent/pkg/logger"
	"github.com/persona-agent/pkg/ratelimit"
)

// Service groups trend sources by industry
type Service struct {
	sources  map[string][]Source
	maxItems int
	log      *logger.Logger
}

// NewService builds feed and keyword sources from config
func NewService(cfg config.TrendsConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Service {
	s := &Service{
		sources:  make(map[string][]Source),
		maxItems: cfg.MaxItems,
		log:      log.WithComponent("trends"),
	}
	for industry, urls := range cfg.Feeds {
		for _, u := range urls {
			s.Register(industry, NewRSS(u, cfg.MaxAge, limiter, log))
		}
	}
	for industry, keywords := range cfg.Keywords {
		if len(keywords) > 0 {
			s.Register(industry, NewKeywords(industry, keywords))
		}
	}
	return s
}

// Register adds a source for an industry
func (s *Service) Register(industry string, source Source) {
	s.sources[industry] = append(s.sources[industry], source)
}

// Headlines returns the newest unique headlines for an industry. Failing
// sources are logged and skipped.
func (s *Service) Headlines(ctx context.Context, industry string) []Headline {
	sources := s.sources[industry]
	if len(sources) == 0 {
		return nil
	}

	all, errs := FetchAll(ctx, sources)
	for _, err := range errs {
		s.log.Warn().Err(err).Str("industry", industry).Msg("Trend source failed")
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})

	seen := make(map[string]bool, len(all))
	out := make([]Headline, 0, len(all))
	for _, h := range all {
		if seen[h.Title] {
			continue
		}
		seen[h.Title] = true
		out = append(out, h)
		if s.maxItems > 0 && len(out) == s.maxItems {
			break
		}
	}
	return out
}

// Context renders the headlines of an industry as a bullet list, or "" when
// there are none
func (s *Service) Context(ctx context.Context, industry string) string {
	headlines := s.Headlines(ctx, industry)
	if len(headlines) == 0 {
		return ""
	}
	var b strings.Builder
	for i, h := range headlines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(h.Title)
	}
	return b.String()
}
