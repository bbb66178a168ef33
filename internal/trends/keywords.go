package trends

import (
	"context"
	"time"
)

// Keywords returns configured seed keywords as headlines
type Keywords struct {
	industry string
	keywords []string
}

// NewKeywords creates a keyword source for an industry
func NewKeywords(industry string, keywords []string) *Keywords {
	return &Keywords{industry: industry, keywords: keywords}
}

func (s *Keywords) Name() string {
	return "keywords:" + s.industry
}

// Fetch returns the keywords with a zero publish time so that they rank
// after every dated feed item
func (s *Keywords) Fetch(ctx context.Context) ([]Headline, error) {
	headlines := make([]Headline, 0, len(s.keywords))
	for _, k := range s.keywords {
		headlines = append(headlines, Headline{
			ID:          HeadlineID(s.Name(), k),
			Title:       k,
			Source:      s.Name(),
			PublishedAt: time.Time{},
		})
	}
	return headlines, nil
}
