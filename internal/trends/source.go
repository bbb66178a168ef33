// Package trends collects recent industry headlines that are handed to the
// hot-topic prompt as context.
package trends

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

// Headline is one recent item from a trend source
type Headline struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// Source defines the interface for headline sources
type Source interface {
	// Name returns the unique name of this source
	Name() string

	// Fetch retrieves recent headlines
	Fetch(ctx context.Context) ([]Headline, error)
}

// HeadlineID creates a stable ID from the source and title
func HeadlineID(source, title string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", source, title)))
	return fmt.Sprintf("%x", hash[:8])
}

// FetchAll fetches from all sources concurrently. Failing sources are
// reported and the rest are kept.
func FetchAll(ctx context.Context, sources []Source) ([]Headline, []error) {
	type result struct {
		headlines []Headline
		err       error
	}

	results := make(chan result, len(sources))

	for _, source := range sources {
		go func(s Source) {
			headlines, err := s.Fetch(ctx)
			results <- result{headlines: headlines, err: err}
		}(source)
	}

	var all []Headline
	var errs []error

	for range sources {
		r := <-results
		if r.err != nil {
			errs = append(errs, r.err)
		} else {
			all = append(all, r.headlines...)
		}
	}

	return all, errs
}
