// Package calendar turns generated topics into a dated, per-platform
// publishing schedule and exports it.
package calendar

import "time"

// DateLayout is used wherever a calendar date is rendered as text
const DateLayout = "2006-01-02"

// DefaultPlatforms alternate by position: even rows first, odd rows second
var DefaultPlatforms = [2]string{"抖音", "小红书"}

// Entry is one scheduled topic
type Entry struct {
	Date     time.Time `json:"date"`
	Topic    string    `json:"topic"`
	Platform string    `json:"platform"`
}

// ToCalendar schedules one topic per day starting at start. Entry i gets
// platforms[i%2]. Zero topics yield an empty, non-nil slice.
func ToCalendar(topics []string, start time.Time, platforms [2]string) []Entry {
	entries := make([]Entry, 0, len(topics))
	for i, topic := range topics {
		entries = append(entries, Entry{
			Date:     start.AddDate(0, 0, i),
			Topic:    topic,
			Platform: platforms[i%2],
		})
	}
	return entries
}
