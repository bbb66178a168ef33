package models

import "time"

// Diagnosis is a stored content diagnosis. Gateway outputs that failed are
// empty and their failure kind is recorded in Failures.
type Diagnosis struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Text        string      `gorm:"type:text;not null" json:"text"`
	Scores      JSON        `gorm:"type:json" json:"scores"`
	Aggregate   float64     `json:"aggregate"`
	Optimized   string      `gorm:"type:text" json:"optimized"`
	Title       string      `gorm:"type:text" json:"title"`
	Hashtags    string      `gorm:"type:text" json:"hashtags"`
	PostingTime string      `gorm:"type:text" json:"posting_time"`
	Failures    JSON        `gorm:"type:json" json:"failures"`
	RiskWords   StringSlice `gorm:"type:json" json:"risk_words"`
	CreatedAt   time.Time   `gorm:"autoCreateTime;index" json:"created_at"`
}
