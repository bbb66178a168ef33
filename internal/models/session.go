package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SessionStatus represents how far a planning session has progressed
type SessionStatus string

const (
	SessionStatusAnalyzed    SessionStatus = "analyzed"
	SessionStatusTopicsReady SessionStatus = "topics_ready"
)

// Profile describes the account being planned
type Profile struct {
	AccountName        string      `gorm:"size:255;index" json:"account_name" yaml:"account_name"`
	Industry           string      `gorm:"size:50;index" json:"industry" yaml:"industry"`
	CoreAdvantages     StringSlice `gorm:"type:json" json:"core_advantages" yaml:"core_advantages"`
	TargetAudience     string      `gorm:"type:text" json:"target_audience" yaml:"target_audience"`
	Competitors        StringSlice `gorm:"type:json" json:"competitor_accounts" yaml:"competitor_accounts"`
	CompetitorPlatform string      `gorm:"size:50" json:"competitor_platform" yaml:"competitor_platform"`
	Goal               string      `gorm:"size:50" json:"operation_goal" yaml:"operation_goal"`
}

// Session is the stored state of one persona planning run
type Session struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"size:36;uniqueIndex;not null" json:"id"`
	Profile  `gorm:"embedded"`

	AnalysisRaw     string      `gorm:"type:text" json:"analysis_raw"`
	Persona         string      `gorm:"type:text" json:"persona"`
	Differentiation StringSlice `gorm:"type:json" json:"differentiation"`
	Risk            string      `gorm:"type:text" json:"risk"`
	Structured      bool        `json:"structured"`

	TopicsRaw         string      `gorm:"type:text" json:"topics_raw"`
	Topics            StringSlice `gorm:"type:json" json:"topics"`
	TopicRounds       int         `gorm:"default:0" json:"topic_rounds"`
	TopicsGeneratedAt *time.Time  `json:"topics_generated_at"`

	// ActiveAt is the last user-driven change; scheduled refreshes leave it alone
	ActiveAt time.Time `gorm:"index" json:"active_at"`

	Status    SessionStatus `gorm:"size:20;index;default:'analyzed'" json:"status"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime;index" json:"updated_at"`
}

// BeforeCreate assigns a public ID when none was set
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.PublicID == "" {
		s.PublicID = uuid.NewString()
	}
	return nil
}

// HasTopics reports whether hot topics were generated
func (s *Session) HasTopics() bool {
	return len(s.Topics) > 0
}
