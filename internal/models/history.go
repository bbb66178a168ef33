package models

import "time"

// History is one analysis run, kept in the legacy histories table
type History struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AccountName string    `gorm:"size:255;index" json:"account_name"`
	Industry    string    `gorm:"size:50" json:"industry"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (History) TableName() string {
	return "histories"
}
