package models

import (
	"time"
)

// Composition logs one composer request: the prompt, what the model wrote and
// what it cost.
type Composition struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UserID          string    `gorm:"index" json:"user_id,omitempty"`
	RequestID       string    `gorm:"index" json:"request_id"`
	Provider        string    `gorm:"not null" json:"provider"`
	Model           string    `gorm:"not null" json:"model"`
	Prompt          string    `gorm:"type:text" json:"prompt"`
	Notation        string    `gorm:"type:text" json:"notation"`
	Beats           float64   `json:"beats"`
	Attempts        int       `gorm:"not null" json:"attempts"`
	Valid           bool      `gorm:"default:false" json:"valid"`
	TotalTokens     int       `gorm:"not null" json:"total_tokens"`
	InputTokens     int       `gorm:"not null" json:"input_tokens"`
	OutputTokens    int       `gorm:"not null" json:"output_tokens"`
	ReasoningTokens int       `gorm:"default:0" json:"reasoning_tokens"`
	CostUSD         float64   `json:"cost_usd"`
	DurationMS      int       `gorm:"not null" json:"duration_ms"`
}
