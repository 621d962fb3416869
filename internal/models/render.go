package models

import (
	"time"
)

// Render records one synthesis request. The WAV itself lives in blob storage
// (or was only returned inline, in which case Location is empty).
type Render struct {
	ID              string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UserID          string    `gorm:"index" json:"user_id,omitempty"`
	RequestID       string    `gorm:"index" json:"request_id,omitempty"`
	EventCount      int       `gorm:"not null" json:"event_count"`
	TrackCount      int       `gorm:"default:0" json:"track_count"`
	SampleRate      int       `gorm:"not null" json:"sample_rate"`
	Samples         int       `gorm:"not null" json:"samples"`
	DurationSeconds float64   `gorm:"not null" json:"duration_seconds"`
	Bytes           int       `gorm:"not null" json:"bytes"`
	Peak            float64   `json:"peak"`
	Seed            *uint64   `json:"seed,omitempty"`
	StorageKey      string    `json:"storage_key,omitempty"`
	Location        string    `gorm:"type:text" json:"location,omitempty"`
	RenderMS        int       `gorm:"not null" json:"render_ms"`
}
