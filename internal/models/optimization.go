package models

import "time"

type OptimizationStatus string

const (
	StatusCompleted OptimizationStatus = "completed"
	StatusPending   OptimizationStatus = "pending"
	StatusFailed    OptimizationStatus = "failed"
)

func (s OptimizationStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusFailed:
		return true
	}
	return false
}

type OptimizationMetrics struct {
	Views      int     `json:"views"`
	Engagement int     `json:"engagement"`
	ClickRate  float64 `json:"clickRate"`
}

type Optimization struct {
	ID                   string              `json:"id" db:"id"`
	UserID               string              `json:"user_id" db:"user_id"`
	VideoURL             string              `json:"video_url" db:"video_url"`
	VideoTitle           string              `json:"video_title" db:"video_title"`
	OriginalTitle        *string             `json:"original_title" db:"original_title"`
	OptimizedTitle       *string             `json:"optimized_title" db:"optimized_title"`
	OriginalDescription  *string             `json:"original_description" db:"original_description"`
	OptimizedDescription *string             `json:"optimized_description" db:"optimized_description"`
	Tags                 []string            `json:"tags" db:"tags"`
	Status               OptimizationStatus  `json:"status" db:"status"`
	Metrics              OptimizationMetrics `json:"metrics"`
	CreatedAt            time.Time           `json:"created_at" db:"created_at"`
}
