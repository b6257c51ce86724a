package admin

import (
	"time"

	"github.com/google/uuid"
)

// SystemStats aggregates platform-wide counters for the admin dashboard.
type SystemStats struct {
	TotalUsers           int `json:"total_users"`
	TotalPredictions     int `json:"total_predictions"`
	PredictionsToday     int `json:"predictions_today"`
	ActiveUsers          int `json:"active_users"`
	UsersThisWeek        int `json:"users_this_week"`
	UsersThisMonth       int `json:"users_this_month"`
	PredictionsThisWeek  int `json:"predictions_this_week"`
	PredictionsThisMonth int `json:"predictions_this_month"`
}

type RoleCount struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

type DiseaseCount struct {
	Disease string `json:"disease"`
	Count   int    `json:"count"`
}

// PredictionSummary is the trimmed prediction row shown in admin views.
type PredictionSummary struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	PredictedDisease string    `json:"predicted_disease"`
	Confidence       float64   `json:"confidence"`
	CreatedAt        time.Time `json:"created_at"`
}

type WeeklyBucket struct {
	Week      string    `json:"week"`
	Count     int       `json:"count"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type DiseaseFrequency struct {
	Disease       string  `json:"disease"`
	Count         int     `json:"count"`
	AvgConfidence float64 `json:"avg_confidence"`
}

type ConfidenceStats struct {
	Disease       string  `json:"disease"`
	AvgConfidence float64 `json:"avg_confidence"`
	MinConfidence float64 `json:"min_confidence"`
	MaxConfidence float64 `json:"max_confidence"`
	Count         int     `json:"count"`
}

// UserFilter narrows admin user listings. Role "all" or "" matches every
// role; Search is a case-insensitive substring over names and email.
type UserFilter struct {
	Role   string
	Search string
}
