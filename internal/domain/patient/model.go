package patient

import (
	"time"

	"github.com/google/uuid"
)

// Stats summarizes a patient's prediction usage for the dashboard.
type Stats struct {
	TotalPredictions  int        `json:"total_predictions"`
	LastPredictionAt  *time.Time `json:"last_prediction,omitempty"`
	WeeklyPredictions int        `json:"weekly_predictions"`
	Accuracy          int        `json:"accuracy"`
}

// Activity is a single entry in the patient's recent activity feed.
type Activity struct {
	Type        string     `json:"type"`
	ID          *uuid.UUID `json:"id,omitempty"`
	Message     string     `json:"message"`
	Details     string     `json:"details,omitempty"`
	Time        time.Time  `json:"time"`
	TimeDisplay string     `json:"time_display"`
}

type Dashboard struct {
	Stats          Stats      `json:"stats"`
	RecentActivity []Activity `json:"recent_activity"`
}
