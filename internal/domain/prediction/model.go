package prediction

import (
	"time"

	"github.com/google/uuid"
)

// Recommendations is the canned advice attached to a predicted disease.
type Recommendations struct {
	Precautions []string `json:"precautions"`
	Medications []string `json:"medications"`
	Diet        []string `json:"diet"`
	Workout     []string `json:"workout"`
}

// Outcome is what the engine returns for one prediction call.
type Outcome struct {
	Disease         string          `json:"predicted_disease"`
	Confidence      float64         `json:"confidence"`
	Description     string          `json:"description"`
	Recommendations Recommendations `json:"recommendations"`
}

// Record maps to the predictions table. Records are immutable after creation.
type Record struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	Symptoms         []string        `db:"symptoms" json:"symptoms"`
	PredictedDisease string          `db:"predicted_disease" json:"predicted_disease"`
	Confidence       float64         `db:"confidence" json:"confidence"`
	Recommendations  Recommendations `db:"recommendations" json:"recommendations"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}
