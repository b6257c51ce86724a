package patient

import (
	"context"

	"github.com/google/uuid"
)

// StatsRepository computes usage aggregates over a patient's predictions.
type StatsRepository interface {
	Stats(ctx context.Context, userID uuid.UUID) (*Stats, error)
}
