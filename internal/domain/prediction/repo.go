package prediction

import (
	"context"

	"github.com/google/uuid"
)

// RecordRepository defines the persistence interface for prediction records.
type RecordRepository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Record, int, error)
}
