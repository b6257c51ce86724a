package admin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medisense/medisense/internal/domain/account"
)

// Repository provides the cross-user aggregates and administrative queries
// that the per-user repositories deliberately do not expose.
type Repository interface {
	SystemStats(ctx context.Context) (*SystemStats, error)
	RoleDistribution(ctx context.Context) ([]RoleCount, error)
	CommonDiseases(ctx context.Context, limit int) ([]DiseaseCount, error)
	RecentUsers(ctx context.Context, limit int) ([]*account.User, error)
	RecentPredictions(ctx context.Context, limit int) ([]PredictionSummary, error)
	WeeklyTrend(ctx context.Context, weeks int) ([]WeeklyBucket, error)

	ListUsers(ctx context.Context, filter UserFilter, limit, offset int) ([]*account.User, int, error)
	UserPredictions(ctx context.Context, userID uuid.UUID, limit int) ([]PredictionSummary, int, error)
	SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error

	DailyPredictionCounts(ctx context.Context, since time.Time) ([]DailyCount, error)
	DiseaseFrequency(ctx context.Context, since time.Time, limit int) ([]DiseaseFrequency, error)
	ConfidenceByDisease(ctx context.Context, since time.Time) ([]ConfidenceStats, error)
}
