package patient

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type statsRepoPG struct{ pool *pgxpool.Pool }

func NewStatsRepoPG(pool *pgxpool.Pool) StatsRepository {
	return &statsRepoPG{pool: pool}
}

func (r *statsRepoPG) Stats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	var (
		s       Stats
		avgConf float64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       MAX(created_at),
		       COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '7 days'),
		       COALESCE(AVG(confidence), 0)
		FROM predictions
		WHERE user_id = $1`,
		userID,
	).Scan(&s.TotalPredictions, &s.LastPredictionAt, &s.WeeklyPredictions, &avgConf)
	if err != nil {
		return nil, err
	}
	s.Accuracy = int(math.Round(avgConf * 100))
	return &s, nil
}
