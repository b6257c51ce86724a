package prediction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

const recordCols = `id, user_id, symptoms, predicted_disease, confidence, recommendations, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var recJSON []byte
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Symptoms, &rec.PredictedDisease,
		&rec.Confidence, &recJSON, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(recJSON, &rec.Recommendations); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	return &rec, nil
}

func (r *recordRepoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	recJSON, err := json.Marshal(rec.Recommendations)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO predictions (id, user_id, symptoms, predicted_disease, confidence, recommendations)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		rec.ID, rec.UserID, rec.Symptoms, rec.PredictedDisease, rec.Confidence, recJSON,
	).Scan(&rec.CreatedAt)
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordCols+` FROM predictions WHERE id = $1`, id))
}

func (r *recordRepoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM predictions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordCols+` FROM predictions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, nil
}
