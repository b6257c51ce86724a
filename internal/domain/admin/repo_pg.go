package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medisense/medisense/internal/domain/account"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const adminUserCols = `id, first_name, last_name, email, password_hash, role, is_active,
	age, gender, phone, created_at, last_login`

func scanUserRow(row pgx.Row) (*account.User, error) {
	var u account.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.Age, &u.Gender, &u.Phone, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repoPG) SystemStats(ctx context.Context) (*SystemStats, error) {
	var s SystemStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM predictions),
			(SELECT COUNT(*) FROM predictions WHERE created_at >= CURRENT_DATE),
			(SELECT COUNT(*) FROM users WHERE last_login >= NOW() - INTERVAL '7 days'),
			(SELECT COUNT(*) FROM users WHERE created_at >= NOW() - INTERVAL '7 days'),
			(SELECT COUNT(*) FROM users WHERE created_at >= NOW() - INTERVAL '30 days'),
			(SELECT COUNT(*) FROM predictions WHERE created_at >= NOW() - INTERVAL '7 days'),
			(SELECT COUNT(*) FROM predictions WHERE created_at >= NOW() - INTERVAL '30 days')`,
	).Scan(&s.TotalUsers, &s.TotalPredictions, &s.PredictionsToday, &s.ActiveUsers,
		&s.UsersThisWeek, &s.UsersThisMonth, &s.PredictionsThisWeek, &s.PredictionsThisMonth)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) RoleDistribution(ctx context.Context) ([]RoleCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role, COUNT(*) FROM users GROUP BY role ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoleCount
	for rows.Next() {
		var rc RoleCount
		if err := rows.Scan(&rc.Role, &rc.Count); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (r *repoPG) CommonDiseases(ctx context.Context, limit int) ([]DiseaseCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT predicted_disease, COUNT(*)
		FROM predictions
		GROUP BY predicted_disease
		ORDER BY COUNT(*) DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DiseaseCount
	for rows.Next() {
		var dc DiseaseCount
		if err := rows.Scan(&dc.Disease, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (r *repoPG) RecentUsers(ctx context.Context, limit int) ([]*account.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+adminUserCols+` FROM users ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*account.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *repoPG) RecentPredictions(ctx context.Context, limit int) ([]PredictionSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, predicted_disease, confidence, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPredictionSummaries(rows)
}

func scanPredictionSummaries(rows pgx.Rows) ([]PredictionSummary, error) {
	var out []PredictionSummary
	for rows.Next() {
		var p PredictionSummary
		if err := rows.Scan(&p.ID, &p.UserID, &p.PredictedDisease, &p.Confidence, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repoPG) WeeklyTrend(ctx context.Context, weeks int) ([]WeeklyBucket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT FLOOR(EXTRACT(EPOCH FROM (NOW() - created_at)) / 604800)::int AS weeks_ago, COUNT(*)
		FROM predictions
		WHERE created_at >= NOW() - ($1 * INTERVAL '7 days')
		GROUP BY weeks_ago`, weeks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int, weeks)
	for rows.Next() {
		var weeksAgo, count int
		if err := rows.Scan(&weeksAgo, &count); err != nil {
			return nil, err
		}
		counts[weeksAgo] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// oldest bucket first, labeled Week 1 .. Week N
	now := time.Now().UTC()
	buckets := make([]WeeklyBucket, weeks)
	for i := 0; i < weeks; i++ {
		weeksAgo := weeks - 1 - i
		buckets[i] = WeeklyBucket{
			Week:      fmt.Sprintf("Week %d", i+1),
			Count:     counts[weeksAgo],
			StartDate: now.Add(-time.Duration(weeksAgo+1) * 7 * 24 * time.Hour),
			EndDate:   now.Add(-time.Duration(weeksAgo) * 7 * 24 * time.Hour),
		}
	}
	return buckets, nil
}

func (r *repoPG) ListUsers(ctx context.Context, filter UserFilter, limit, offset int) ([]*account.User, int, error) {
	where := []string{}
	args := []any{}

	if filter.Role != "" && filter.Role != "all" {
		args = append(args, filter.Role)
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", n, n, n))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users"+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT %s FROM users%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		adminUserCols, clause, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*account.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *repoPG) UserPredictions(ctx context.Context, userID uuid.UUID, limit int) ([]PredictionSummary, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM predictions WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, predicted_disease, confidence, created_at
		FROM predictions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := scanPredictionSummaries(rows)
	return out, total, err
}

func (r *repoPG) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $2 WHERE id = $1`, userID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (r *repoPG) DailyPredictionCounts(ctx context.Context, since time.Time) ([]DailyCount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(created_at::date, 'YYYY-MM-DD'), COUNT(*)
		FROM predictions
		WHERE created_at >= $1
		GROUP BY created_at::date
		ORDER BY created_at::date`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyCount
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

func (r *repoPG) DiseaseFrequency(ctx context.Context, since time.Time, limit int) ([]DiseaseFrequency, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT predicted_disease, COUNT(*), AVG(confidence)
		FROM predictions
		WHERE created_at >= $1
		GROUP BY predicted_disease
		ORDER BY COUNT(*) DESC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DiseaseFrequency
	for rows.Next() {
		var df DiseaseFrequency
		if err := rows.Scan(&df.Disease, &df.Count, &df.AvgConfidence); err != nil {
			return nil, err
		}
		out = append(out, df)
	}
	return out, rows.Err()
}

func (r *repoPG) ConfidenceByDisease(ctx context.Context, since time.Time) ([]ConfidenceStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT predicted_disease, AVG(confidence), MIN(confidence), MAX(confidence), COUNT(*)
		FROM predictions
		WHERE created_at >= $1
		GROUP BY predicted_disease
		ORDER BY AVG(confidence) DESC`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ConfidenceStats
	for rows.Next() {
		var cs ConfidenceStats
		if err := rows.Scan(&cs.Disease, &cs.AvgConfidence, &cs.MinConfidence, &cs.MaxConfidence, &cs.Count); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}
