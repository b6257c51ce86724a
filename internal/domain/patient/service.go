package patient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/medisense/medisense/internal/domain/account"
	"github.com/medisense/medisense/internal/domain/prediction"
	"github.com/medisense/medisense/internal/platform/httperr"
	"github.com/medisense/medisense/pkg/pagination"
)

const (
	accountActivityWindow = 30 * 24 * time.Hour
	maxActivityItems      = 10
	maxActivityLimit      = 50
)

type Service struct {
	stats   StatsRepository
	records prediction.RecordRepository
	users   account.UserRepository
}

func NewService(stats StatsRepository, records prediction.RecordRepository, users account.UserRepository) *Service {
	return &Service{stats: stats, records: records, users: users}
}

func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	u, err := s.lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats, err := s.stats.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent, _, err := s.records.ListByUser(ctx, userID, 5, 0)
	if err != nil {
		return nil, err
	}

	activities := buildActivities(u, recent, true)
	if len(activities) > maxActivityItems {
		activities = activities[:maxActivityItems]
	}

	return &Dashboard{Stats: *stats, RecentActivity: activities}, nil
}

func (s *Service) History(ctx context.Context, userID uuid.UUID, p pagination.Params) (*pagination.Response, error) {
	if _, err := s.lookupUser(ctx, userID); err != nil {
		return nil, err
	}
	records, total, err := s.records.ListByUser(ctx, userID, p.PageSize, p.Offset())
	if err != nil {
		return nil, err
	}
	return pagination.NewResponse(records, total, p), nil
}

func (s *Service) RecentActivity(ctx context.Context, userID uuid.UUID, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = maxActivityItems
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	u, err := s.lookupUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, _, err := s.records.ListByUser(ctx, userID, limit, 0)
	if err != nil {
		return nil, err
	}

	activities := buildActivities(u, records, false)
	if len(activities) > limit {
		activities = activities[:limit]
	}
	return activities, nil
}

func (s *Service) lookupUser(ctx context.Context, userID uuid.UUID) (*account.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, httperr.NotFound("user not found")
		}
		return nil, err
	}
	return u, nil
}

// buildActivities merges recent predictions with the account creation event,
// newest first. The account entry only appears during the first month.
func buildActivities(u *account.User, records []*prediction.Record, inlineConfidence bool) []Activity {
	activities := make([]Activity, 0, len(records)+1)

	if time.Since(u.CreatedAt) < accountActivityWindow {
		activities = append(activities, Activity{
			Type:        "account",
			Message:     "Account created successfully",
			Time:        u.CreatedAt,
			TimeDisplay: formatTimeAgo(u.CreatedAt),
		})
	}

	for _, r := range records {
		id := r.ID
		a := Activity{
			Type:        "prediction",
			ID:          &id,
			Time:        r.CreatedAt,
			TimeDisplay: formatTimeAgo(r.CreatedAt),
		}
		pct := int(r.Confidence*100 + 0.5)
		if inlineConfidence {
			a.Message = fmt.Sprintf("Predicted %s with %d%% confidence", r.PredictedDisease, pct)
		} else {
			a.Message = fmt.Sprintf("Predicted %s", r.PredictedDisease)
			a.Details = fmt.Sprintf("Confidence: %d%%", pct)
		}
		activities = append(activities, a)
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].Time.After(activities[j].Time)
	})
	return activities
}

func formatTimeAgo(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/(24*7)), "week")
	}
	months := int(diff.Hours() / (24 * 30))
	if months < 12 {
		return plural(months, "month")
	}
	return plural(months/12, "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
