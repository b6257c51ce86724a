package admin

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisense/medisense/internal/domain/account"
	"github.com/medisense/medisense/internal/platform/httperr"
	"github.com/medisense/medisense/pkg/pagination"
)

const (
	dashboardRecentUsers       = 10
	dashboardRecentPredictions = 15
	dashboardCommonDiseases    = 10
	dashboardTrendWeeks        = 4
	userDetailPredictions      = 20
	defaultAnalyticsDays       = 30
	maxAnalyticsDays           = 365
	analyticsDiseaseLimit      = 15
)

type Service struct {
	repo   Repository
	users  account.UserRepository
	logger zerolog.Logger
}

func NewService(repo Repository, users account.UserRepository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		logger: logger.With().Str("component", "admin").Logger(),
	}
}

type DashboardData struct {
	SystemStats       SystemStats         `json:"system_stats"`
	RoleDistribution  []RoleCount         `json:"role_distribution"`
	CommonDiseases    []DiseaseCount      `json:"common_diseases"`
	RecentUsers       []*account.User     `json:"recent_users"`
	RecentPredictions []PredictionSummary `json:"recent_predictions"`
	WeeklyTrend       []WeeklyBucket      `json:"weekly_trend"`
}

func (s *Service) Dashboard(ctx context.Context) (*DashboardData, error) {
	stats, err := s.repo.SystemStats(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.repo.RoleDistribution(ctx)
	if err != nil {
		return nil, err
	}
	diseases, err := s.repo.CommonDiseases(ctx, dashboardCommonDiseases)
	if err != nil {
		return nil, err
	}
	users, err := s.repo.RecentUsers(ctx, dashboardRecentUsers)
	if err != nil {
		return nil, err
	}
	predictions, err := s.repo.RecentPredictions(ctx, dashboardRecentPredictions)
	if err != nil {
		return nil, err
	}
	trend, err := s.repo.WeeklyTrend(ctx, dashboardTrendWeeks)
	if err != nil {
		return nil, err
	}

	return &DashboardData{
		SystemStats:       *stats,
		RoleDistribution:  roles,
		CommonDiseases:    diseases,
		RecentUsers:       users,
		RecentPredictions: predictions,
		WeeklyTrend:       trend,
	}, nil
}

func (s *Service) ListUsers(ctx context.Context, filter UserFilter, p pagination.Params) (*pagination.Response, error) {
	users, total, err := s.repo.ListUsers(ctx, filter, p.PageSize, p.Offset())
	if err != nil {
		return nil, err
	}
	return pagination.NewResponse(users, total, p), nil
}

type UserStats struct {
	TotalPredictions int `json:"total_predictions"`
	AvgConfidence    int `json:"avg_confidence"`
}

type UserDetail struct {
	User        *account.User       `json:"user"`
	Predictions []PredictionSummary `json:"predictions"`
	Stats       UserStats           `json:"stats"`
}

func (s *Service) UserDetail(ctx context.Context, userID uuid.UUID) (*UserDetail, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, httperr.NotFound("user not found")
		}
		return nil, err
	}

	predictions, total, err := s.repo.UserPredictions(ctx, userID, userDetailPredictions)
	if err != nil {
		return nil, err
	}

	var avg float64
	for _, p := range predictions {
		avg += p.Confidence
	}
	if len(predictions) > 0 {
		avg = avg / float64(len(predictions)) * 100
	}

	return &UserDetail{
		User:        u,
		Predictions: predictions,
		Stats: UserStats{
			TotalPredictions: total,
			AvgConfidence:    int(math.Round(avg)),
		},
	}, nil
}

// ToggleUserStatus flips the target account between active and deactivated.
// Admins cannot toggle themselves out of the system.
func (s *Service) ToggleUserStatus(ctx context.Context, adminID, targetID uuid.UUID) (bool, error) {
	if adminID == targetID {
		return false, httperr.Forbidden("cannot modify your own account status")
	}

	u, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return false, httperr.NotFound("user not found")
		}
		return false, err
	}

	newStatus := !u.IsActive
	if err := s.repo.SetUserActive(ctx, targetID, newStatus); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return false, httperr.NotFound("user not found")
		}
		return false, err
	}

	s.logger.Info().
		Str("admin_id", adminID.String()).
		Str("user_id", targetID.String()).
		Bool("is_active", newStatus).
		Msg("user status toggled")
	return newStatus, nil
}

type TimeRange struct {
	Days      int       `json:"days"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type PredictionAnalytics struct {
	TimeRange           TimeRange          `json:"time_range"`
	DailyPredictions    []DailyCount       `json:"daily_predictions"`
	DiseaseFrequency    []DiseaseFrequency `json:"disease_frequency"`
	ConfidenceAnalytics []ConfidenceStats  `json:"confidence_analytics"`
}

func (s *Service) PredictionAnalytics(ctx context.Context, days int) (*PredictionAnalytics, error) {
	if days <= 0 {
		days = defaultAnalyticsDays
	}
	if days > maxAnalyticsDays {
		days = maxAnalyticsDays
	}
	now := time.Now().UTC()
	since := now.AddDate(0, 0, -days)

	daily, err := s.repo.DailyPredictionCounts(ctx, since)
	if err != nil {
		return nil, err
	}
	frequency, err := s.repo.DiseaseFrequency(ctx, since, analyticsDiseaseLimit)
	if err != nil {
		return nil, err
	}
	confidence, err := s.repo.ConfidenceByDisease(ctx, since)
	if err != nil {
		return nil, err
	}

	return &PredictionAnalytics{
		TimeRange:           TimeRange{Days: days, StartDate: since, EndDate: now},
		DailyPredictions:    daily,
		DiseaseFrequency:    frequency,
		ConfidenceAnalytics: confidence,
	}, nil
}
