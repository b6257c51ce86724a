package admin

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medisense/medisense/internal/domain/account"
	"github.com/medisense/medisense/internal/platform/httperr"
	"github.com/medisense/medisense/pkg/pagination"
)

type mockRepo struct {
	stats       SystemStats
	roles       []RoleCount
	diseases    []DiseaseCount
	users       []*account.User
	predictions []PredictionSummary
	trend       []WeeklyBucket
	daily       []DailyCount
	frequency   []DiseaseFrequency
	confidence  []ConfidenceStats

	listTotal     int
	listFilter    UserFilter
	statusChanges map[uuid.UUID]bool
}

func (m *mockRepo) SystemStats(ctx context.Context) (*SystemStats, error) {
	s := m.stats
	return &s, nil
}

func (m *mockRepo) RoleDistribution(ctx context.Context) ([]RoleCount, error) {
	return m.roles, nil
}

func (m *mockRepo) CommonDiseases(ctx context.Context, limit int) ([]DiseaseCount, error) {
	return m.diseases, nil
}

func (m *mockRepo) RecentUsers(ctx context.Context, limit int) ([]*account.User, error) {
	return m.users, nil
}

func (m *mockRepo) RecentPredictions(ctx context.Context, limit int) ([]PredictionSummary, error) {
	return m.predictions, nil
}

func (m *mockRepo) WeeklyTrend(ctx context.Context, weeks int) ([]WeeklyBucket, error) {
	return m.trend, nil
}

func (m *mockRepo) ListUsers(ctx context.Context, filter UserFilter, limit, offset int) ([]*account.User, int, error) {
	m.listFilter = filter
	return m.users, m.listTotal, nil
}

func (m *mockRepo) UserPredictions(ctx context.Context, userID uuid.UUID, limit int) ([]PredictionSummary, int, error) {
	return m.predictions, len(m.predictions), nil
}

func (m *mockRepo) SetUserActive(ctx context.Context, userID uuid.UUID, active bool) error {
	if m.statusChanges == nil {
		m.statusChanges = map[uuid.UUID]bool{}
	}
	m.statusChanges[userID] = active
	return nil
}

func (m *mockRepo) DailyPredictionCounts(ctx context.Context, since time.Time) ([]DailyCount, error) {
	return m.daily, nil
}

func (m *mockRepo) DiseaseFrequency(ctx context.Context, since time.Time, limit int) ([]DiseaseFrequency, error) {
	return m.frequency, nil
}

func (m *mockRepo) ConfidenceByDisease(ctx context.Context, since time.Time) ([]ConfidenceStats, error) {
	return m.confidence, nil
}

type mockUsers struct {
	byID map[uuid.UUID]*account.User
}

func (m *mockUsers) Create(ctx context.Context, u *account.User) error { return nil }

func (m *mockUsers) GetByID(ctx context.Context, id uuid.UUID) (*account.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return u, nil
}

func (m *mockUsers) GetByEmail(ctx context.Context, email string) (*account.User, error) {
	return nil, account.ErrNotFound
}

func (m *mockUsers) UpdateProfile(ctx context.Context, u *account.User) error { return nil }

func (m *mockUsers) UpdateLastLogin(ctx context.Context, id uuid.UUID) error { return nil }

func TestDashboard(t *testing.T) {
	repo := &mockRepo{
		stats:    SystemStats{TotalUsers: 42, TotalPredictions: 301, PredictionsToday: 5},
		roles:    []RoleCount{{Role: "patient", Count: 38}, {Role: "doctor", Count: 3}, {Role: "admin", Count: 1}},
		diseases: []DiseaseCount{{Disease: "Common Cold", Count: 80}},
		trend:    []WeeklyBucket{{Week: "Week 1", Count: 10}},
	}
	svc := NewService(repo, &mockUsers{}, zerolog.Nop())

	d, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.SystemStats.TotalUsers != 42 {
		t.Errorf("unexpected stats: %+v", d.SystemStats)
	}
	if len(d.RoleDistribution) != 3 {
		t.Errorf("expected 3 role buckets, got %d", len(d.RoleDistribution))
	}
	if len(d.CommonDiseases) != 1 || d.CommonDiseases[0].Disease != "Common Cold" {
		t.Errorf("unexpected diseases: %+v", d.CommonDiseases)
	}
}

func TestListUsers(t *testing.T) {
	repo := &mockRepo{
		users:     []*account.User{{ID: uuid.New(), Email: "a@example.com"}},
		listTotal: 55,
	}
	svc := NewService(repo, &mockUsers{}, zerolog.Nop())

	resp, err := svc.ListUsers(context.Background(),
		UserFilter{Role: "doctor", Search: "smith"},
		pagination.Params{Page: 3, PageSize: 20})
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if resp.Total != 55 || resp.TotalPages != 3 {
		t.Errorf("unexpected pagination: total=%d pages=%d", resp.Total, resp.TotalPages)
	}
	if repo.listFilter.Role != "doctor" || repo.listFilter.Search != "smith" {
		t.Errorf("filter not forwarded: %+v", repo.listFilter)
	}
}

func TestUserDetail(t *testing.T) {
	userID := uuid.New()
	repo := &mockRepo{predictions: []PredictionSummary{
		{ID: uuid.New(), UserID: userID, PredictedDisease: "Malaria", Confidence: 0.9},
		{ID: uuid.New(), UserID: userID, PredictedDisease: "Migraine", Confidence: 0.7},
	}}
	users := &mockUsers{byID: map[uuid.UUID]*account.User{
		userID: {ID: userID, Email: "p@example.com", IsActive: true},
	}}
	svc := NewService(repo, users, zerolog.Nop())

	detail, err := svc.UserDetail(context.Background(), userID)
	if err != nil {
		t.Fatalf("user detail: %v", err)
	}
	if detail.User.Email != "p@example.com" {
		t.Error("wrong user returned")
	}
	if detail.Stats.TotalPredictions != 2 {
		t.Errorf("expected 2 predictions, got %d", detail.Stats.TotalPredictions)
	}
	if detail.Stats.AvgConfidence != 80 {
		t.Errorf("expected avg confidence 80, got %d", detail.Stats.AvgConfidence)
	}
}

func TestUserDetailNotFound(t *testing.T) {
	svc := NewService(&mockRepo{}, &mockUsers{}, zerolog.Nop())
	if _, err := svc.UserDetail(context.Background(), uuid.New()); !httperr.IsKind(err, httperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestToggleUserStatus(t *testing.T) {
	adminID := uuid.New()
	targetID := uuid.New()
	users := &mockUsers{byID: map[uuid.UUID]*account.User{
		adminID:  {ID: adminID, Role: "admin", IsActive: true},
		targetID: {ID: targetID, Role: "patient", IsActive: true},
	}}
	repo := &mockRepo{}
	svc := NewService(repo, users, zerolog.Nop())

	active, err := svc.ToggleUserStatus(context.Background(), adminID, targetID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if active {
		t.Error("active user should be deactivated")
	}
	if got, ok := repo.statusChanges[targetID]; !ok || got {
		t.Error("status change not persisted")
	}
}

func TestToggleUserStatusSelf(t *testing.T) {
	adminID := uuid.New()
	users := &mockUsers{byID: map[uuid.UUID]*account.User{
		adminID: {ID: adminID, Role: "admin", IsActive: true},
	}}
	svc := NewService(&mockRepo{}, users, zerolog.Nop())

	if _, err := svc.ToggleUserStatus(context.Background(), adminID, adminID); !httperr.IsKind(err, httperr.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestToggleUserStatusUnknownTarget(t *testing.T) {
	svc := NewService(&mockRepo{}, &mockUsers{}, zerolog.Nop())
	if _, err := svc.ToggleUserStatus(context.Background(), uuid.New(), uuid.New()); !httperr.IsKind(err, httperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPredictionAnalytics(t *testing.T) {
	repo := &mockRepo{
		daily:     []DailyCount{{Date: "2026-08-30", Count: 12}},
		frequency: []DiseaseFrequency{{Disease: "Malaria", Count: 8, AvgConfidence: 0.85}},
	}
	svc := NewService(repo, &mockUsers{}, zerolog.Nop())

	t.Run("default window", func(t *testing.T) {
		a, err := svc.PredictionAnalytics(context.Background(), 0)
		if err != nil {
			t.Fatalf("analytics: %v", err)
		}
		if a.TimeRange.Days != defaultAnalyticsDays {
			t.Errorf("expected default %d days, got %d", defaultAnalyticsDays, a.TimeRange.Days)
		}
		if len(a.DailyPredictions) != 1 || len(a.DiseaseFrequency) != 1 {
			t.Error("aggregates missing")
		}
	})

	t.Run("capped window", func(t *testing.T) {
		a, err := svc.PredictionAnalytics(context.Background(), 5000)
		if err != nil {
			t.Fatalf("analytics: %v", err)
		}
		if a.TimeRange.Days != maxAnalyticsDays {
			t.Errorf("expected cap at %d days, got %d", maxAnalyticsDays, a.TimeRange.Days)
		}
	})
}
