package prediction

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medisense/medisense/internal/platform/httperr"
)

type mockEngine struct {
	outcome *Outcome
	err     error
	block   bool
	calls   int
}

func (m *mockEngine) Predict(ctx context.Context, symptoms []string) (*Outcome, error) {
	m.calls++
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.outcome, nil
}

type mockRecordRepo struct {
	created []*Record
	err     error
}

func (m *mockRecordRepo) Create(_ context.Context, rec *Record) error {
	if m.err != nil {
		return m.err
	}
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	m.created = append(m.created, rec)
	return nil
}

func (m *mockRecordRepo) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	for _, rec := range m.created {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockRecordRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Record, int, error) {
	var items []*Record
	for _, rec := range m.created {
		if rec.UserID == userID {
			items = append(items, rec)
		}
	}
	return items, len(items), nil
}

func testService(t *testing.T, engine Engine, repo RecordRepository) *Service {
	t.Helper()
	me := loadEngine(t)
	if engine == nil {
		engine = me
	}
	if repo == nil {
		repo = &mockRecordRepo{}
	}
	return NewService(engine, me.Vocabulary(), me.Catalog(), me.Info(), repo, time.Second)
}

func TestService_Predict_Anonymous(t *testing.T) {
	repo := &mockRecordRepo{}
	svc := testService(t, nil, repo)

	result, err := svc.Predict(context.Background(), []string{"headache", "fever", "cough"}, uuid.Nil)
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if result.RecordID != nil {
		t.Error("anonymous prediction must not carry a record id")
	}
	if len(repo.created) != 0 {
		t.Errorf("anonymous prediction must not be persisted, found %d records", len(repo.created))
	}
	if result.Outcome.Disease == "" {
		t.Error("expected a predicted disease")
	}
}

func TestService_Predict_Authenticated(t *testing.T) {
	repo := &mockRecordRepo{}
	svc := testService(t, nil, repo)
	userID := uuid.New()

	result, err := svc.Predict(context.Background(), []string{"headache", "fever", "cough"}, userID)
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if result.RecordID == nil {
		t.Fatal("authenticated prediction must carry a record id")
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one persisted record, got %d", len(repo.created))
	}
	rec := repo.created[0]
	if rec.UserID != userID {
		t.Errorf("record owned by %s, expected %s", rec.UserID, userID)
	}
	if rec.PredictedDisease != result.Outcome.Disease {
		t.Errorf("record disease %q differs from outcome %q", rec.PredictedDisease, result.Outcome.Disease)
	}
	if rec.Confidence != result.Outcome.Confidence {
		t.Error("confidence must be stored unmodified")
	}
}

func TestService_Predict_Validation(t *testing.T) {
	tests := []struct {
		name     string
		symptoms []string
	}{
		{name: "empty list", symptoms: nil},
		{name: "only blanks", symptoms: []string{"", "  "}},
		{name: "eleven distinct", symptoms: []string{
			"itching", "skin_rash", "cough", "headache", "fever", "chills",
			"vomiting", "fatigue", "nausea", "dizziness", "sweating"}},
		{name: "unknown symptom", symptoms: []string{"headache", "xyz_not_real"}},
	}

	svc := testService(t, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Predict(context.Background(), tt.symptoms, uuid.Nil)
			if !httperr.IsKind(err, httperr.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_Predict_UnknownSymptomNamed(t *testing.T) {
	svc := testService(t, nil, nil)
	_, err := svc.Predict(context.Background(), []string{"headache", "xyz_not_real"}, uuid.Nil)
	if err == nil || !strings.Contains(err.Error(), "xyz_not_real") {
		t.Fatalf("error must name the unknown symptom, got %v", err)
	}
}

func TestService_Predict_DuplicatesCollapse(t *testing.T) {
	repo := &mockRecordRepo{}
	svc := testService(t, nil, repo)

	// Twelve entries, three distinct: passes the ten-symptom cap.
	symptoms := []string{
		"headache", "headache", "headache", "headache",
		"cough", "cough", "cough", "cough",
		"fever", "fever", "fever", "fever",
	}
	result, err := svc.Predict(context.Background(), symptoms, uuid.New())
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if len(result.Symptoms) != 3 {
		t.Errorf("expected 3 deduplicated symptoms, got %v", result.Symptoms)
	}
}

func TestService_Predict_EngineTimeout(t *testing.T) {
	me := loadEngine(t)
	blocked := &mockEngine{block: true}
	svc := NewService(blocked, me.Vocabulary(), me.Catalog(), me.Info(), &mockRecordRepo{}, 20*time.Millisecond)

	_, err := svc.Predict(context.Background(), []string{"headache"}, uuid.Nil)
	if !httperr.IsKind(err, httperr.KindUnavailable) {
		t.Fatalf("expected unavailable error on engine timeout, got %v", err)
	}
}

func TestService_Predict_EngineError(t *testing.T) {
	me := loadEngine(t)
	broken := &mockEngine{err: fmt.Errorf("model exploded")}
	svc := NewService(broken, me.Vocabulary(), me.Catalog(), me.Info(), &mockRecordRepo{}, time.Second)

	_, err := svc.Predict(context.Background(), []string{"headache"}, uuid.Nil)
	if err == nil {
		t.Fatal("expected error from broken engine")
	}
	if httperr.IsKind(err, httperr.KindValidation) {
		t.Error("engine failure must not surface as a validation error")
	}
}

func TestService_Predict_PersistFailure(t *testing.T) {
	repo := &mockRecordRepo{err: fmt.Errorf("connection lost")}
	svc := testService(t, nil, repo)

	_, err := svc.Predict(context.Background(), []string{"headache"}, uuid.New())
	if err == nil {
		t.Fatal("expected error when the record cannot be persisted")
	}
}

func TestService_ValidateSymptoms(t *testing.T) {
	svc := testService(t, nil, nil)

	result := svc.ValidateSymptoms([]string{"headache", "cough", "xyz_not_real", "  ", "head"})
	if len(result.Valid) != 2 {
		t.Errorf("expected 2 valid symptoms, got %v", result.Valid)
	}
	if len(result.Invalid) != 2 {
		t.Errorf("expected 2 invalid symptoms, got %v", result.Invalid)
	}
	// "head" is not a vocabulary entry but should suggest headache.
	suggestions, ok := result.Suggestions["head"]
	if !ok || len(suggestions) == 0 {
		t.Fatalf("expected suggestions for 'head', got %v", result.Suggestions)
	}
	if len(suggestions) > 3 {
		t.Errorf("expected at most 3 suggestions, got %d", len(suggestions))
	}
}

func TestService_SearchSymptoms_SubsetOfList(t *testing.T) {
	svc := testService(t, nil, nil)

	all := make(map[string]struct{})
	for _, s := range svc.Symptoms() {
		all[s] = struct{}{}
	}
	for _, m := range svc.SearchSymptoms("head", 10) {
		if _, ok := all[m]; !ok {
			t.Errorf("search result %q not in full symptom list", m)
		}
	}
}

func TestService_HealthCheck(t *testing.T) {
	svc := testService(t, nil, nil)
	status := svc.HealthCheck(context.Background())
	if !status.Healthy {
		t.Error("expected healthy status from working engine")
	}
	if status.SymptomCount != 132 || status.DiseaseCount != 41 {
		t.Errorf("unexpected counts: %+v", status)
	}

	me := loadEngine(t)
	broken := NewService(&mockEngine{err: fmt.Errorf("down")}, me.Vocabulary(), me.Catalog(), me.Info(), &mockRecordRepo{}, time.Second)
	if broken.HealthCheck(context.Background()).Healthy {
		t.Error("expected unhealthy status from failing engine")
	}
}
