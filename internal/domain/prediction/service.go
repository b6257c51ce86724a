package prediction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medisense/medisense/internal/platform/httperr"
)

const maxSymptomsPerRequest = 10

type Service struct {
	engine  Engine
	vocab   *Vocabulary
	catalog *Catalog
	info    ModelInfo
	records RecordRepository
	timeout time.Duration
}

func NewService(engine Engine, vocab *Vocabulary, catalog *Catalog, info ModelInfo, records RecordRepository, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{
		engine:  engine,
		vocab:   vocab,
		catalog: catalog,
		info:    info,
		records: records,
		timeout: timeout,
	}
}

// PredictResult is the full response for one prediction call. RecordID is set
// only when the caller was authenticated and the record was persisted.
type PredictResult struct {
	Outcome   *Outcome   `json:"outcome"`
	Symptoms  []string   `json:"symptoms"`
	RecordID  *uuid.UUID `json:"record_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Predict validates the symptom list, invokes the engine under a timeout, and
// persists a record when userID identifies an authenticated caller
// (uuid.Nil means anonymous).
func (s *Service) Predict(ctx context.Context, symptoms []string, userID uuid.UUID) (*PredictResult, error) {
	cleaned, unknown := s.normalize(symptoms)
	if len(unknown) > 0 {
		return nil, httperr.Validation("unrecognized symptoms: %s", strings.Join(unknown, ", ")).
			WithDetail("invalid_symptoms", unknown)
	}
	if len(cleaned) == 0 {
		return nil, httperr.Validation("at least one symptom is required")
	}
	if len(cleaned) > maxSymptomsPerRequest {
		return nil, httperr.Validation("at most %d symptoms per request", maxSymptomsPerRequest)
	}

	engineCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcome, err := s.engine.Predict(engineCtx, cleaned)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, httperr.Unavailable("prediction engine timed out").WithCause(err)
		}
		return nil, fmt.Errorf("engine predict: %w", err)
	}

	result := &PredictResult{
		Outcome:   outcome,
		Symptoms:  cleaned,
		Timestamp: time.Now().UTC(),
	}

	if userID != uuid.Nil {
		rec := &Record{
			UserID:           userID,
			Symptoms:         cleaned,
			PredictedDisease: outcome.Disease,
			Confidence:       outcome.Confidence,
			Recommendations:  outcome.Recommendations,
		}
		if err := s.records.Create(ctx, rec); err != nil {
			return nil, fmt.Errorf("persist prediction record: %w", err)
		}
		result.RecordID = &rec.ID
	}

	return result, nil
}

// normalize trims, drops empties, collapses duplicates preserving first
// occurrence order, and splits the input into recognized and unrecognized
// names.
func (s *Service) normalize(symptoms []string) (valid, unknown []string) {
	seen := make(map[string]struct{}, len(symptoms))
	for _, raw := range symptoms {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if s.vocab.Contains(name) {
			valid = append(valid, name)
		} else {
			unknown = append(unknown, name)
		}
	}
	return valid, unknown
}

// ValidationResult is the per-symptom breakdown returned by ValidateSymptoms.
type ValidationResult struct {
	Valid       []string            `json:"valid_symptoms"`
	Invalid     []string            `json:"invalid_symptoms"`
	Suggestions map[string][]string `json:"suggestions"`
}

// ValidateSymptoms checks each name against the vocabulary without invoking
// the engine, and offers up to three similar names for each miss.
func (s *Service) ValidateSymptoms(symptoms []string) *ValidationResult {
	result := &ValidationResult{
		Valid:       []string{},
		Invalid:     []string{},
		Suggestions: map[string][]string{},
	}
	for _, raw := range symptoms {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if s.vocab.Contains(name) {
			result.Valid = append(result.Valid, name)
			continue
		}
		result.Invalid = append(result.Invalid, name)
		if similar := s.vocab.Search(name, 3); len(similar) > 0 {
			result.Suggestions[name] = similar
		}
	}
	return result
}

// Symptoms returns the full vocabulary in stable alphabetical order.
func (s *Service) Symptoms() []string { return s.vocab.All() }

// SearchSymptoms returns vocabulary entries matching query. Empty query
// yields an empty result.
func (s *Service) SearchSymptoms(query string, limit int) []string {
	return s.vocab.Search(query, limit)
}

// Diseases returns the full catalog in stable alphabetical order.
func (s *Service) Diseases() []string { return s.catalog.All() }

// Info returns the static model metadata.
func (s *Service) Info() ModelInfo { return s.info }

// HealthStatus reports the outcome of an engine self-test.
type HealthStatus struct {
	Healthy       bool `json:"healthy"`
	SymptomCount  int  `json:"symptoms_count"`
	DiseaseCount  int  `json:"diseases_count"`
	TestPredicted bool `json:"test_prediction"`
}

// HealthCheck runs a quick prediction against the engine to verify it is
// responsive.
func (s *Service) HealthCheck(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		SymptomCount: s.vocab.Len(),
		DiseaseCount: s.catalog.Len(),
	}

	engineCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	probe := s.vocab.All()
	if len(probe) == 0 {
		return status
	}
	if _, err := s.engine.Predict(engineCtx, probe[:1]); err == nil {
		status.Healthy = true
		status.TestPredicted = true
	}
	return status
}
