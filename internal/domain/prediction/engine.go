package prediction

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed artifact.json
var artifactBytes []byte

// Engine turns a set of valid symptom names into a prediction outcome. The
// rest of the system depends only on this contract, never on the concrete
// model behind it.
type Engine interface {
	Predict(ctx context.Context, symptoms []string) (*Outcome, error)
}

// ModelInfo is the static metadata of the loaded model artifact.
type ModelInfo struct {
	Type            string `json:"type"`
	Version         string `json:"version"`
	TrainedAt       string `json:"last_trained"`
	TrainingSamples int    `json:"training_samples"`
	TotalSymptoms   int    `json:"total_symptoms"`
	TotalDiseases   int    `json:"total_diseases"`
}

type diseaseEntry struct {
	Name        string   `json:"name"`
	Signature   []string `json:"signature"`
	Description string   `json:"description"`
	Precautions []string `json:"precautions"`
	Medications []string `json:"medications"`
	Diet        []string `json:"diet"`
	Workout     []string `json:"workout"`
}

type artifact struct {
	Version         string         `json:"version"`
	Algorithm       string         `json:"algorithm"`
	TrainedAt       string         `json:"trained_at"`
	TrainingSamples int            `json:"training_samples"`
	Symptoms        []string       `json:"symptoms"`
	Diseases        []diseaseEntry `json:"diseases"`
}

// Vocabulary is the fixed set of symptom names the model recognizes.
// Read-only after load.
type Vocabulary struct {
	names []string
	set   map[string]struct{}
}

func newVocabulary(names []string) *Vocabulary {
	v := &Vocabulary{
		names: make([]string, len(names)),
		set:   make(map[string]struct{}, len(names)),
	}
	copy(v.names, names)
	sort.Strings(v.names)
	for _, n := range names {
		v.set[n] = struct{}{}
	}
	return v
}

// All returns every symptom name in alphabetical order.
func (v *Vocabulary) All() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Contains reports whether name is a recognized symptom.
func (v *Vocabulary) Contains(name string) bool {
	_, ok := v.set[name]
	return ok
}

// Search returns up to limit symptoms containing query case-insensitively,
// in alphabetical order. An empty query matches nothing.
func (v *Vocabulary) Search(query string, limit int) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return []string{}
	}
	matches := []string{}
	for _, name := range v.names {
		if strings.Contains(strings.ToLower(name), query) {
			matches = append(matches, name)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches
}

// Len returns the vocabulary size.
func (v *Vocabulary) Len() int { return len(v.names) }

// Catalog is the fixed set of disease labels the model can predict.
type Catalog struct {
	names []string
}

// All returns every disease name in alphabetical order.
func (c *Catalog) All() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the catalog size.
func (c *Catalog) Len() int { return len(c.names) }

// ModelEngine is the default Engine. It loads a frozen artifact holding the
// symptom vocabulary, the disease catalog, and a per-disease symptom
// signature, and scores candidates by signature overlap. Deterministic for a
// given artifact: the same input always yields the same outcome.
type ModelEngine struct {
	info       ModelInfo
	vocab      *Vocabulary
	catalog    *Catalog
	diseases   []diseaseEntry
	signatures []map[string]struct{}
}

// NewModelEngine loads the engine from the embedded artifact.
func NewModelEngine() (*ModelEngine, error) {
	return NewModelEngineFromBytes(artifactBytes)
}

// NewModelEngineFromBytes loads the engine from raw artifact JSON.
func NewModelEngineFromBytes(data []byte) (*ModelEngine, error) {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if len(a.Symptoms) == 0 || len(a.Diseases) == 0 {
		return nil, fmt.Errorf("model artifact is missing symptoms or diseases")
	}

	vocab := newVocabulary(a.Symptoms)

	names := make([]string, 0, len(a.Diseases))
	signatures := make([]map[string]struct{}, len(a.Diseases))
	for i, d := range a.Diseases {
		names = append(names, d.Name)
		sig := make(map[string]struct{}, len(d.Signature))
		for _, s := range d.Signature {
			if !vocab.Contains(s) {
				return nil, fmt.Errorf("disease %q references unknown symptom %q", d.Name, s)
			}
			sig[s] = struct{}{}
		}
		signatures[i] = sig
	}
	sort.Strings(names)

	return &ModelEngine{
		info: ModelInfo{
			Type:            a.Algorithm,
			Version:         a.Version,
			TrainedAt:       a.TrainedAt,
			TrainingSamples: a.TrainingSamples,
			TotalSymptoms:   len(a.Symptoms),
			TotalDiseases:   len(a.Diseases),
		},
		vocab:      vocab,
		catalog:    &Catalog{names: names},
		diseases:   a.Diseases,
		signatures: signatures,
	}, nil
}

// Info returns the artifact's static metadata.
func (e *ModelEngine) Info() ModelInfo { return e.info }

// Vocabulary returns the model's symptom vocabulary.
func (e *ModelEngine) Vocabulary() *Vocabulary { return e.vocab }

// Catalog returns the model's disease catalog.
func (e *ModelEngine) Catalog() *Catalog { return e.catalog }

// Predict scores every disease in artifact order by Jaccard overlap between
// the input set and the disease signature and returns the best match. Ties
// resolve to the earlier artifact entry, so the result is deterministic.
func (e *ModelEngine) Predict(ctx context.Context, symptoms []string) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(symptoms) == 0 {
		return nil, fmt.Errorf("no symptoms provided")
	}

	input := make(map[string]struct{}, len(symptoms))
	for _, s := range symptoms {
		if !e.vocab.Contains(s) {
			return nil, fmt.Errorf("unknown symptom: %s", s)
		}
		input[s] = struct{}{}
	}

	best := 0
	bestScore := -1.0
	for i, sig := range e.signatures {
		matched := 0
		for s := range input {
			if _, ok := sig[s]; ok {
				matched++
			}
		}
		union := len(input) + len(sig) - matched
		var score float64
		if union > 0 {
			score = float64(matched) / float64(union)
		}
		if score > bestScore {
			bestScore = score
			best = i
		}
	}

	d := e.diseases[best]
	return &Outcome{
		Disease:     d.Name,
		Confidence:  bestScore,
		Description: d.Description,
		Recommendations: Recommendations{
			Precautions: d.Precautions,
			Medications: d.Medications,
			Diet:        d.Diet,
			Workout:     d.Workout,
		},
	}, nil
}
