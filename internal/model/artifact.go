package model

import (
	"encoding/json"
	"fmt"

	"github.com/growthml/leadscore/internal/encoder"
)

// Model types an artifact may declare. A multiclass model carries per-class
// probabilities; a margin model only ranks classes, so confidence falls back
// to a fixed constant. The capability is fixed here, at parse time, never
// probed per request.
const (
	TypeMulticlassLogistic = "multiclass_logistic"
	TypeLinearMargin       = "linear_margin"
)

const (
	// classCount is the number of discrete lead scores the service emits.
	classCount = 5

	// scoreOffset corrects the model's zero-based class index into the
	// externally visible 1..5 range.
	scoreOffset = 1

	// FallbackConfidence is reported when the model cannot produce
	// per-class probabilities. Capability-dependent behavior, not an error.
	FallbackConfidence = 0.80
)

// Artifact is the loaded predictor state: weights, feature schema,
// categorical mapping tables and a semantic version. Immutable after load;
// concurrent predictions read it without locking.
type Artifact struct {
	Version          string         `json:"version"`
	ModelType        string         `json:"model_type"`
	Schema           encoder.Schema `json:"schema"`
	Coefficients     [][]float64    `json:"coefficients"`
	Intercepts       []float64      `json:"intercepts"`
	HasProbabilities bool           `json:"-"`
}

// ParseArtifact deserializes and validates an artifact payload. The
// probability capability flag is derived from the model type once, here.
func ParseArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("artifact payload is not valid JSON: %w", err)
	}

	if a.Version == "" {
		return nil, fmt.Errorf("artifact is missing a version")
	}
	switch a.ModelType {
	case TypeMulticlassLogistic:
		a.HasProbabilities = true
	case TypeLinearMargin:
		a.HasProbabilities = false
	default:
		return nil, fmt.Errorf("unsupported model type %q", a.ModelType)
	}

	featureCount := len(a.Schema.FeatureColumns)
	if featureCount == 0 {
		return nil, fmt.Errorf("artifact declares no feature columns")
	}
	if len(a.Coefficients) != classCount {
		return nil, fmt.Errorf("expected %d coefficient rows, got %d", classCount, len(a.Coefficients))
	}
	for i, row := range a.Coefficients {
		if len(row) != featureCount {
			return nil, fmt.Errorf("coefficient row %d has %d weights, schema has %d columns", i, len(row), featureCount)
		}
	}
	if len(a.Intercepts) != classCount {
		return nil, fmt.Errorf("expected %d intercepts, got %d", classCount, len(a.Intercepts))
	}

	return &a, nil
}
