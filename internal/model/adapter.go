package model

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/growthml/leadscore/internal/encoder"
	"github.com/growthml/leadscore/internal/models"
	"github.com/growthml/leadscore/internal/objectstore"
	"github.com/growthml/leadscore/pkg/logger"
)

// loadedModel bundles the immutable artifact with its compiled encoder so
// both swap in atomically.
type loadedModel struct {
	artifact *Artifact
	encoder  *encoder.Encoder
}

// Adapter owns at most one loaded artifact. Load publishes the artifact
// atomically; Predict only ever reads it, so concurrent batches need no
// locking. Reload/swap is intentionally not supported.
type Adapter struct {
	source objectstore.Reader
	key    string
	state  atomic.Pointer[loadedModel]
}

func NewAdapter(source objectstore.Reader, key string) *Adapter {
	return &Adapter{
		source: source,
		key:    key,
	}
}

// Load fetches and deserializes the artifact. In strict deployments the
// caller treats an error here as fatal: the service must not answer scoring
// traffic with an untrained stand-in.
func (a *Adapter) Load(ctx context.Context) error {
	data, err := a.source.GetObject(ctx, a.key)
	if err != nil {
		return fmt.Errorf("fetching model artifact: %w", err)
	}

	artifact, err := ParseArtifact(data)
	if err != nil {
		return fmt.Errorf("parsing model artifact: %w", err)
	}

	a.state.Store(&loadedModel{
		artifact: artifact,
		encoder:  encoder.NewEncoder(&artifact.Schema),
	})
	logger.Info(fmt.Sprintf("Model artifact loaded, version %s, %d features, type %s",
		artifact.Version, len(artifact.Schema.FeatureColumns), artifact.ModelType))
	return nil
}

func (a *Adapter) IsLoaded() bool {
	return a.state.Load() != nil
}

// Encoder returns the compiled feature encoder for the loaded artifact.
func (a *Adapter) Encoder() (*encoder.Encoder, error) {
	s := a.state.Load()
	if s == nil {
		return nil, fmt.Errorf("model is not loaded")
	}
	return s.encoder, nil
}

// Version returns the loaded artifact's semantic version, or "unknown".
func (a *Adapter) Version() string {
	s := a.state.Load()
	if s == nil {
		return "unknown"
	}
	return s.artifact.Version
}

// Info reports artifact metadata for the model info endpoint.
func (a *Adapter) Info() models.ModelInfo {
	s := a.state.Load()
	if s == nil {
		return models.ModelInfo{Version: "unknown", Loaded: false}
	}
	return models.ModelInfo{
		Version:       s.artifact.Version,
		FeaturesCount: len(s.artifact.Schema.FeatureColumns),
		Loaded:        true,
		ModelType:     s.artifact.ModelType,
	}
}

// Predict scores every matrix row. Scores are the zero-based argmax class
// plus the fixed offset, clamped into [1,5] as the final range guarantee.
// Confidence is the max class probability when the model carries
// probabilities, otherwise the fixed fallback constant.
func (a *Adapter) Predict(m *encoder.Matrix) ([]int, []float64, error) {
	s := a.state.Load()
	if s == nil {
		return nil, nil, fmt.Errorf("model is not loaded")
	}
	artifact := s.artifact

	rowCount := m.RowCount()
	scores := make([]int, rowCount)
	confidences := make([]float64, rowCount)

	for i := 0; i < rowCount; i++ {
		logits := rowLogits(artifact, m.Row(i))
		class := argmax(logits)
		scores[i] = clampScore(class + scoreOffset)
		if artifact.HasProbabilities {
			confidences[i] = softmaxMax(logits)
		} else {
			confidences[i] = FallbackConfidence
		}
	}
	return scores, confidences, nil
}

func rowLogits(artifact *Artifact, row []float64) [classCount]float64 {
	var logits [classCount]float64
	for c := 0; c < classCount; c++ {
		sum := artifact.Intercepts[c]
		coef := artifact.Coefficients[c]
		for j, v := range row {
			sum += coef[j] * v
		}
		logits[c] = sum
	}
	return logits
}

func argmax(logits [classCount]float64) int {
	best := 0
	for c := 1; c < classCount; c++ {
		if logits[c] > logits[best] {
			best = c
		}
	}
	return best
}

// softmaxMax computes the largest softmax probability, shifting by the max
// logit for numerical stability.
func softmaxMax(logits [classCount]float64) float64 {
	maxLogit := logits[argmax(logits)]
	var total float64
	for _, l := range logits {
		total += math.Exp(l - maxLogit)
	}
	return 1.0 / total
}

func clampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > classCount {
		return classCount
	}
	return score
}
