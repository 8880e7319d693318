package model

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/growthml/leadscore/internal/encoder"
	"github.com/growthml/leadscore/internal/models"
)

type stubReader struct {
	data []byte
	err  error
}

func (s stubReader) GetObject(_ context.Context, _ string) ([]byte, error) {
	return s.data, s.err
}

// twoFeatureArtifact builds an artifact whose winning class is a staircase
// in feature a: class 0 below 5, then one step up at 5, 7, 9 and 11.
func twoFeatureArtifact(t *testing.T, modelType string) []byte {
	t.Helper()
	payload := fmt.Sprintf(`{
		"version": "1.0.0",
		"model_type": %q,
		"schema": {
			"feature_columns": ["a", "b"],
			"categorical_mappings": {}
		},
		"coefficients": [
			[0.0, 0.0],
			[1.0, 0.0],
			[2.0, 0.0],
			[3.0, 0.0],
			[4.0, 0.0]
		],
		"intercepts": [0.0, -5.0, -12.0, -21.0, -32.0]
	}`, modelType)
	return []byte(payload)
}

func loadedAdapter(t *testing.T, modelType string) *Adapter {
	t.Helper()
	adapter := NewAdapter(stubReader{data: twoFeatureArtifact(t, modelType)}, "model.json")
	if err := adapter.Load(context.Background()); err != nil {
		t.Fatalf("loading adapter: %v", err)
	}
	return adapter
}

func matrixWith(values ...float64) *encoder.Matrix {
	m := encoder.NewMatrix(len(values), []string{"a", "b"})
	for i, v := range values {
		m.Set(i, "a", v)
	}
	return m
}

func TestAdapterLoadFailure(t *testing.T) {
	adapter := NewAdapter(stubReader{err: fmt.Errorf("bucket unreachable")}, "model.json")

	if err := adapter.Load(context.Background()); err == nil {
		t.Fatal("expected load error, got nil")
	}
	if adapter.IsLoaded() {
		t.Error("adapter must not report loaded after a failed load")
	}
	if adapter.Version() != "unknown" {
		t.Errorf("Version = %s, expected unknown", adapter.Version())
	}
}

func TestAdapterPredictBeforeLoad(t *testing.T) {
	adapter := NewAdapter(stubReader{}, "model.json")

	if _, _, err := adapter.Predict(matrixWith(1)); err == nil {
		t.Error("expected error from Predict before Load")
	}
	if _, err := adapter.Encoder(); err == nil {
		t.Error("expected error from Encoder before Load")
	}
}

func TestAdapterPredictScoresInRange(t *testing.T) {
	adapter := loadedAdapter(t, TypeMulticlassLogistic)

	// Feature values chosen so each class in turn carries the max logit.
	scores, confidences, err := adapter.Predict(matrixWith(0, 6, 8, 10, 25))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []int{1, 2, 3, 4, 5}
	for i, want := range expected {
		if scores[i] != want {
			t.Errorf("row %d score = %d, expected %d", i, scores[i], want)
		}
		if confidences[i] <= 0 || confidences[i] > 1 {
			t.Errorf("row %d confidence = %v, expected within (0,1]", i, confidences[i])
		}
	}
}

func TestAdapterPredictDeterministic(t *testing.T) {
	adapter := loadedAdapter(t, TypeMulticlassLogistic)
	m := matrixWith(3.7, 0.1, 22)

	firstScores, firstConfs, err := adapter.Predict(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	secondScores, secondConfs, err := adapter.Predict(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range firstScores {
		if firstScores[i] != secondScores[i] || firstConfs[i] != secondConfs[i] {
			t.Errorf("row %d: predictions differ between identical calls", i)
		}
	}
}

func TestAdapterMarginModelFallbackConfidence(t *testing.T) {
	adapter := loadedAdapter(t, TypeLinearMargin)

	_, confidences, err := adapter.Predict(matrixWith(0, 12, 25))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, c := range confidences {
		if c != FallbackConfidence {
			t.Errorf("row %d confidence = %v, expected fallback %v", i, c, FallbackConfidence)
		}
	}
}

func TestAdapterInfo(t *testing.T) {
	adapter := loadedAdapter(t, TypeMulticlassLogistic)

	info := adapter.Info()
	expected := models.ModelInfo{
		Version:       "1.0.0",
		FeaturesCount: 2,
		Loaded:        true,
		ModelType:     TypeMulticlassLogistic,
	}
	if info != expected {
		t.Errorf("Info = %+v, expected %+v", info, expected)
	}
}

func TestAdapterEncoderBoundToArtifactSchema(t *testing.T) {
	adapter := loadedAdapter(t, TypeMulticlassLogistic)

	enc, err := adapter.Encoder()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := enc.Encode([]models.LeadFeatures{{}}, time.Now())
	if m.ColumnCount() != 2 {
		t.Errorf("encoded width = %d, expected 2", m.ColumnCount())
	}
}
