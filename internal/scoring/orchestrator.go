package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/growthml/leadscore/internal/encoder"
	apperrors "github.com/growthml/leadscore/internal/errors"
	"github.com/growthml/leadscore/internal/model"
	"github.com/growthml/leadscore/internal/models"
	"github.com/growthml/leadscore/internal/sink"
	"github.com/growthml/leadscore/pkg/logger"
	"github.com/growthml/leadscore/pkg/metric"
	"github.com/growthml/leadscore/pkg/worker"
)

// Orchestrator runs the synchronous scoring flow: validate, encode,
// predict, assemble, then fan results out to sinks after the response is
// complete. Encode and predict run on the prediction pool so in-flight
// batch concurrency stays bounded.
type Orchestrator struct {
	adapter    *model.Adapter
	validator  *Validator
	pool       *worker.Pool
	dispatcher *sink.Dispatcher
	timeout    time.Duration
}

func NewOrchestrator(adapter *model.Adapter, validator *Validator, pool *worker.Pool,
	dispatcher *sink.Dispatcher, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		adapter:    adapter,
		validator:  validator,
		pool:       pool,
		dispatcher: dispatcher,
		timeout:    timeout,
	}
}

type predictOutcome struct {
	features    *encoder.Matrix
	scores      []int
	confidences []float64
	err         error
}

// Score processes one batch atomically: either every lead gets a score or
// the whole request fails with a typed error. Scores come back in input
// order.
func (o *Orchestrator) Score(ctx context.Context, req *models.ScoreRequest) (*models.ScoreResponse, error) {
	if !o.adapter.IsLoaded() {
		metric.Count("leadscore.scoring.rejected", 1, []string{"reason:model_not_loaded"})
		return nil, &apperrors.ModelNotLoadedError{ErrorMsg: "model is not loaded, scoring is unavailable"}
	}
	if err := o.validator.ValidateRequest(req); err != nil {
		metric.Count("leadscore.scoring.rejected", 1, []string{"reason:validation"})
		return nil, err
	}

	requestId := req.RequestId
	if requestId == "" {
		requestId = uuid.NewString()
	}

	start := time.Now()
	outcome, err := o.runPrediction(ctx, req.Leads, start)
	if err != nil {
		return nil, err
	}

	processingMs := float64(time.Since(start).Microseconds()) / 1000.0
	response := o.assembleResponse(requestId, req.Leads, outcome, processingMs)

	o.dispatcher.Publish(&sink.ResultSet{
		RequestId:        requestId,
		Timestamp:        response.Timestamp,
		Leads:            req.Leads,
		Scores:           response.Scores,
		Features:         outcome.features,
		ProcessingTimeMs: processingMs,
		ModelVersion:     response.ModelVersion,
	})

	metric.Count("leadscore.scoring.success", 1, nil)
	metric.Count("leadscore.scoring.leads", int64(len(req.Leads)), nil)
	metric.Timing("leadscore.scoring.latency", time.Since(start), nil)
	logger.Debug(fmt.Sprintf("Scored %d leads for request %s in %.2fms", len(req.Leads), requestId, processingMs))
	return response, nil
}

// runPrediction submits encode+predict as one task and waits for the
// outcome under the orchestration deadline. A deadline hit is surfaced as
// its own error type so callers can distinguish it from rejection and
// predictor failure.
func (o *Orchestrator) runPrediction(ctx context.Context, leads []models.LeadFeatures, now time.Time) (*predictOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	results := make(chan *predictOutcome, 1)
	err := o.pool.Submit(ctx, func() {
		results <- o.predict(leads, now)
	})
	if err != nil {
		metric.Count("leadscore.scoring.timeout", 1, []string{"stage:queue"})
		return nil, &apperrors.TimeoutError{ErrorMsg: "scoring queue is saturated, request timed out"}
	}

	select {
	case outcome := <-results:
		if outcome.err != nil {
			logger.Error("Prediction failed", outcome.err)
			metric.Count("leadscore.scoring.failure", 1, nil)
			return nil, &apperrors.InternalError{ErrorMsg: "prediction failed"}
		}
		return outcome, nil
	case <-ctx.Done():
		metric.Count("leadscore.scoring.timeout", 1, []string{"stage:predict"})
		return nil, &apperrors.TimeoutError{ErrorMsg: "prediction did not complete within the orchestration deadline"}
	}
}

func (o *Orchestrator) predict(leads []models.LeadFeatures, now time.Time) *predictOutcome {
	enc, err := o.adapter.Encoder()
	if err != nil {
		return &predictOutcome{err: err}
	}
	features := enc.Encode(leads, now)

	scores, confidences, err := o.adapter.Predict(features)
	if err != nil {
		return &predictOutcome{err: err}
	}
	return &predictOutcome{
		features:    features,
		scores:      scores,
		confidences: confidences,
	}
}

// assembleResponse builds per-lead results in input order. Total latency is
// attributed evenly across leads; per-lead wall time is not measured
// separately. features_used reports the model input width, the schema's
// column count, which is the same for every lead regardless of how many
// fields the caller supplied.
func (o *Orchestrator) assembleResponse(requestId string, leads []models.LeadFeatures,
	outcome *predictOutcome, processingMs float64) *models.ScoreResponse {
	perLeadMs := processingMs / float64(len(leads))
	featuresUsed := outcome.features.ColumnCount()

	scores := make([]models.LeadScore, len(leads))
	for i := range leads {
		scores[i] = models.LeadScore{
			Score:            outcome.scores[i],
			Confidence:       outcome.confidences[i],
			FeaturesUsed:     featuresUsed,
			PredictionTimeMs: perLeadMs,
		}
	}

	return &models.ScoreResponse{
		RequestId:        requestId,
		Timestamp:        time.Now().UTC(),
		TotalLeads:       len(leads),
		ProcessingTimeMs: processingMs,
		Scores:           scores,
		ModelVersion:     o.adapter.Version(),
		Status:           "success",
	}
}
