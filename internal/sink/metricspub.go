package sink

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/growthml/leadscore/pkg/metric"
)

// highConfidenceThreshold separates confident predictions in the published
// distribution metrics.
const highConfidenceThreshold = 0.9

// MetricsPublisher pushes batch-level prediction statistics to statsd:
// score distribution, confidence summary and per-feature drift gauges
// computed from the engineered matrix.
type MetricsPublisher struct{}

func NewMetricsPublisher() *MetricsPublisher {
	return &MetricsPublisher{}
}

func (p *MetricsPublisher) Name() string {
	return "metrics"
}

func (p *MetricsPublisher) Write(_ context.Context, rs *ResultSet) error {
	total := len(rs.Scores)
	if total == 0 {
		return nil
	}
	versionTag := []string{"model_version:" + rs.ModelVersion}

	var distribution [6]int64
	var scoreSum, confidenceSum float64
	var highConfidence int64
	for _, s := range rs.Scores {
		if s.Score >= 1 && s.Score <= 5 {
			distribution[s.Score]++
		}
		scoreSum += float64(s.Score)
		confidenceSum += s.Confidence
		if s.Confidence > highConfidenceThreshold {
			highConfidence++
		}
	}

	for score := 1; score <= 5; score++ {
		metric.Count("leadscore.predictions.score", distribution[score],
			append([]string{fmt.Sprintf("score:%d", score)}, versionTag...))
	}
	metric.Count("leadscore.predictions.volume", int64(total), versionTag)
	metric.Gauge("leadscore.predictions.score.avg", scoreSum/float64(total), versionTag)
	metric.Gauge("leadscore.predictions.confidence.avg", confidenceSum/float64(total), versionTag)
	metric.Count("leadscore.predictions.high_confidence", highConfidence, versionTag)
	metric.Gauge("leadscore.predictions.high_confidence.pct",
		100*float64(highConfidence)/float64(total), versionTag)
	metric.Timing("leadscore.predictions.processing_time",
		time.Duration(rs.ProcessingTimeMs*float64(time.Millisecond)), versionTag)
	metric.Count("leadscore.predictions.batch", 1, versionTag)

	p.publishDrift(rs, versionTag)
	return nil
}

// publishDrift emits mean and standard deviation gauges per engineered
// feature column. Downstream monitors compare these against training-time
// baselines.
func (p *MetricsPublisher) publishDrift(rs *ResultSet, versionTag []string) {
	m := rs.Features
	if m == nil || m.RowCount() == 0 {
		return
	}
	n := float64(m.RowCount())

	columns := m.Columns()
	sums := make([]float64, len(columns))
	sumSquares := make([]float64, len(columns))
	for i := 0; i < m.RowCount(); i++ {
		for j, v := range m.Row(i) {
			sums[j] += v
			sumSquares[j] += v * v
		}
	}

	for j, col := range columns {
		mean := sums[j] / n
		variance := sumSquares[j]/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		std := math.Sqrt(variance)
		if math.IsNaN(mean) || math.IsInf(mean, 0) || math.IsNaN(std) || math.IsInf(std, 0) {
			continue
		}

		tags := append([]string{"feature:" + col}, versionTag...)
		metric.Gauge("leadscore.features.mean", mean, tags)
		metric.Gauge("leadscore.features.std", std, tags)
	}
}
