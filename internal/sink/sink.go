// Package sink fans prediction results out to external destinations after
// the response is already on the wire. Sink outcomes are logged and counted
// only; they never reach the caller.
package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/growthml/leadscore/internal/encoder"
	"github.com/growthml/leadscore/internal/models"
	"github.com/growthml/leadscore/pkg/logger"
	"github.com/growthml/leadscore/pkg/metric"
	"github.com/growthml/leadscore/pkg/worker"
)

// writeTimeout bounds one sink delivery attempt. Sinks run outside any
// request lifetime, so this is their only deadline.
const writeTimeout = 30 * time.Second

// ResultSet is the full materialized outcome of one scored batch,
// including the engineered feature matrix for downstream drift analysis.
type ResultSet struct {
	RequestId        string
	Timestamp        time.Time
	Leads            []models.LeadFeatures
	Scores           []models.LeadScore
	Features         *encoder.Matrix
	ProcessingTimeMs float64
	ModelVersion     string
}

// Sink receives a result set once, best effort. The returned error is used
// for observability only.
type Sink interface {
	Name() string
	Write(ctx context.Context, rs *ResultSet) error
}

// Dispatcher hands result sets to every registered sink on a bounded pool
// that is sized independently of the prediction pool. A full queue drops
// the delivery rather than backing up the request path.
type Dispatcher struct {
	pool  *worker.Pool
	sinks []Sink
}

func NewDispatcher(pool *worker.Pool, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		pool:  pool,
		sinks: sinks,
	}
}

// Publish schedules one delivery per sink and returns immediately. Each
// sink runs as its own task; one sink failing or stalling does not affect
// the others.
func (d *Dispatcher) Publish(rs *ResultSet) {
	for _, s := range d.sinks {
		s := s
		queued := d.pool.TrySubmit(func() {
			deliver(s, rs)
		})
		if !queued {
			logger.Warn(fmt.Sprintf("Fan-out queue full, dropping %s delivery for request %s", s.Name(), rs.RequestId))
			metric.Count("leadscore.sink.dropped", 1, []string{"sink:" + s.Name()})
		}
	}
}

func deliver(s Sink, rs *ResultSet) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	start := time.Now()
	err := s.Write(ctx, rs)
	tags := []string{"sink:" + s.Name()}
	metric.Timing("leadscore.sink.write.latency", time.Since(start), tags)
	if err != nil {
		logger.Error(fmt.Sprintf("Sink %s write failed for request %s", s.Name(), rs.RequestId), err)
		metric.Count("leadscore.sink.write.failure", 1, tags)
		return
	}
	metric.Count("leadscore.sink.write.success", 1, tags)
}
