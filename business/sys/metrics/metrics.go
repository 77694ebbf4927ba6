// Package metrics holds the prometheus collectors for the ledger service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledger"

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "core",
		Name:      "operations_total",
		Help:      "Count of ledger operations.",
	}, []string{"operation", "status"})
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "core",
		Name:      "operation_duration_seconds",
		Help:      "Duration of ledger operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "status"})

	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mining",
		Name:      "submissions_total",
		Help:      "Count of block submissions by result.",
	}, []string{"result"})
	currentWork = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "mining",
		Name:      "work",
		Help:      "Work target for the next block.",
	})

	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of handled requests by status code.",
	}, []string{"code"})
	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Count of recovered handler panics.",
	})
)

// Ledger records the core ledger metrics. The zero value is ready to use.
type Ledger struct{}

// ObserveOperation records the outcome and duration of one ledger operation.
func (Ledger) ObserveOperation(operation string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}

	operationsTotal.WithLabelValues(operation, status).Inc()
	operationDuration.WithLabelValues(operation, status).Observe(time.Since(started).Seconds())
}

// ObserveSubmission counts one block submission result.
func (Ledger) ObserveSubmission(result string) {
	submissionsTotal.WithLabelValues(result).Inc()
}

// SetWork publishes the current work target.
func (Ledger) SetWork(work uint64) {
	currentWork.Set(float64(work))
}

// =============================================================================

// ObserveRequest counts a handled request by its status code class.
func ObserveRequest(status int) {
	requestsTotal.WithLabelValues(statusClass(status)).Inc()
}

// AddPanic counts a recovered panic.
func AddPanic() {
	panicsTotal.Inc()
}

// Handler returns the scrape endpoint for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
