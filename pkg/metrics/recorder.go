package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exports Prometheus metrics for wrapped remote calls.
// It implements callwrap.Observer.
type Recorder struct {
	calls    *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecorder creates a recorder and registers its collectors.
// A nil registerer uses the default registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callwrap_calls_total",
				Help: "Total wrapped remote calls by terminal outcome",
			},
			[]string{"outcome"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callwrap_server_failures_total",
				Help: "Total server failures by upstream status code",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "callwrap_call_duration_seconds",
				Help:    "Wrapped call duration in seconds by terminal outcome",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(r.calls)
	reg.MustRegister(r.failures)
	reg.MustRegister(r.duration)

	return r
}

// ObserveOutcome records the terminal outcome of one invocation.
// outcome is "success", "cancelled", or a failure kind; server failures
// additionally land in the per-status failure counter.
func (r *Recorder) ObserveOutcome(outcome string, status int, seconds float64) {
	r.calls.WithLabelValues(outcome).Inc()
	r.duration.WithLabelValues(outcome).Observe(seconds)
	if outcome == "server" && status > 0 {
		r.failures.WithLabelValues(strconv.Itoa(status)).Inc()
	}
}

// Handler serves the default registry at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
