package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomeRejected = "rejected"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forumfront",
		Subsystem: "backend",
		Name:      "requests_total",
		Help:      "Backend calls by operation and outcome.",
	}, []string{"op", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "forumfront",
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Backend call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
)

func observe(op, outcome string, start time.Time) {
	requestsTotal.WithLabelValues(op, outcome).Inc()
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// observeRejected counts a 2xx response whose envelope was unusable. The
// call itself was already counted as ok.
func observeRejected(op string) {
	requestsTotal.WithLabelValues(op, outcomeRejected).Inc()
}
