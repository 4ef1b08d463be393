// Package metrics exposes Prometheus collectors for the launcher's job
// activity.
package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	jobsLaunched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rsi",
			Subsystem: "jobs",
			Name:      "launched_total",
			Help:      "Number of processes started, by foreground/background mode.",
		}, []string{"mode"},
	)
	jobSignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rsi",
			Subsystem: "job",
			Name:      "signals_total",
			Help:      "Number of signals delivered to background jobs.",
		}, []string{"signal"},
	)
	signalFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rsi",
			Subsystem: "job",
			Name:      "signal_failures_total",
			Help:      "Number of signals that could not be delivered to background jobs.",
		}, []string{"signal"},
	)
	jobsReaped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rsi",
			Subsystem: "jobs",
			Name:      "reaped_total",
			Help:      "Number of background jobs removed after their process exited.",
		},
	)
	jobsTracked = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rsi",
			Subsystem: "jobs",
			Name:      "tracked",
			Help:      "Current number of background jobs in the registry.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{jobsLaunched, jobSignals, signalFailures, jobsReaped, jobsTracked}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves metrics gathered from g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncLaunched(mode string) {
	if regOK.Load() {
		jobsLaunched.WithLabelValues(mode).Inc()
	}
}

func IncSignal(signal string) {
	if regOK.Load() {
		jobSignals.WithLabelValues(signal).Inc()
	}
}

func IncSignalFailure(signal string) {
	if regOK.Load() {
		signalFailures.WithLabelValues(signal).Inc()
	}
}

func IncReaped() {
	if regOK.Load() {
		jobsReaped.Inc()
	}
}

func SetTracked(n int) {
	if regOK.Load() {
		jobsTracked.Set(float64(n))
	}
}
