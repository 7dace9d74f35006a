package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registration outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeClosed   = "closed"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

var (
	registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "Registration attempts by outcome",
		},
		[]string{"outcome"},
	)

	eventMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_mutations_total",
			Help: "Event writes by operation",
		},
		[]string{"op"},
	)
)

func ObserveRegistration(outcome string) {
	registrations.WithLabelValues(outcome).Inc()
}

func ObserveEventMutation(op string) {
	eventMutations.WithLabelValues(op).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
