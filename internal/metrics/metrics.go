package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hotelbook"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	wizardTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wizard_transitions_total",
			Help:      "Booking wizard step outcomes.",
		},
		[]string{"step", "outcome"},
	)

	paymentAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_attempts_total",
			Help:      "Payment submissions by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, wizardTransitions, paymentAttempts)
	})
}

func IncHTTP(route string, code int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// IncWizard counts a wizard step outcome such as ("review", "redirect_login").
func IncWizard(step, outcome string) {
	wizardTransitions.WithLabelValues(step, outcome).Inc()
}

// IncPayment counts a payment submission by outcome: invalid, rate_limited,
// duplicate, declined, error or success.
func IncPayment(outcome string) {
	paymentAttempts.WithLabelValues(outcome).Inc()
}
