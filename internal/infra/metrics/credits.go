package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(creditsReserved, creditsRefunded, rateLimitRejections)
}

var (
	creditsReserved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_reserved_total",
			Help: "Credits reserved against the ledger, by reason class.",
		},
		[]string{"kind"}, // pipeline, operation
	)

	creditsRefunded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_refunded_total",
			Help: "Credits refunded to the ledger, by reason class.",
		},
		[]string{"kind"}, // cancel, operation_failed
	)

	rateLimitRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Metered calls rejected by the per-user rate limiter.",
		},
	)
)

func AddCreditsReserved(kind string, amount int) {
	creditsReserved.WithLabelValues(norm(kind)).Add(float64(amount))
}

func AddCreditsRefunded(kind string, amount int) {
	creditsRefunded.WithLabelValues(norm(kind)).Add(float64(amount))
}

func IncRateLimited() { rateLimitRejections.Inc() }
