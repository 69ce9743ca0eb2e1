package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(aiCallsLatencyMs, aiPromptTokens)
}

var aiCallsLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ai_calls_latency_ms",
		Help:    "AI gateway call latency distribution in milliseconds.",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
	},
	[]string{"operation", "success"},
)

var aiPromptTokens = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ai_prompt_tokens_total",
		Help: "Prompt tokens submitted to the AI gateway, by operation.",
	},
	[]string{"operation"},
)

func ObserveAICall(operation string, latencyMs int, success bool) {
	aiCallsLatencyMs.WithLabelValues(norm(operation), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}

func AddAIPromptTokens(operation string, tokens int) {
	aiPromptTokens.WithLabelValues(norm(operation)).Add(float64(tokens))
}
