package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(pipelinesStarted, pipelinesFinished, pipelineSteps)
}

var (
	pipelinesStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipelines_started_total",
			Help: "Pipelines admitted and detached for execution.",
		},
	)

	pipelinesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipelines_finished_total",
			Help: "Pipelines reaching a terminal status, labeled by status.",
		},
		[]string{"status"}, // completed, failed, cancelled
	)

	pipelineSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_steps_total",
			Help: "Pipeline steps reaching a terminal status, by kind and status.",
		},
		[]string{"kind", "status"},
	)
)

func IncPipelineStarted() { pipelinesStarted.Inc() }

func IncPipelineFinished(status string) {
	pipelinesFinished.WithLabelValues(norm(status)).Inc()
}

func IncPipelineStep(kind, status string) {
	pipelineSteps.WithLabelValues(norm(kind), norm(status)).Inc()
}
