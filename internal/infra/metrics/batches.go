package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(batchesStarted, batchesFinished, batchItems)
}

var (
	batchesStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "batches_started_total",
			Help: "Batches admitted and detached for execution.",
		},
	)

	batchesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batches_finished_total",
			Help: "Batches reaching a terminal status, labeled by status.",
		},
		[]string{"status"}, // completed, partially_failed
	)

	batchItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_items_total",
			Help: "Batch items reaching a terminal status, by operation and status.",
		},
		[]string{"operation", "status"},
	)
)

func IncBatchStarted() { batchesStarted.Inc() }

func IncBatchFinished(status string) {
	batchesFinished.WithLabelValues(norm(status)).Inc()
}

func IncBatchItem(operation, status string) {
	batchItems.WithLabelValues(norm(operation), norm(status)).Inc()
}
