package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	constructionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "imaged",
		Subsystem: "engine",
		Name:      "constructions_total",
		Help:      "Total full pipeline constructions",
	})

	destroysTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "imaged",
		Subsystem: "engine",
		Name:      "destroys_total",
		Help:      "Total pipeline destructions (accelerator memory reclaims)",
	})

	addonSwapsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "imaged",
		Subsystem: "engine",
		Name:      "addon_swaps_total",
		Help:      "Total add-on attach/detach swaps performed without reconstruction",
	})

	generationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "imaged",
		Subsystem: "engine",
		Name:      "generations_total",
		Help:      "Total successful generations",
	})

	failuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "imaged",
		Subsystem: "engine",
		Name:      "failures_total",
		Help:      "Total failed work items by failure kind",
	}, []string{"kind"})

	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "imaged",
		Subsystem: "engine",
		Name:      "queue_depth",
		Help:      "Work items waiting in the serialized lane",
	})

	generateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "imaged",
		Subsystem: "engine",
		Name:      "generate_duration_seconds",
		Help:      "Wall-clock duration of generate work items in seconds",
		Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})
)

func init() {
	prometheus.MustRegister(
		constructionsTotal,
		destroysTotal,
		addonSwapsTotal,
		generationsTotal,
		failuresTotal,
		queueDepth,
		generateDuration,
	)
}

// failureKind maps an error to its metrics label.
func failureKind(err error) string {
	switch {
	case IsConfigRejected(err):
		return "config_rejected"
	case IsResourceUnavailable(err):
		return "resource_unavailable"
	case IsConstructionFailed(err):
		return "construction_failed"
	case IsInferenceFailed(err):
		return "inference_failed"
	default:
		return "other"
	}
}
