package ensemble

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	recordsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mlipens",
			Subsystem: "ensemble",
			Name:      "records_processed_total",
			Help:      "Total number of batch records fully processed",
		},
	)

	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mlipens",
			Subsystem: "ensemble",
			Name:      "predictions_total",
			Help:      "Per-model prediction outcomes",
		},
		[]string{"model", "status"},
	)
)

func init() {
	prometheus.MustRegister(recordsProcessed, predictionsTotal)
}
