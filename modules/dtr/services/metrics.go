package services

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	rowsTotal        *prometheus.CounterVec
	runsTotal        *prometheus.CounterVec
	submissionsTotal *prometheus.CounterVec
	resolutionsTotal *prometheus.CounterVec
}

var metricsSingleton = sync.OnceValue(func() *metrics {
	return &metrics{
		rowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dtr",
			Name:      "import_rows_total",
			Help:      "Parsed source rows by outcome.",
		}, []string{"status"}),
		runsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dtr",
			Name:      "import_runs_total",
			Help:      "Import runs that reached a state.",
		}, []string{"state"}),
		submissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dtr",
			Name:      "submissions_total",
			Help:      "Batch submissions by result.",
		}, []string{"result"}),
		resolutionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dtr",
			Name:      "identity_resolutions_total",
			Help:      "Row identity resolutions by method.",
		}, []string{"method"}),
	}
})

func getMetrics() *metrics {
	return metricsSingleton()
}
