package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parts",
		Name:      "search_total",
		Help:      "Part searches by execution path (listing or filtered).",
	}, []string{"path"})

	importRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parts",
		Name:      "import_rows_total",
		Help:      "CSV import rows by outcome (success, error, skip).",
	}, []string{"outcome"})

	importRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parts",
		Name:      "import_runs_total",
		Help:      "CSV import runs by result (completed, interrupted, failed).",
	}, []string{"result"})

	auditedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parts",
		Name:      "audited_operations_total",
		Help:      "Audited operations by action.",
	}, []string{"action"})

	importsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "parts",
		Name:      "imports_active",
		Help:      "CSV imports currently holding a slot.",
	})
)
