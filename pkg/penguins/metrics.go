package penguins

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// warehouseQueries counts SELECT statements actually sent to the warehouse.
	warehouseQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "penguinserve_warehouse_queries_total",
			Help: "Total number of table queries issued to the warehouse",
		},
		[]string{"table"},
	)

	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "penguinserve_warehouse_query_seconds",
			Help:    "Duration of the table query including fetch of all rows",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"table"},
	)

	// rowsLoaded is the size of the most recently loaded table.
	rowsLoaded = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "penguinserve_table_rows",
			Help: "Number of rows in the most recently loaded table",
		},
		[]string{"table"},
	)
)
