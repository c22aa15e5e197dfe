package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreOperations tracks store operations by backend and operation
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_store_operations_total",
			Help: "Total number of telemetry store operations",
		},
		[]string{"backend", "operation"}, // "redis"|"memory", "load"|"save"|"clear"
	)

	// StoreErrors tracks failed store operations
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telemetry_store_errors_total",
			Help: "Total number of telemetry store operation errors",
		},
		[]string{"backend", "operation"},
	)

	// RecordBytes tracks the size of the last record written
	RecordBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telemetry_store_record_bytes",
			Help: "Size of the last stored telemetry record in bytes",
		},
		[]string{"backend"},
	)
)
