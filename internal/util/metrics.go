package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_updated_total",
		Help: "Total number of orders edited",
	})

	OrdersDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_deleted_total",
		Help: "Total number of orders deleted",
	})

	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aggregate_mutations_total",
		Help: "Total number of aggregate mutations by kind",
	}, []string{"kind"})

	LocalSavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "local_snapshot_saves_total",
		Help: "Total number of local snapshot writes",
	})

	LocalSaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "local_snapshot_save_failures_total",
		Help: "Total number of swallowed local snapshot write failures",
	})

	SyncPushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_pushes_total",
		Help: "Total number of remote aggregate pushes attempted",
	})

	SyncPushFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_push_failures_total",
		Help: "Total number of failed remote pushes",
	}, []string{"reason"})

	SyncPushLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_push_latency_seconds",
		Help:    "Latency of remote aggregate pushes",
		Buckets: prometheus.DefBuckets,
	})

	SyncFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_fetches_total",
		Help: "Total number of remote aggregate fetches by resulting status",
	}, []string{"status"})

	BackupsExportedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backups_exported_total",
		Help: "Total number of backup snapshots exported",
	})

	BackupsImportedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backups_imported_total",
		Help: "Total number of backup snapshots imported",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
