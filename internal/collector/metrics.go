package collector

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once
	mc   *MetricsCollector
)

// MetricsCollector exposes Prometheus metrics for bulk sync orchestration.
type MetricsCollector struct {
	bulkRunsTotal       *prometheus.CounterVec // Bulk runs started, by operation
	bulkRunsCancelled   *prometheus.CounterVec // Bulk runs that ended cancelled, by operation
	accountSyncsTotal   *prometheus.CounterVec // Per-account outcomes, by operation and status
	accountSyncDuration *prometheus.HistogramVec
	itemsSynced         *prometheus.CounterVec // Items reported synced, by phase
	auditDispatches     *prometheus.CounterVec // Audit requests handed to the audit engine
}

func GetMetricsCollector() (*MetricsCollector, error) {
	if mc == nil {
		return nil, fmt.Errorf("MetricsCollector not initialized")
	}
	return mc, nil
}

func NewMetricsCollector() *MetricsCollector {
	once.Do(func() {
		mc = &MetricsCollector{
			bulkRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "adaudit_bulk_runs_total",
				Help: "Total number of bulk sync runs started by operation.",
			}, []string{"operation"}),

			bulkRunsCancelled: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "adaudit_bulk_runs_cancelled_total",
				Help: "Total number of bulk sync runs that ended cancelled.",
			}, []string{"operation"}),

			accountSyncsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "adaudit_account_syncs_total",
				Help: "Per-account sync outcomes by operation and terminal status.",
			}, []string{"operation", "status"}),

			accountSyncDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "adaudit_account_sync_duration_seconds",
				Help:    "Duration of single-account sync sessions in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
			}, []string{"operation"}),

			itemsSynced: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "adaudit_items_synced_total",
				Help: "Total number of items reported synced by phase name.",
			}, []string{"phase"}),

			auditDispatches: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "adaudit_audit_dispatches_total",
				Help: "Total number of audit requests dispatched by result.",
			}, []string{"result"}),
		}
	})

	return mc
}

func (mc *MetricsCollector) RecordBulkRunStarted(operation string) {
	mc.bulkRunsTotal.With(prometheus.Labels{"operation": operation}).Inc()
}

func (mc *MetricsCollector) RecordBulkRunCancelled(operation string) {
	mc.bulkRunsCancelled.With(prometheus.Labels{"operation": operation}).Inc()
}

func (mc *MetricsCollector) RecordAccountSync(operation, status string, duration time.Duration) {
	mc.accountSyncsTotal.With(prometheus.Labels{"operation": operation, "status": status}).Inc()
	mc.accountSyncDuration.With(prometheus.Labels{"operation": operation}).Observe(duration.Seconds())
}

func (mc *MetricsCollector) AddItemsSynced(phase string, count int) {
	mc.itemsSynced.With(prometheus.Labels{"phase": phase}).Add(float64(count))
}

func (mc *MetricsCollector) RecordAuditDispatch(result string) {
	mc.auditDispatches.With(prometheus.Labels{"result": result}).Inc()
}
