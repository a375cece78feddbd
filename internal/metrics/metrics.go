package metrics

import (
	"strconv"

	"github.com/alitto/pond/v2"
	"github.com/dlmiddlecote/sqlstats"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

type MetricsService interface {
	RegisterPoolMetrics(channel string, pool pond.Pool)
	GetRegistry() *prometheus.Registry
	// Indexer RPC Metrics
	IncRPCMethodCalls(method string)
	ObserveRPCMethodDuration(method string, duration float64)
	IncRPCMethodErrors(method, errorType string)
	// HTTP Request Metrics
	IncNumRequests(endpoint, method string, statusCode int)
	ObserveRequestDuration(endpoint, method string, duration float64)
	// DB Metrics
	ObserveDBQueryDuration(queryType, table string, duration float64)
	IncDBQuery(queryType, table string)
	IncDBQueryError(queryType, table, errorType string)
	IncDBTransaction(status string)
	ObserveDBTransactionDuration(status string, duration float64)
	ObserveDBBatchSize(operation, table string, size int)
	// Snapshot Metrics
	IncSnapshotRuns(status string)
	ObserveSnapshotDuration(status string, duration float64)
	ObserveSnapshotPages(pages int)
	ObserveSnapshotHolders(holders int)
	IncSnapshotTruncated()
	IncSnapshotFailedBatches(count int)
	IncSkippedCoinObjects(reason string)
}

// metricsService handles all metrics for the migrate-backend
type metricsService struct {
	registry *prometheus.Registry
	db       *sqlx.DB

	// Indexer RPC Metrics
	rpcMethodCallsTotal  *prometheus.CounterVec
	rpcMethodDuration    *prometheus.SummaryVec
	rpcMethodErrorsTotal *prometheus.CounterVec

	// HTTP Request Metrics
	numRequestsTotal *prometheus.CounterVec
	requestsDuration *prometheus.SummaryVec

	// DB Query Metrics
	dbQueryDuration *prometheus.SummaryVec
	dbQueriesTotal  *prometheus.CounterVec
	dbQueryErrors   *prometheus.CounterVec
	dbTransactions  *prometheus.CounterVec
	dbTxnDuration   *prometheus.SummaryVec
	dbBatchSize     *prometheus.HistogramVec

	// Snapshot Metrics
	snapshotRunsTotal          *prometheus.CounterVec
	snapshotDuration           *prometheus.HistogramVec
	snapshotPages              prometheus.Histogram
	snapshotHolders            prometheus.Histogram
	snapshotTruncatedTotal     prometheus.Counter
	snapshotFailedBatchesTotal prometheus.Counter
	skippedCoinObjectsTotal    *prometheus.CounterVec
}

// NewMetricsService creates a new metrics service with all metrics registered. The DB pool collector is only
// registered when db is not nil.
func NewMetricsService(db *sqlx.DB) MetricsService {
	m := &metricsService{
		registry: prometheus.NewRegistry(),
		db:       db,
	}

	// Indexer RPC Metrics
	m.rpcMethodCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_method_calls_total",
			Help: "Total number of indexer GraphQL calls",
		},
		[]string{"method"},
	)
	m.rpcMethodDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "rpc_method_duration_seconds",
			Help:       "Duration of indexer GraphQL calls including response decoding",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"method"},
	)
	m.rpcMethodErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_method_errors_total",
			Help: "Total number of indexer GraphQL call errors by error type",
		},
		[]string{"method", "error_type"},
	)

	// HTTP Request Metrics
	m.numRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.requestsDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "http_request_duration_seconds",
			Help:       "Duration of HTTP requests in seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"endpoint", "method"},
	)

	// DB Query Metrics
	m.dbQueryDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "db_query_duration_seconds",
			Help:       "Duration of database queries",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"query_type", "table"},
	)
	m.dbQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)
	m.dbQueryErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"query_type", "table", "error_type"},
	)
	m.dbTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_transactions_total",
			Help: "Total number of database transactions",
		},
		[]string{"status"},
	)
	m.dbTxnDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "db_transaction_duration_seconds",
			Help:       "Duration of database transactions",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"status"},
	)
	m.dbBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_batch_operation_size",
			Help:    "Size of batch database operations",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11), // 1 .. 1024
		},
		[]string{"operation", "table"},
	)

	// Snapshot Metrics
	m.snapshotRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_runs_total",
			Help: "Total number of holder snapshot runs by final status",
		},
		[]string{"status"},
	)
	m.snapshotDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snapshot_duration_seconds",
			Help:    "Duration of holder snapshot runs",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)
	m.snapshotPages = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapshot_pages_fetched",
			Help:    "Number of indexer pages fetched per snapshot run",
			Buckets: []float64{1, 2, 5, 10, 50, 100, 500, 1000, 2000},
		},
	)
	m.snapshotHolders = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "snapshot_holders",
			Help:    "Number of distinct holders per snapshot run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
	m.snapshotTruncatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_truncated_total",
			Help: "Total number of snapshot runs that stopped at the page cap",
		},
	)
	m.snapshotFailedBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "snapshot_failed_batches_total",
			Help: "Total number of holder batches that failed to persist",
		},
	)
	m.skippedCoinObjectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_skipped_coin_objects_total",
			Help: "Total number of coin objects excluded from snapshots by reason",
		},
		[]string{"reason"},
	)

	m.registerMetrics()
	return m
}

func (m *metricsService) registerMetrics() {
	if m.db != nil {
		m.registry.MustRegister(sqlstats.NewStatsCollector("migrate-backend-db", m.db))
	}
	m.registry.MustRegister(
		m.rpcMethodCallsTotal,
		m.rpcMethodDuration,
		m.rpcMethodErrorsTotal,
		m.numRequestsTotal,
		m.requestsDuration,
		m.dbQueryDuration,
		m.dbQueriesTotal,
		m.dbQueryErrors,
		m.dbTransactions,
		m.dbTxnDuration,
		m.dbBatchSize,
		m.snapshotRunsTotal,
		m.snapshotDuration,
		m.snapshotPages,
		m.snapshotHolders,
		m.snapshotTruncatedTotal,
		m.snapshotFailedBatchesTotal,
		m.skippedCoinObjectsTotal,
	)
}

// RegisterPoolMetrics exposes the state of a pond pool under the given channel label.
func (m *metricsService) RegisterPoolMetrics(channel string, pool pond.Pool) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "pool_workers_running",
			Help:        "Number of running worker goroutines",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.RunningWorkers())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_submitted_total",
			Help:        "Number of tasks submitted",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.SubmittedTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name:        "pool_tasks_waiting",
			Help:        "Number of tasks currently waiting in the queue",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.WaitingTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_failed_total",
			Help:        "Number of tasks that completed with an error or panic",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.FailedTasks())
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name:        "pool_tasks_completed_total",
			Help:        "Number of tasks that completed either successfully or with an error",
			ConstLabels: prometheus.Labels{"channel": channel},
		},
		func() float64 {
			return float64(pool.CompletedTasks())
		},
	))
}

// GetRegistry returns the prometheus registry
func (m *metricsService) GetRegistry() *prometheus.Registry {
	return m.registry
}

// Indexer RPC Metrics
func (m *metricsService) IncRPCMethodCalls(method string) {
	m.rpcMethodCallsTotal.WithLabelValues(method).Inc()
}

func (m *metricsService) ObserveRPCMethodDuration(method string, duration float64) {
	m.rpcMethodDuration.WithLabelValues(method).Observe(duration)
}

func (m *metricsService) IncRPCMethodErrors(method, errorType string) {
	m.rpcMethodErrorsTotal.WithLabelValues(method, errorType).Inc()
}

// HTTP Request Metrics
func (m *metricsService) IncNumRequests(endpoint, method string, statusCode int) {
	m.numRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Inc()
}

func (m *metricsService) ObserveRequestDuration(endpoint, method string, duration float64) {
	m.requestsDuration.WithLabelValues(endpoint, method).Observe(duration)
}

// DB Query Metrics
func (m *metricsService) ObserveDBQueryDuration(queryType, table string, duration float64) {
	m.dbQueryDuration.WithLabelValues(queryType, table).Observe(duration)
}

func (m *metricsService) IncDBQuery(queryType, table string) {
	m.dbQueriesTotal.WithLabelValues(queryType, table).Inc()
}

func (m *metricsService) IncDBQueryError(queryType, table, errorType string) {
	m.dbQueryErrors.WithLabelValues(queryType, table, errorType).Inc()
}

func (m *metricsService) IncDBTransaction(status string) {
	m.dbTransactions.WithLabelValues(status).Inc()
}

func (m *metricsService) ObserveDBTransactionDuration(status string, duration float64) {
	m.dbTxnDuration.WithLabelValues(status).Observe(duration)
}

func (m *metricsService) ObserveDBBatchSize(operation, table string, size int) {
	m.dbBatchSize.WithLabelValues(operation, table).Observe(float64(size))
}

// Snapshot Metrics
func (m *metricsService) IncSnapshotRuns(status string) {
	m.snapshotRunsTotal.WithLabelValues(status).Inc()
}

func (m *metricsService) ObserveSnapshotDuration(status string, duration float64) {
	m.snapshotDuration.WithLabelValues(status).Observe(duration)
}

func (m *metricsService) ObserveSnapshotPages(pages int) {
	m.snapshotPages.Observe(float64(pages))
}

func (m *metricsService) ObserveSnapshotHolders(holders int) {
	m.snapshotHolders.Observe(float64(holders))
}

func (m *metricsService) IncSnapshotTruncated() {
	m.snapshotTruncatedTotal.Inc()
}

func (m *metricsService) IncSnapshotFailedBatches(count int) {
	m.snapshotFailedBatchesTotal.Add(float64(count))
}

func (m *metricsService) IncSkippedCoinObjects(reason string) {
	m.skippedCoinObjectsTotal.WithLabelValues(reason).Inc()
}
