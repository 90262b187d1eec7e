package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsAppended prometheus.Counter
	TransactionsEdited   prometheus.Counter
	TransactionsDeleted  prometheus.Counter
	ValidationRejections *prometheus.CounterVec

	// Transfer metrics
	TransfersExecuted prometheus.Counter
	TransfersDeleted  prometheus.Counter
	TransferAmount    prometheus.Histogram

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountsDeleted prometheus.Counter

	// Reconciliation metrics
	BalanceQueries      prometheus.Counter
	BalanceCacheHits    prometheus.Counter
	AuditsRun           prometheus.Counter
	AuditFindings       *prometheus.CounterVec
	LockAcquireTimeouts prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Transaction metrics
		TransactionsAppended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_transactions_appended_total",
			Help: "Total number of transactions appended",
		}),
		TransactionsEdited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_transactions_edited_total",
			Help: "Total number of transactions edited",
		}),
		TransactionsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_transactions_deleted_total",
			Help: "Total number of transactions deleted",
		}),
		ValidationRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_validation_rejections_total",
				Help: "Total writes rejected by the validation engine, by reason",
			},
			[]string{"reason"},
		),

		// Transfer metrics
		TransfersExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_transfers_executed_total",
			Help: "Total number of transfers executed",
		}),
		TransfersDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_transfers_deleted_total",
			Help: "Total number of transfers deleted",
		}),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fintrack_transfer_amount_minor_units",
			Help:    "Transfer amounts in minor units",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		}),

		// Account metrics
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_accounts_deleted_total",
			Help: "Total number of accounts deleted",
		}),

		// Reconciliation metrics
		BalanceQueries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_balance_queries_total",
			Help: "Total balance queries",
		}),
		BalanceCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_balance_cache_hits_total",
			Help: "Balance queries served from cache",
		}),
		AuditsRun: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_audits_run_total",
			Help: "Total account audits run",
		}),
		AuditFindings: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_audit_findings_total",
				Help: "Audit findings by kind",
			},
			[]string{"kind"},
		),
		LockAcquireTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fintrack_lock_acquire_timeouts_total",
			Help: "Account lock acquisitions that timed out",
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fintrack_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),
	}
}
