package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Wallet metrics
	WalletsCreated    prometheus.Counter
	FundsLocked       prometheus.Counter
	LockedAmount      prometheus.Histogram
	WalletOperations  *prometheus.CounterVec
	InsufficientFunds prometheus.Counter
	TransactionReview *prometheus.CounterVec

	// Booking metrics
	BookingsReserved   prometheus.Counter
	SlotConflicts      prometheus.Counter
	BookingTransitions *prometheus.CounterVec

	// Escrow metrics
	EscrowReleased    prometheus.Counter
	EscrowRefunded    prometheus.Counter
	CommissionEarned  prometheus.Counter
	SettlementLatency prometheus.Histogram

	// Dispute metrics
	DisputesRaised   prometheus.Counter
	DisputesResolved *prometheus.CounterVec

	// Background worker metrics
	SweeperRuns          *prometheus.CounterVec
	NotificationsSent    *prometheus.CounterVec
	SerializationRetries prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec

	// Invariant violations. Any non-zero value needs investigation.
	InvariantViolations *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registry
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Wallet metrics
		WalletsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutorescrow_wallets_created_total",
			Help: "Total number of wallets created",
		}),
		FundsLocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutorescrow_funds_locked_total",
			Help: "Total number of escrow locks",
		}),
		LockedAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tutorescrow_locked_amount",
			Help:    "Amounts moved into escrow",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 5000},
		}),
		WalletOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorescrow_wallet_operations_total",
				Help: "Total wallet mutations by entry type",
			},
			[]string{"entry_type"},
		),
		InsufficientFunds: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutorescrow_insufficient_balance_total",
			Help: "Total number of operations rejected for insufficient balance",
		}),
		TransactionReview: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorescrow_transaction_reviews_total",
				Help: "Deposit and withdrawal reviews by outcome",
			},
			[]string{"entry_type", "outcome"},
		),

		// Booking metrics
		BookingsReserved: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutorescrow_bookings_reserved_total",
			Help: "Total number of booking slots reserved",
		}),
		SlotConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutorescrow_slot_conflicts_total",
			Help: "Total number of reservations rejected because the slot was taken",
		}),
		BookingTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorescrow_booking_transitions_total",
				Help: "Booking status transitions by target status",
			},
			[]string{"status"},
		),

		// Escrow metrics
		EscrowReleased: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutorescrow_escrow_released_total",
			Help: "Total number of escrow releases to teachers",
		}),
		EscrowRefunded: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutorescrow_escrow_refunded_total",
			Help: "Total number of escrow refunds to payers",
		}),
		CommissionEarned: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutorescrow_commission_earned",
			Help: "Platform commission retained on settlements",
		}),
		SettlementLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tutorescrow_settlement_duration_seconds",
			Help:    "Duration of settlement transactions including retries",
			Buckets: prometheus.DefBuckets,
		}),

		// Dispute metrics
		DisputesRaised: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutorescrow_disputes_raised_total",
			Help: "Total number of disputes raised",
		}),
		DisputesResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorescrow_disputes_resolved_total",
				Help: "Disputes resolved by resolution type",
			},
			[]string{"resolution"},
		),

		// Background worker metrics
		SweeperRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorescrow_sweeper_bookings_total",
				Help: "Bookings processed by the escrow sweeper by action",
			},
			[]string{"action"},
		),
		NotificationsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorescrow_notifications_total",
				Help: "Notification deliveries by outcome",
			},
			[]string{"outcome"},
		),
		SerializationRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "tutorescrow_serialization_retries_total",
			Help: "Transactions retried after a serialization failure or deadlock",
		}),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorescrow_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tutorescrow_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Redis metrics
		RedisOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorescrow_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation", "status"},
		),
		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorescrow_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorescrow_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"path"},
		),

		// Audit metrics
		AuditLogsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorescrow_audit_logs_created_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),

		InvariantViolations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutorescrow_invariant_violations_total",
				Help: "Ledger invariant violations detected at runtime",
			},
			[]string{"kind"},
		),
	}
}
