package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks logical calls by action and terminal outcome
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_requests_total",
			Help: "Total number of logical ledger requests by outcome",
		},
		[]string{"action", "outcome"},
	)

	// AttemptsTotal tracks physical POSTs per action
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_attempts_total",
			Help: "Total number of physical HTTP attempts",
		},
		[]string{"action"},
	)

	// RetriesTotal tracks retried attempts by the reason of the previous failure
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_retries_total",
			Help: "Total number of retries by failure reason",
		},
		[]string{"action", "reason"},
	)

	// AttemptLatency tracks the latency of a single physical attempt
	AttemptLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_attempt_latency_seconds",
			Help:    "Latency of a single HTTP attempt in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// PagesFetched tracks pages fetched by list iterators
	PagesFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_pages_fetched_total",
			Help: "Total number of pages fetched",
		},
		[]string{"action"},
	)

	// ItemsYielded tracks items handed to iterator consumers
	ItemsYielded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_items_yielded_total",
			Help: "Total number of items yielded by iterators",
		},
		[]string{"action"},
	)
)

var (
	// CheckpointDBConnections tracks checkpoint database connections by state
	CheckpointDBConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_checkpoint_db_connections",
			Help: "Checkpoint database connections by state",
		},
		[]string{"driver", "state"},
	)

	// CheckpointDBWaits tracks how often a checkpoint write waited for a connection
	CheckpointDBWaits = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ledger_checkpoint_db_waits",
			Help: "Cumulative number of waits for a checkpoint database connection",
		},
		[]string{"driver"},
	)

	// CheckpointSaves tracks checkpoint writes per backend
	CheckpointSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_checkpoint_saves_total",
			Help: "Total number of checkpoint writes",
		},
		[]string{"backend"},
	)
)
