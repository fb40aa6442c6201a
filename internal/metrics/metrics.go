package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion Metrics
var (
	IngestedBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_blocks_total",
		Help: "The total number of blocks committed by the ingestion coordinator",
	})

	IngestedTransactions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ingest_transactions_total",
		Help: "The total number of transactions committed by the ingestion coordinator",
	})

	IngestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_failures_total",
		Help: "Ingestion failures by entity and failure kind",
	}, []string{"entity", "kind"})

	DuplicateHintsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_duplicate_hints_dropped_total",
		Help: "Hints dropped because the same hash was already in flight",
	}, []string{"entity"})

	InFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ingest_in_flight",
		Help: "The number of hashes currently being ingested",
	})

	UnitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_unit_duration_seconds",
		Help:    "Time spent fetching, normalizing and persisting one ingestion unit",
		Buckets: prometheus.DefBuckets,
	}, []string{"entity"})

	LastIngestedBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ingest_last_block_number",
		Help: "The number of the most recently committed block",
	})
)

// ChainTracker Metrics
var (
	ChainHead = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chain_tracker_chain_head",
		Help: "The latest block number reported by the node",
	})

	ActiveValidators = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "validator_tracker_active_validators",
		Help: "The number of active validators in the last snapshot",
	})
)

// Chain client metrics
var (
	PushConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rpc_push_connected",
		Help: "1 while the push subscription session is open",
	})

	PollingActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rpc_polling_active",
		Help: "1 while the polling fallback is running",
	})

	ReconnectAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpc_reconnect_attempts_total",
		Help: "The number of push subscription reconnect attempts",
	})

	HintsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_hints_emitted_total",
		Help: "Hints emitted by kind and source",
	}, []string{"kind", "source"})

	PolledBatchSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "poller_batch_size",
		Help: "The number of heights walked in a single poll",
	})
)

// Hub metrics
var (
	HubSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hub_subscribers",
		Help: "The number of connected subscribers",
	})

	HubEventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_events_published_total",
		Help: "Events published to the hub by type",
	}, []string{"event"})

	HubSubscribersEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hub_subscribers_evicted_total",
		Help: "Subscribers removed by the hub by reason",
	}, []string{"reason"})
)

// Publisher Metrics
var (
	RelayPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "publisher_relay_failures_total",
		Help: "Events that could not be relayed, by relay",
	}, []string{"relay"})

	RelayPublishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "publisher_relay_duration_seconds",
		Help:    "Time spent relaying one event",
		Buckets: prometheus.DefBuckets,
	}, []string{"relay"})
)
