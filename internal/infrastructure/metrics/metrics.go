package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntitySaves tracks zone and record saves by outcome
	EntitySaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zonekeeper_entity_saves_total",
		Help: "Total number of zone and record saves",
	}, []string{"entity", "operation"})

	// ValidationFailures tracks rejected saves per offending field
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zonekeeper_validation_failures_total",
		Help: "Total number of invariant violations that stopped a save",
	}, []string{"entity", "field"})

	// FQDNRecomputations tracks derived name updates
	FQDNRecomputations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zonekeeper_fqdn_recomputations_total",
		Help: "Total number of record FQDNs recomputed",
	}, []string{"reason"})

	// BackfillRows tracks rows touched by migration backfills
	BackfillRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zonekeeper_backfill_rows_total",
		Help: "Total number of rows updated by backfill procedures",
	}, []string{"procedure"})

	// ZoneCacheOperations tracks zone lookup cache hits and misses
	ZoneCacheOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zonekeeper_zone_cache_operations_total",
		Help: "Total number of zone cache hits and misses",
	}, []string{"result"})

	// APIRequestsThrottled tracks requests rejected by the per-client rate limiter
	APIRequestsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zonekeeper_api_requests_throttled_total",
		Help: "Total number of API requests rejected by rate limiting",
	})

	// DBConnectionsActive tracks open database connections
	DBConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zonekeeper_db_connections_active",
		Help: "Number of active database connections",
	})
)
