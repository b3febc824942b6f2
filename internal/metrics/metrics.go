// Package metrics provides Prometheus instrumentation for sharded queries.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "entitymanager"

// Query collects executor metrics. A nil *Query records nothing.
type Query struct {
	queries      *prometheus.CounterVec
	rounds       *prometheus.CounterVec
	shardQueries *prometheus.CounterVec
	items        *prometheus.CounterVec
	duration     *prometheus.HistogramVec
}

// NewQuery creates the executor metrics and registers them with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewQuery(reg prometheus.Registerer) *Query {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	q := &Query{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Sharded queries executed, by entity and outcome.",
		}, []string{"entity", "outcome"}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_rounds_total",
			Help:      "Scatter-gather rounds executed, by entity.",
		}, []string{"entity"}),
		shardQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shard_queries_total",
			Help:      "Per-shard query calls, by entity and index.",
		}, []string{"entity", "index"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_items_total",
			Help:      "Items returned after deduplication, by entity.",
		}, []string{"entity"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Wall time of sharded queries, by entity.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"entity"}),
	}
	reg.MustRegister(q.queries, q.rounds, q.shardQueries, q.items, q.duration)
	return q
}

// ObserveRound records one completed round.
func (q *Query) ObserveRound(entity string) {
	if q == nil {
		return
	}
	q.rounds.WithLabelValues(entity).Inc()
}

// ObserveShardQuery records one per-shard query call.
func (q *Query) ObserveShardQuery(entity, index string) {
	if q == nil {
		return
	}
	q.shardQueries.WithLabelValues(entity, index).Inc()
}

// ObserveQuery records a finished query.
func (q *Query) ObserveQuery(entity string, items int, elapsed time.Duration, err error) {
	if q == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	q.queries.WithLabelValues(entity, outcome).Inc()
	q.items.WithLabelValues(entity).Add(float64(items))
	q.duration.WithLabelValues(entity).Observe(elapsed.Seconds())
}
