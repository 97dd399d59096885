// Package metrics registers the service's Prometheus collectors. Everything
// is registered on the default registry and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PriceRefreshTotal counts refresh cycles by outcome and source tag.
	PriceRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bilsan_gold_price_refresh_total",
		Help: "Gold price refresh cycles by result (success/exhausted) and source tag.",
	}, []string{"result", "source"})

	// PriceSourceFailures counts individual adapter failures by kind.
	PriceSourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bilsan_gold_price_source_failures_total",
		Help: "Gold price source failures by source name and failure kind.",
	}, []string{"source", "kind"})

	// PriceStoreFailures counts best-effort snapshot persistence failures.
	PriceStoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bilsan_gold_price_store_failures_total",
		Help: "Failed durable writes of gold price snapshots.",
	})

	// PriceRefreshDuration observes successful refresh latency in seconds.
	PriceRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bilsan_gold_price_refresh_duration_seconds",
		Help:    "Duration of successful gold price refreshes.",
		Buckets: prometheus.DefBuckets,
	})

	// GoldPricePerGram exports the currently served price per tier.
	GoldPricePerGram = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bilsan_gold_price_per_gram",
		Help: "Currently served gold price per gram by karat.",
	}, []string{"karat"})

	// OrdersCreatedTotal counts committed orders.
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bilsan_orders_created_total",
		Help: "Orders successfully created from carts.",
	})

	// OrderCreateFailures counts rejected order creations by reason.
	OrderCreateFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bilsan_order_create_failures_total",
		Help: "Order creation failures by reason.",
	}, []string{"reason"})
)
