package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MarketsCreatedTotal counts markets created.
	MarketsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "privymarket_markets_created_total",
		Help: "Total number of markets created",
	})

	// MarketsResolvedTotal counts markets resolved.
	MarketsResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "privymarket_markets_resolved_total",
		Help: "Total number of markets resolved",
	})

	// BetsPlacedTotal counts successful bets.
	BetsPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "privymarket_bets_placed_total",
		Help: "Total number of bets placed",
	})

	// BetAmount tracks stake sizes.
	BetAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "privymarket_bet_amount",
		Help:    "Stake size per placed bet",
		Buckets: prometheus.ExponentialBuckets(1, 10, 10),
	})

	// ClaimsPaidTotal counts successful claims.
	ClaimsPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "privymarket_claims_paid_total",
		Help: "Total number of winning claims paid out",
	})

	// PayoutAmount tracks payout sizes.
	PayoutAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "privymarket_payout_amount",
		Help:    "Payout size per successful claim",
		Buckets: prometheus.ExponentialBuckets(1, 10, 10),
	})

	// OperationDurationSeconds tracks settlement operation latency.
	OperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "privymarket_operation_duration_seconds",
			Help:    "Duration of settlement operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func observe(operation string, start time.Time) {
	OperationDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
