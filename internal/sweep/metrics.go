package sweep

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cyclesTotal counts finished cycles by outcome.
	cyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweeper_cycles_total",
			Help: "Total number of sweep cycles by outcome",
		},
		[]string{"outcome"},
	)

	cycleDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sweeper_cycle_duration_seconds",
		Help:    "Duration of a sweep cycle including venue calls",
		Buckets: prometheus.DefBuckets,
	})

	tradesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_trades_recorded_total",
		Help: "Total number of closed trades appended to the trade log",
	})

	// lastProfit is the profit observed by the most recent cycle that could
	// determine one.
	lastProfit = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sweeper_last_profit",
		Help: "Realized profit counted by the last successful aggregation",
	})

	transferredAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_transferred_amount_total",
		Help: "Cumulative amount moved by acknowledged transfers",
	})

	transfersFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_transfers_failed_total",
		Help: "Total number of transfers the venue rejected or that failed in transport",
	})
)
