package sync

import "github.com/prometheus/client_golang/prometheus"

var (
	passes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kiln",
		Subsystem: "sync",
		Name:      "passes_total",
		Help:      "Reconciliation passes by outcome",
	}, []string{"syncer", "status"})

	entriesSaved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kiln",
		Subsystem: "sync",
		Name:      "entries_saved_total",
		Help:      "Entries written during backfill",
	}, []string{"syncer"})

	headHeight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "kiln",
		Subsystem: "sync",
		Name:      "head_height",
		Help:      "Highest height synced to the store",
	}, []string{"syncer"})

	passDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kiln",
		Subsystem: "sync",
		Name:      "pass_duration_seconds",
		Help:      "Reconciliation pass latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"syncer"})
)

func init() {
	prometheus.MustRegister(passes, entriesSaved, headHeight, passDuration)
}
