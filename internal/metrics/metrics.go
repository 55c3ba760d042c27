package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle results.
const (
	ResultSent       = "sent"
	ResultSendFailed = "send_failed"
)

type Metrics struct {
	Cycles        *prometheus.CounterVec
	FetchFailures *prometheus.CounterVec
	SkippedItems  *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	LastCycle     prometheus.Gauge
}

// New registers the notifier collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Cycles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_cycles_total",
			Help: "Completed report cycles by outcome",
		}, []string{"result"}),

		FetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_fetch_failures_total",
			Help: "Failed account data fetches",
		}, []string{"fetch"}),

		SkippedItems: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_skipped_items_total",
			Help: "Records left out of a PnL sum because the field was missing or not numeric",
		}, []string{"field"}),

		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "notifier_cycle_duration_seconds",
			Help:    "Wall time of one fetch-format-send cycle",
			Buckets: prometheus.DefBuckets,
		}),

		LastCycle: f.NewGauge(prometheus.GaugeOpts{
			Name: "notifier_last_cycle_timestamp_seconds",
			Help: "Unix time the last cycle finished",
		}),
	}
}
