package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	UpdatesAppliedTotal  = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "book_updates_applied_total", Help: "Accepted level updates by side and kind"}, []string{"side", "kind"})
	UpdatesRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "book_updates_rejected_total", Help: "Refused level updates by side and reason"}, []string{"side", "reason"})
	UpdateLatencyNs      = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "book_update_latency_ns", Help: "Time spent inside a book update", Buckets: prometheus.ExponentialBuckets(25, 2, 14)})
	LevelsLive           = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "book_levels_live", Help: "Live price levels per side at the last publish"}, []string{"side"})
	BestPrice            = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "book_best_price", Help: "Best price per side at the last publish"}, []string{"side"})
	Spread               = prometheus.NewGauge(prometheus.GaugeOpts{Name: "book_spread", Help: "Best ask minus best bid at the last publish"})
	QuotesPublishedTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "quotes_published_total", Help: "Top-of-book quotes published"})
	PublishErrorsTotal   = prometheus.NewCounter(prometheus.CounterOpts{Name: "quote_publish_errors_total", Help: "Quote publish failures"})
	FeedMessagesTotal    = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "feed_messages_total", Help: "Feed messages by outcome"}, []string{"outcome"})
	FeedRingFullTotal    = prometheus.NewCounter(prometheus.CounterOpts{Name: "feed_ring_full_total", Help: "Times the fetch loop found the hand-off ring full"})
)

func Init(logger zerolog.Logger) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	toRegister := []prometheus.Collector{
		UpdatesAppliedTotal, UpdatesRejectedTotal, UpdateLatencyNs,
		LevelsLive, BestPrice, Spread,
		QuotesPublishedTotal, PublishErrorsTotal,
		FeedMessagesTotal, FeedRingFullTotal,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		_ = reg.Register(c)
	}
	logger.Info().Msg("prometheus metrics initialized")
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
