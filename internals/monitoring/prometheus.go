package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder exports measurements as Prometheus metrics
type PrometheusRecorder struct {
	encodes   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	stale     prometheus.Counter
	cache     *prometheus.CounterVec
	shares    *prometheus.CounterVec
	liveGauge prometheus.Gauge
}

// NewPrometheusRecorder registers the cryptopay collectors with reg
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		encodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cryptopay",
				Name:      "qr_encodes_total",
				Help:      "QR encode calls by backend and result",
			},
			[]string{"backend", "result"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cryptopay",
				Name:      "qr_encode_seconds",
				Help:      "QR encode latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"backend"},
		),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cryptopay",
			Name:      "qr_stale_completions_total",
			Help:      "Encode completions discarded because newer input arrived",
		}),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cryptopay",
				Name:      "qr_cache_lookups_total",
				Help:      "QR cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		shares: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cryptopay",
				Name:      "shares_total",
				Help:      "QR images handed to a sink, by sink and result",
			},
			[]string{"sink", "result"},
		),
		liveGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cryptopay",
			Name:      "live_sessions",
			Help:      "Open live generator sessions",
		}),
	}

	reg.MustRegister(r.encodes, r.latency, r.stale, r.cache, r.shares, r.liveGauge)
	return r
}

func (r *PrometheusRecorder) ObserveEncode(backend string, took time.Duration, err error) {
	r.encodes.WithLabelValues(backend, result(err)).Inc()
	r.latency.WithLabelValues(backend).Observe(took.Seconds())
}

func (r *PrometheusRecorder) StaleDiscarded() {
	r.stale.Inc()
}

func (r *PrometheusRecorder) CacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cache.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) ObserveShare(sink string, err error) {
	r.shares.WithLabelValues(sink, result(err)).Inc()
}

// SetLiveSessions reports the number of open live sessions
func (r *PrometheusRecorder) SetLiveSessions(n int) {
	r.liveGauge.Set(float64(n))
}
