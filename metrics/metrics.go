package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AuthDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casting_auth_decisions_total",
		Help: "Authorization outcomes by required permission and result code",
	}, []string{"permission", "result"})

	JWKSRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casting_jwks_refreshes_total",
		Help: "Key set fetches from the token issuer",
	}, []string{"status"})

	JWKSRefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "casting_jwks_refresh_duration_seconds",
		Help:    "Time spent fetching the issuer key set",
		Buckets: prometheus.ExponentialBuckets(0.01, 2.0, 10), // 10ms to ~5s
	})

	JWKSKeys = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "casting_jwks_keys",
		Help: "Number of usable keys in the current key set",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casting_http_requests_total",
		Help: "HTTP requests by route pattern, method and status",
	}, []string{"route", "method", "status"})
)
