package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cowgate_orders_total",
		Help: "The total number of order pipeline runs by terminal state",
	}, []string{"state", "scheme"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cowgate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cowgate_upstream_latency_seconds",
		Help:    "Latency of CoW API calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"call"})

	UpstreamRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cowgate_upstream_rejects_total",
		Help: "Total order rejections returned by the CoW API",
	}, []string{"status"})
)
