// Package metrics provides the Prometheus metrics of the API process.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

var (
	// IndexProvisioningTotal counts article index provisioning attempts by outcome
	IndexProvisioningTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "article_index_provisioning_total",
			Help: "Article index provisioning attempts by result",
		},
		[]string{"result"},
	)

	// ArticlesCreatedTotal counts articles created through the repository
	ArticlesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "articles_created_total",
			Help: "Total number of articles created",
		},
	)
)

const (
	ProvisioningReady  = "ready"
	ProvisioningFailed = "failed"
)
