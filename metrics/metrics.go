// Package metrics exposes the Prometheus collectors of the BFF
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelMethod   = "method"
	LabelPath     = "path"
	LabelStatus   = "status"
	LabelPlatform = "platform"
	LabelOutcome  = "outcome"
	LabelEndpoint = "endpoint"
)

// Callback outcomes
const (
	OutcomeSuccess   = "success"
	OutcomeProvider  = "provider_error"
	OutcomeRejected  = "validation_error"
	OutcomeExchange  = "exchange_error"
	OutcomeDuplicate = "duplicate"
)

var HTTPLatencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15}

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_connect_http_requests_total",
			Help: "HTTP requests served, by method, route and status",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_connect_http_request_duration_seconds",
			Help:    "Latency of served HTTP requests",
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)
)

// OAuth flow metrics
var (
	OAuthRedirects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_connect_oauth_redirects_total",
			Help: "Authorization redirects issued, by platform and status",
		},
		[]string{LabelPlatform, LabelStatus},
	)

	OAuthCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_connect_oauth_callbacks_total",
			Help: "OAuth callbacks processed, by platform and outcome",
		},
		[]string{LabelPlatform, LabelOutcome},
	)
)

// Gateway metrics
var (
	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_connect_gateway_requests_total",
			Help: "Requests sent to the backend gateway, by endpoint and status",
		},
		[]string{LabelEndpoint, LabelStatus},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_connect_gateway_request_duration_seconds",
			Help:    "Latency of backend gateway requests",
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelEndpoint},
	)
)
