// Copyright Contributors to the Open Cluster Management project

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PromRegistry = prometheus.NewRegistry()

	RequestDuration = promauto.With(PromRegistry).NewHistogramVec(prometheus.HistogramOpts{
		Name: "circuit_reconciler_request_duration",
		Help: "Time (seconds) the reconciler takes to process an API request.",
	}, []string{"code"})

	RequestCount = promauto.With(PromRegistry).NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_reconciler_request_count",
		Help: "The total number of incoming API requests to the reconciler.",
	}, []string{"route", "code"})

	RequestsInFlight = promauto.With(PromRegistry).NewGauge(prometheus.GaugeOpts{
		Name: "circuit_reconciler_requests_in_flight",
		Help: "The number of API requests currently being processed.",
	})

	OutboundDuration = promauto.With(PromRegistry).NewHistogramVec(prometheus.HistogramOpts{
		Name: "circuit_reconciler_outbound_duration",
		Help: "Time (seconds) spent on calls to BPO, the RA, FortiGate devices and the Granite database.",
	}, []string{"system", "code"})

	PlanRuns = promauto.With(PromRegistry).NewCounterVec(prometheus.CounterOpts{
		Name: "circuit_reconciler_plan_runs",
		Help: "Plan executions by resource type and final state.",
	}, []string{"resource_type", "state"})
)
