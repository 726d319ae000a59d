// Package metrics registers the Prometheus collectors for the answer pipeline
// and the audit log.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sparkai"

var (
	// AskTotal counts answered questions by outcome: answered, no_match, upstream_error, audit_error.
	AskTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ask",
		Name:      "total",
		Help:      "Questions processed by outcome.",
	}, []string{"outcome"})

	AskLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ask",
		Name:      "latency_seconds",
		Help:      "End-to-end latency of the answer pipeline.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	RankLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "rank",
		Name:      "latency_seconds",
		Help:      "Time spent scoring every clause against a question.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	Confidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ask",
		Name:      "confidence",
		Help:      "Top lexical similarity score of answered questions.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	ExplicitReferences = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ask",
		Name:      "explicit_references_total",
		Help:      "Clause references found verbatim in questions and resolved in a standard.",
	})

	CompletionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "completion",
		Name:      "latency_seconds",
		Help:      "Latency of completion calls by provider.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"provider"})

	CompletionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "completion",
		Name:      "errors_total",
		Help:      "Failed completion calls by provider.",
	}, []string{"provider"})

	AuditCorruptions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "corruptions_total",
		Help:      "Times the audit log file failed to parse and was treated as empty.",
	})

	AuditFlags = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "flag_updates_total",
		Help:      "Flag updates on audit entries by new value.",
	}, []string{"flagged"})
)
