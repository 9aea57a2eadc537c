// Package metrics holds the Prometheus collectors shared by planner processes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the planner collectors on a private prometheus.Registry.
type Registry struct {
	reg *prometheus.Registry

	AvailabilityComputed *prometheus.CounterVec
	AvailabilityLatency  prometheus.Histogram
	RecordsRejected      *prometheus.CounterVec
	DayOverflows         *prometheus.CounterVec
	OutboxPublished      prometheus.Counter
	OutboxFailures       prometheus.Counter
	EventsConsumed       *prometheus.CounterVec
}

func NewRegistry(service string) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	constLabels := prometheus.Labels{"service": service}

	r := &Registry{
		reg: reg,
		AvailabilityComputed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "planner_availability_computed_total",
			Help:        "Day availability computations by caller.",
			ConstLabels: constLabels,
		}, []string{"caller"}),
		AvailabilityLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "planner_availability_duration_seconds",
			Help:        "Time spent fetching sources and computing a day's availability.",
			ConstLabels: constLabels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		RecordsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "planner_records_rejected_total",
			Help:        "Scheduled items rejected by the normalizer.",
			ConstLabels: constLabels,
		}, []string{"source_kind", "reason"}),
		DayOverflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "planner_day_overflow_total",
			Help:        "Busy intervals clamped at the end of the day.",
			ConstLabels: constLabels,
		}, []string{"source_kind"}),
		OutboxPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "planner_outbox_published_total",
			Help:        "Outbox events written to Kafka.",
			ConstLabels: constLabels,
		}),
		OutboxFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "planner_outbox_failures_total",
			Help:        "Outbox publish batches that failed.",
			ConstLabels: constLabels,
		}),
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "planner_events_consumed_total",
			Help:        "Kafka events consumed by outcome.",
			ConstLabels: constLabels,
		}, []string{"topic", "outcome"}),
	}
	reg.MustRegister(
		r.AvailabilityComputed,
		r.AvailabilityLatency,
		r.RecordsRejected,
		r.DayOverflows,
		r.OutboxPublished,
		r.OutboxFailures,
		r.EventsConsumed,
	)
	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
