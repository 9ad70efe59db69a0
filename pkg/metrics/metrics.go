// Package metrics holds the Prometheus collectors describing the form
// lifecycle: how often each event fires and how long each phase takes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "formapp"

// Recorder owns a dedicated registry; nothing is registered on the default
// registerer.
type Recorder struct {
	registry      *prometheus.Registry
	events        *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
	loadFailures  *prometheus.CounterVec
}

// Option customises a Recorder.
type Option func(*options)

type options struct {
	runtime bool
	buckets []float64
}

// WithRuntimeCollectors adds the process and Go runtime collectors.
func WithRuntimeCollectors() Option {
	return func(o *options) {
		o.runtime = true
	}
}

// WithBuckets overrides the phase duration buckets.
func WithBuckets(buckets []float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// New builds a Recorder with its collectors registered.
func New(opts ...Option) *Recorder {
	cfg := options{
		buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	r := &Recorder{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Total number of lifecycle events published on the application bus.",
			},
			[]string{"event"},
		),
		phaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Time between a phase's start event and its Complete event.",
				Buckets:   cfg.buckets,
			},
			[]string{"phase"},
		),
		loadFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "load_failures_total",
				Help:      "Total number of failed encounter or form fetches.",
			},
			[]string{"stage"},
		),
	}

	r.registry.MustRegister(r.events, r.phaseDuration, r.loadFailures)
	if cfg.runtime {
		r.registry.MustRegister(
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewGoCollector(),
		)
	}
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Event counts one published event.
func (r *Recorder) Event(name string) {
	if r == nil {
		return
	}
	r.events.WithLabelValues(name).Inc()
}

// Phase observes the duration of a completed phase.
func (r *Recorder) Phase(name string, d time.Duration) {
	if r == nil {
		return
	}
	r.phaseDuration.WithLabelValues(name).Observe(d.Seconds())
}

// LoadFailure counts a failed fetch; stage is "encounter" or "form".
func (r *Recorder) LoadFailure(stage string) {
	if r == nil {
		return
	}
	r.loadFailures.WithLabelValues(stage).Inc()
}

// Handler returns an HTTP handler exposing the recorder's metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
