// Package metrics provides lightweight instrumentation hooks for the
// redirect and link-management paths.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Recorder interface {
	IncRedirect(outcome string) // "found", "not_found", "expired"
	ObserveRedirectDuration(d time.Duration)
	IncLinkCreated()
	IncLinkDeleted()
	IncCacheHit()
	IncCacheMiss()
}

type PrometheusRecorder struct {
	registry         *prometheus.Registry
	redirects        *prometheus.CounterVec
	redirectDuration prometheus.Histogram
	linksCreated     prometheus.Counter
	linksDeleted     prometheus.Counter
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
}

func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linksnap_redirects_total",
			Help: "Redirect resolutions by outcome.",
		}, []string{"outcome"}),
		redirectDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "linksnap_redirect_duration_seconds",
			Help:    "Time spent resolving and recording a redirect.",
			Buckets: prometheus.DefBuckets,
		}),
		linksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linksnap_links_created_total",
			Help: "Links created.",
		}),
		linksDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linksnap_links_deleted_total",
			Help: "Links soft-deleted.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linksnap_analytics_cache_hits_total",
			Help: "Analytics queries served from cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linksnap_analytics_cache_misses_total",
			Help: "Analytics queries computed from the database.",
		}),
	}

	r.registry.MustRegister(
		r.redirects,
		r.redirectDuration,
		r.linksCreated,
		r.linksDeleted,
		r.cacheHits,
		r.cacheMisses,
	)
	return r
}

func (r *PrometheusRecorder) IncRedirect(outcome string) {
	r.redirects.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) ObserveRedirectDuration(d time.Duration) {
	r.redirectDuration.Observe(d.Seconds())
}

func (r *PrometheusRecorder) IncLinkCreated() { r.linksCreated.Inc() }
func (r *PrometheusRecorder) IncLinkDeleted() { r.linksDeleted.Inc() }
func (r *PrometheusRecorder) IncCacheHit()    { r.cacheHits.Inc() }
func (r *PrometheusRecorder) IncCacheMiss()   { r.cacheMisses.Inc() }

func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// NopRecorder discards all observations. Used in tests.
type NopRecorder struct{}

func (NopRecorder) IncRedirect(string)                    {}
func (NopRecorder) ObserveRedirectDuration(time.Duration) {}
func (NopRecorder) IncLinkCreated()                       {}
func (NopRecorder) IncLinkDeleted()                       {}
func (NopRecorder) IncCacheHit()                          {}
func (NopRecorder) IncCacheMiss()                         {}
