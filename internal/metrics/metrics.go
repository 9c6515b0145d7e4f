// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package metrics exposes Prometheus collectors for the HTTP surface, the
// theme draft/publish workflow, the live preview channel and upload grants.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	draftSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "theme",
			Name:      "draft_saves_total",
			Help:      "Draft theme writes by outcome.",
		},
		[]string{"result"},
	)

	publishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "theme",
			Name:      "publishes_total",
			Help:      "Theme publish operations by outcome.",
		},
		[]string{"result"},
	)

	previewMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "preview",
			Name:      "messages_total",
			Help:      "Preview messages offered to subscribers, by type and delivery outcome.",
		},
		[]string{"type", "outcome"},
	)

	previewSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "preview",
			Name:      "subscribers",
			Help:      "Open preview subscriptions on this instance.",
		},
	)

	uploadGrants = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "grants_total",
			Help:      "Signed upload grants by outcome.",
		},
		[]string{"result"},
	)

	pageCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storefront",
			Name:      "page_cache_total",
			Help:      "Storefront page cache lookups by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		draftSaves,
		publishes,
		previewMessages,
		previewSubscribers,
		uploadGrants,
		pageCache,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordDraftSave counts one draft write.
func RecordDraftSave(err error) {
	draftSaves.WithLabelValues(result(err)).Inc()
}

// RecordPublish counts one publish.
func RecordPublish(err error) {
	publishes.WithLabelValues(result(err)).Inc()
}

// RecordPreviewMessage counts a preview message offered to one subscriber.
func RecordPreviewMessage(msgType string, delivered bool) {
	outcome := "delivered"
	if !delivered {
		outcome = "dropped"
	}
	previewMessages.WithLabelValues(msgType, outcome).Inc()
}

// PreviewSubscribed tracks open preview subscriptions; pass -1 on close.
func PreviewSubscribed(delta int) {
	previewSubscribers.Add(float64(delta))
}

// RecordUploadGrant counts one upload grant request.
func RecordUploadGrant(err error) {
	uploadGrants.WithLabelValues(result(err)).Inc()
}

// RecordPageCache counts a storefront page cache lookup.
func RecordPageCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	pageCache.WithLabelValues(outcome).Inc()
}

// Instrument wraps the router with HTTP metrics collection. Routes are
// labelled by their chi pattern so IDs do not explode label cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
