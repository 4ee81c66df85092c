package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry
	analyses *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
	requests *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &metrics{
		registry: reg,
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cropsight",
			Name:      "analyses_total",
			Help:      "Field analyses by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cropsight",
			Name:      "analysis_duration_seconds",
			Help:      "Time spent producing a field analysis, imagery fetch included.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"source"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cropsight",
			Name:      "analysis_cache_total",
			Help:      "Analysis cache lookups by result.",
		}, []string{"result"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cropsight",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status class.",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(m.analyses, m.duration, m.cache, m.requests)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
