// Package cache provides the persisted lookup cache. This file defines the
// Prometheus counters for cache effectiveness per backend.
package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_cache_hits_total",
		Help: "Lookup cache reads that returned a live entry, per backend.",
	}, []string{"backend"})

	misses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tally_cache_misses_total",
		Help: "Lookup cache reads that found no live entry, per backend.",
	}, []string{"backend"})
)

func recordHit(backend string)  { hits.WithLabelValues(backend).Inc() }
func recordMiss(backend string) { misses.WithLabelValues(backend).Inc() }
