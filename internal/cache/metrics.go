package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cotpulse_cache_hits_total",
		Help: "Cache reads served from a live entry, per cache instance",
	}, []string{"cache"})

	missesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cotpulse_cache_misses_total",
		Help: "Cache reads that found no entry or an expired one, per cache instance",
	}, []string{"cache"})

	evictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cotpulse_cache_evictions_total",
		Help: "Entries removed by expiry or explicit clearing, per cache instance",
	}, []string{"cache"})
)
