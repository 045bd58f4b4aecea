package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather8_provider_calls_total",
			Help: "Total WeatherAPI calls by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather8_provider_latency_seconds",
			Help:    "WeatherAPI call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather8_cache_lookups_total",
			Help: "Cache lookups by request kind and result (hit or miss)",
		},
		[]string{"kind", "result"},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weather8_cache_entries",
			Help: "Resident cache entries, including stale ones",
		},
	)

	IncompleteRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather8_incomplete_records_total",
			Help: "Normalized records that failed validation and were not cached",
		},
		[]string{"kind"},
	)

	ProviderUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "weather8_provider_up",
			Help: "1 if the last health probe reached WeatherAPI, 0 otherwise",
		},
	)
)
