// 包 metrics：Prometheus 指标定义与注册
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var msBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000}

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "centers_requests_total",
		Help: "Total number of API requests by endpoint",
	}, []string{"endpoint"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "centers_request_duration_ms",
		Help:    "Request duration in milliseconds by endpoint",
		Buckets: msBuckets,
	}, []string{"endpoint"})
	EmptyResultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "centers_empty_results_total",
		Help: "Total number of responses with zero centers",
	}, []string{"endpoint"})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "centers_redis_hits_total",
		Help: "Total redis response cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "centers_redis_misses_total",
		Help: "Total redis response cache misses",
	})
	NearestOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "centers_nearest_outcomes_total",
		Help: "Nearest requests by outcome (ok, no_origin, no_geocoded_data)",
	}, []string{"outcome"})
	GeoIPLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "centers_geoip_lookups_total",
		Help: "GeoIP origin lookups by status",
	}, []string{"status"})
	NIDLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "centers_nid_lookups_total",
		Help: "NID lookups by outcome (match, empty, invalid)",
	}, []string{"outcome"})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "centers_rate_limited_total",
		Help: "Requests rejected by the token bucket",
	})
	DatasetReloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "centers_dataset_reloads_total",
		Help: "Dataset (re)loads by status",
	}, []string{"status"})
	DatasetCenters = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "centers_dataset_centers",
		Help: "Number of centers in the active dataset snapshot",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(EmptyResultsTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(NearestOutcomesTotal)
	prometheus.MustRegister(GeoIPLookupsTotal)
	prometheus.MustRegister(NIDLookupsTotal)
	prometheus.MustRegister(RateLimitedTotal)
	prometheus.MustRegister(DatasetReloadsTotal)
	prometheus.MustRegister(DatasetCenters)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
