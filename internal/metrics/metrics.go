// Package metrics holds the Prometheus collectors of the trendmeter service.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/internal/service"
	"github.com/ad-tracker/trendmeter/internal/service/youtube"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "trendmeter"

// Keyword outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeEmpty        = "empty"
	OutcomeSearchFailed = "search_failed"
	OutcomeVideosFailed = "videos_failed"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	APICalls              *prometheus.CounterVec
	APICallDuration       *prometheus.HistogramVec
	RunsTotal             *prometheus.CounterVec
	RunDuration           prometheus.Histogram
	KeywordsTotal         *prometheus.CounterVec
	ChannelLookupFailures prometheus.Counter
	ChannelsMatched       prometheus.Histogram
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	registerer            prometheus.Registerer
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		APICalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "youtube_api_calls_total",
				Help:      "YouTube Data API calls, by endpoint and HTTP status (0 = no response).",
			},
			[]string{"endpoint", "status"},
		),
		APICallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "youtube_api_call_duration_seconds",
				Help:      "YouTube Data API call latency, by endpoint.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Finished runs, by status.",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of a full fetch-aggregate-filter run.",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
		),
		KeywordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "keywords_total",
				Help:      "Processed keywords, by outcome.",
			},
			[]string{"outcome"},
		),
		ChannelLookupFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "channel_lookup_failures_total",
				Help:      "Failed channels.list batches.",
			},
		),
		ChannelsMatched: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "channels_matched",
				Help:      "Channels passing the filters per run.",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
			},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds, by route, method and status.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being served.",
			},
		),
		registerer: reg,
	}

	reg.MustRegister(
		m.APICalls,
		m.APICallDuration,
		m.RunsTotal,
		m.RunDuration,
		m.KeywordsTotal,
		m.ChannelLookupFailures,
		m.ChannelsMatched,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
	)

	return m
}

// RegisterPool exposes live pgxpool statistics.
func (m *Metrics) RegisterPool(pool *pgxpool.Pool) {
	m.registerer.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool_active",
				Help:      "Number of active database connections.",
			},
			func() float64 { return float64(pool.Stat().AcquiredConns()) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connection_pool_idle",
				Help:      "Number of idle database connections.",
			},
			func() float64 { return float64(pool.Stat().IdleConns()) },
		),
	)
}

// CallHook returns a youtube.CallHook feeding the API call collectors.
func (m *Metrics) CallHook() youtube.CallHook {
	return func(_ context.Context, endpoint string, statusCode int, elapsed time.Duration) {
		m.APICalls.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
		m.APICallDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	}
}

// Observer returns a service.Observer counting keyword and run outcomes.
func (m *Metrics) Observer() service.Observer {
	return &runObserver{m: m}
}

type runObserver struct {
	service.NopObserver
	m *Metrics
}

func (o *runObserver) OnKeywordFailed(_ string, stage service.Stage, _ int, _ error) {
	outcome := OutcomeSearchFailed
	if stage == service.StageVideos {
		outcome = OutcomeVideosFailed
	}
	o.m.KeywordsTotal.WithLabelValues(outcome).Inc()
}

func (o *runObserver) OnKeywordEmpty(string) {
	o.m.KeywordsTotal.WithLabelValues(OutcomeEmpty).Inc()
}

func (o *runObserver) OnChannelLookupFailed(string, int, error) {
	o.m.ChannelLookupFailures.Inc()
}

func (o *runObserver) OnKeywordDone(_, _ int, _ string, videos int) {
	if videos > 0 {
		o.m.KeywordsTotal.WithLabelValues(OutcomeOK).Inc()
	}
}

func (o *runObserver) OnRunDone(res *models.RunResult, elapsed time.Duration) {
	o.m.RunsTotal.WithLabelValues(string(res.Status)).Inc()
	o.m.RunDuration.Observe(elapsed.Seconds())
	if res.Status == models.RunStatusCompleted {
		o.m.ChannelsMatched.Observe(float64(len(res.Channels)))
	}
}

// Middleware records request duration and in-flight count. Routes are
// labelled by their registered pattern to keep cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		m.HTTPRequestsInFlight.Inc()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestDuration.
			WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
		m.HTTPRequestsInFlight.Dec()
	}
}
