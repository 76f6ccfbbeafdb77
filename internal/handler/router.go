package handler

import (
	"github.com/ad-tracker/trendmeter/internal/metrics"
	"github.com/ad-tracker/trendmeter/internal/middleware"
	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig wires the handlers together. Metrics and Gatherer are
// optional; Health defaults to a handler without readiness checks.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RouterConfig struct {
	Runs           RunExecutor
	Quota          QuotaReporter
	Defaults       models.RunRequest
	ExportFilename string
	APIKeys        []string
	Health         *HealthHandler
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
}

// NewRouter builds the gin engine serving the dashboard, the JSON API,
// health probes and metrics.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger())
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.SetHTMLTemplate(Templates())

	health := cfg.Health
	if health == nil {
		health = NewHealthHandler()
	}
	r.GET("/health/live", health.LivenessProbe)
	r.GET("/health/ready", health.ReadinessProbe)

	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	dashboard := NewDashboardHandler(cfg.Runs, cfg.Defaults, cfg.ExportFilename)
	r.GET("/", dashboard.Index)
	r.POST("/runs", dashboard.Submit)
	r.GET("/runs/:id", dashboard.Show)
	r.GET("/runs/:id/export.csv", dashboard.Export)

	api := r.Group("/api/v1")
	if auth := middleware.NewAPIKeyAuth(cfg.APIKeys, nil); auth.Enabled() {
		api.Use(auth.Middleware())
	}

	runs := NewRunHandler(cfg.Runs, cfg.Defaults, cfg.ExportFilename)
	api.POST("/runs", runs.CreateRun)
	api.GET("/runs", runs.ListRuns)
	api.GET("/runs/:id", runs.GetRun)
	api.GET("/runs/:id/export.csv", runs.ExportRunCSV)

	if cfg.Quota != nil {
		api.GET("/quota", NewQuotaHandler(cfg.Quota).GetQuota)
	}

	return r
}
