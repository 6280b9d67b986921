package http

import (
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.ngs.io/oraip-profiles/internal/metrics"
)

// RouterConfig holds the router settings.
type RouterConfig struct {
	// AllowedOrigins restricts CORS; empty allows all origins.
	AllowedOrigins []string
	Metrics        *metrics.Collector
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(handler *Handler, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	if cfg.Metrics != nil {
		router.Use(instrument(cfg.Metrics))
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/basins", handler.GetBasins)
	v1.GET("/products", handler.GetProducts)

	profiles := v1.Group("/profiles")
	profiles.GET("", handler.GetProfiles)
	profiles.GET("/diff", handler.GetDifferences)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	return router
}

// instrument records request counts and latencies by route.
func instrument(m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := m.NewTimer(nil)
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.APIRequestDuration.WithLabelValues(endpoint).Observe(timer.ObserveDuration().Seconds())
		m.RecordAPIRequest(endpoint, c.Request.Method, strconv.Itoa(c.Writer.Status()))
	}
}
