// Package api exposes the news query and search configurations over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/news"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/store"
)

// Deps wires the router. Gatherer defaults to the default registry.
type Deps struct {
	News     *news.Service
	Configs  store.ConfigWriter
	Gatherer prometheus.Gatherer
	Logger   logger.Logger
}

// NewRouter builds the gin engine.
func NewRouter(d Deps) *gin.Engine {
	router := gin.New()

	router.Use(ginLogger(d.Logger))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")

	newsHandler := NewNewsHandler(d.News, d.Logger)
	v1.GET("/news", newsHandler.List)

	configHandler := NewConfigHandler(d.Configs, d.Logger)
	configs := v1.Group("/configs")
	configs.GET("", configHandler.List)
	configs.POST("", configHandler.Create)

	return router
}

func ginLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Info("HTTP request",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status_code", c.Writer.Status()),
			logger.String("client_ip", c.ClientIP()),
			logger.Duration("duration", time.Since(start)),
		)
	}
}
