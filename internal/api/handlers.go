package api

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/newsdesk/internal/domain"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/logger"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/news"
	"github.com/jonesrussell/north-cloud/newsdesk/internal/store"
)

// NewsHandler serves the news query.
type NewsHandler struct {
	service *news.Service
	logger  logger.Logger
}

// NewNewsHandler creates a NewsHandler.
func NewNewsHandler(service *news.Service, log logger.Logger) *NewsHandler {
	return &NewsHandler{service: service, logger: log}
}

// List handles GET /api/v1/news?source=&period=&search=.
func (h *NewsHandler) List(c *gin.Context) {
	var filter news.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	feed, err := h.service.Query(c.Request.Context(), filter)
	if err != nil {
		if errors.Is(err, news.ErrInvalidPeriod) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		h.logger.Error("Failed to query news",
			logger.String("source", filter.Source),
			logger.String("period", filter.Period),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to query news"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"news":        feed.News,
		"sources":     feed.Sources,
		"all_sources": feed.AllSources,
	})
}

var timeframePattern = regexp.MustCompile(`^[0-9]+[hdwmy]$`)

// ConfigRequest is the body of POST /api/v1/configs.
type ConfigRequest struct {
	SearchTerm       string `json:"search_term"        binding:"required"`
	ResultLimit      int    `json:"result_limit"       binding:"gte=0"`
	Timeframe        string `json:"timeframe"`
	Category         string `json:"category"`
	FetchFullContent bool   `json:"fetch_full_content"`
	Enabled          *bool  `json:"enabled"`
}

// ConfigHandler manages search configurations.
type ConfigHandler struct {
	configs store.ConfigWriter
	logger  logger.Logger
}

// NewConfigHandler creates a ConfigHandler.
func NewConfigHandler(configs store.ConfigWriter, log logger.Logger) *ConfigHandler {
	return &ConfigHandler{configs: configs, logger: log}
}

// List handles GET /api/v1/configs.
func (h *ConfigHandler) List(c *gin.Context) {
	configs, err := h.configs.ListSearchConfigs(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list search configs", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list search configs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"configs": configs,
		"count":   len(configs),
	})
}

// Create handles POST /api/v1/configs. Configurations are enabled unless
// the body says otherwise.
func (h *ConfigHandler) Create(c *gin.Context) {
	var req ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid request body", logger.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.Timeframe != "" && !timeframePattern.MatchString(req.Timeframe) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": "timeframe must look like 1h, 7d or 1y"})
		return
	}

	cfg := domain.SearchConfig{
		SearchTerm:       req.SearchTerm,
		ResultLimit:      req.ResultLimit,
		Timeframe:        req.Timeframe,
		Category:         req.Category,
		FetchFullContent: req.FetchFullContent,
		Enabled:          req.Enabled == nil || *req.Enabled,
	}
	if err := h.configs.CreateSearchConfig(c.Request.Context(), &cfg); err != nil {
		h.logger.Error("Failed to create search config",
			logger.String("search_term", cfg.SearchTerm),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create search config"})
		return
	}

	h.logger.Info("Search config created",
		logger.String("config_id", cfg.ID),
		logger.String("search_term", cfg.SearchTerm),
	)
	c.JSON(http.StatusCreated, cfg)
}
