package http

import (
	"net/http"
	"time"

	"github.com/arkui-x/app-framework-sub003/internal/domain/app"
	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/arkui-x/app-framework-sub003/internal/domain/level"
	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/tracing"
	"github.com/arkui-x/app-framework-sub003/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version is reported by the root endpoint.
var Version = "0.1.0"

// ModuleCounter reports how many HAP modules are known.
type ModuleCounter interface {
	Len() int
}

// Handlers contains all HTTP handlers
type Handlers struct {
	app       *app.Application
	modules   ModuleCounter
	startTime time.Time
	logger    *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(application *app.Application, modules ModuleCounter, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		app:       application,
		modules:   modules,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Register mounts every admin route except /metrics and /stream.
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	router.GET("/configuration", h.GetConfiguration)
	router.POST("/configuration", h.UpdateConfiguration)

	ctx := router.Group("/context")
	ctx.POST("/color-mode", h.SetColorMode)
	ctx.POST("/language", h.SetLanguage)
	ctx.POST("/font", h.SetFont)
	ctx.POST("/font-size-scale", h.SetFontSizeScale)

	router.GET("/stages", h.ListStages)
	router.POST("/stages/:module/abilities/:ability", h.LaunchAbility)
	router.DELETE("/stages/:module/abilities/:ability", h.TerminateAbility)

	router.POST("/lifecycle/foreground", h.Foreground)
	router.POST("/lifecycle/background", h.Background)
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "ability-runtime",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	modules := 0
	if h.modules != nil {
		modules = h.modules.Len()
	}
	stats := h.app.Stats()
	status := "healthy"
	if !stats.Initialized {
		status = "initializing"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"application": stats,
		"modules":     modules,
		"uptime":      time.Since(h.startTime).Round(time.Second).String(),
	})
}

// GetConfiguration returns the master configuration and recorded levels.
// The ETag is the configuration fingerprint; a matching If-None-Match
// answers 304.
func (h *Handlers) GetConfiguration(c *gin.Context) {
	cfg := h.app.Configuration()
	var items map[string]string
	if cfg != nil {
		items = cfg.Items()
	}
	tag := utils.ETag(items)
	c.Header("ETag", tag)
	if match := c.GetHeader("If-None-Match"); match != "" && utils.MatchesETag(match, tag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"configuration": cfg,
		"precedence":    h.app.Precedence(),
		"fingerprint":   utils.Fingerprint(items),
	})
}

// UpdateRequest is the body of POST /configuration.
type UpdateRequest struct {
	Level string            `json:"level"`
	Items map[string]string `json:"items"`
}

// UpdateConfiguration submits a delta at the requested level
func (h *Handlers) UpdateConfiguration(c *gin.Context) {
	var req UpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	lvl := level.System
	if req.Level != "" {
		parsed, err := level.Parse(req.Level)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		lvl = parsed
	}

	if err := utils.ValidateDelta(req.Items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	delta, rejected := configuration.FromMap(req.Items)
	if len(rejected) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "invalid configuration values",
			"rejected": rejected,
		})
		return
	}

	applied := h.app.OnConfigurationUpdate(delta, lvl)
	h.logger.Debug("Configuration update handled",
		append(tracing.Fields(c.Request.Context()),
			zap.Stringer("level", lvl),
			zap.Bool("applied", applied))...)

	c.JSON(http.StatusOK, gin.H{
		"applied":       applied,
		"delta":         delta.Items(),
		"configuration": h.app.Configuration(),
	})
}

// bindJSON decodes a size-limited JSON body, answering 400 on failure.
func bindJSON(c *gin.Context, v interface{}) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxJSONSize)
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}
