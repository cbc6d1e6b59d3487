package http

import (
	"errors"
	"net/http"

	"github.com/arkui-x/app-framework-sub003/internal/domain/app"
	"github.com/arkui-x/app-framework-sub003/internal/domain/bundle"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ListStages lists registered ability stages
func (h *Handlers) ListStages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stages": h.app.Stages(),
		"stats":  h.app.Stats(),
	})
}

// LaunchAbility starts an ability, creating its module stage if needed
func (h *Handlers) LaunchAbility(c *gin.Context) {
	module, ability := c.Param("module"), c.Param("ability")

	if err := h.app.LaunchAbility(module, ability); err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, bundle.ErrUnknownModule), errors.Is(err, app.ErrUnknownAbility):
			status = http.StatusNotFound
		case errors.Is(err, app.ErrNotAbilityHost):
			status = http.StatusConflict
		case errors.Is(err, app.ErrNoBundleContainer):
			status = http.StatusServiceUnavailable
		}
		h.logger.Warn("Failed to launch ability",
			zap.String("module", module),
			zap.String("ability", ability),
			zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"module":  module,
		"ability": ability,
	})
}

// TerminateAbility stops an ability; empty stages are removed
func (h *Handlers) TerminateAbility(c *gin.Context) {
	module, ability := c.Param("module"), c.Param("ability")

	success := h.app.TerminateAbility(module, ability)
	status := http.StatusOK
	if !success {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{
		"success": success,
		"module":  module,
		"ability": ability,
	})
}

// Foreground marks the application as foreground
func (h *Handlers) Foreground(c *gin.Context) {
	h.app.OnForeground()
	c.JSON(http.StatusOK, gin.H{"foreground": h.app.IsForeground()})
}

// Background marks the application as background
func (h *Handlers) Background(c *gin.Context) {
	h.app.OnBackground()
	c.JSON(http.StatusOK, gin.H{"foreground": h.app.IsForeground()})
}
