package http

import (
	"net/http"

	"github.com/arkui-x/app-framework-sub003/internal/domain/appcontext"
	"github.com/arkui-x/app-framework-sub003/internal/domain/configuration"
	"github.com/gin-gonic/gin"
)

// The /context endpoints act as the application itself: requests go through
// the application context and are adjudicated at the Application level.

type colorModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type languageRequest struct {
	Language string `json:"language" binding:"required"`
}

type fontRequest struct {
	Font string `json:"font" binding:"required"`
}

type fontSizeScaleRequest struct {
	Scale        float64 `json:"scale"`
	FollowSystem bool    `json:"follow_system"`
}

func (h *Handlers) appContext(c *gin.Context) (*appcontext.Context, bool) {
	ctx := h.app.Context()
	if ctx == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "application context unavailable"})
		return nil, false
	}
	return ctx, true
}

func (h *Handlers) respondConfiguration(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"configuration": h.app.Configuration(),
		"precedence":    h.app.Precedence(),
	})
}

// SetColorMode requests an application colour mode; "auto" follows lower levels
func (h *Handlers) SetColorMode(c *gin.Context) {
	var req colorModeRequest
	if !bindJSON(c, &req) {
		return
	}
	mode, ok := configuration.ParseColorMode(req.Mode)
	if !ok || mode == configuration.ColorModeUnset {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be light, dark or auto"})
		return
	}
	ctx, ok := h.appContext(c)
	if !ok {
		return
	}
	ctx.SetColorMode(mode)
	h.respondConfiguration(c)
}

// SetLanguage requests an application language
func (h *Handlers) SetLanguage(c *gin.Context) {
	var req languageRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, ok := h.appContext(c)
	if !ok {
		return
	}
	if err := ctx.SetLanguage(req.Language); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondConfiguration(c)
}

// SetFont requests an application font
func (h *Handlers) SetFont(c *gin.Context) {
	var req fontRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, ok := h.appContext(c)
	if !ok {
		return
	}
	ctx.SetFont(req.Font)
	h.respondConfiguration(c)
}

// SetFontSizeScale pins the application font scale or follows the system
func (h *Handlers) SetFontSizeScale(c *gin.Context) {
	var req fontSizeScaleRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx, ok := h.appContext(c)
	if !ok {
		return
	}
	if req.FollowSystem {
		ctx.FollowSystemFontSize()
	} else if err := ctx.SetFontSizeScale(req.Scale); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respondConfiguration(c)
}
