package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/arkui-x/app-framework-sub003/internal/infrastructure/tracing"
)

// CORSConfig controls which browser origins may call the admin API.
type CORSConfig struct {
	// AllowOrigins lists exact origins; "*" allows any.
	AllowOrigins []string
	MaxAge       time.Duration
}

// DefaultCORSConfig allows any origin, which suits a local console.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		MaxAge:       12 * time.Hour,
	}
}

// CORS answers preflights for the admin routes. Conditional GETs and the
// trace headers are allowed in and ETag plus trace ids are exposed so a
// console can poll /configuration cheaply and correlate logs.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = DefaultCORSConfig().AllowOrigins
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultCORSConfig().MaxAge
	}
	return cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Accept",
			"Origin",
			"If-None-Match",
			tracing.HeaderTraceID,
			tracing.HeaderSpanID,
		},
		ExposeHeaders:   []string{"ETag", tracing.HeaderTraceID, tracing.HeaderSpanID},
		AllowWebSockets: true,
		MaxAge:          cfg.MaxAge,
	})
}
