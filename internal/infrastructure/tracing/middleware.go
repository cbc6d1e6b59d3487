package tracing

import (
	"context"
	"errors"
	"strconv"

	"github.com/arkui-x/app-framework-sub003/internal/shared/utils"
	"github.com/gin-gonic/gin"
)

// HTTPMiddleware creates Gin middleware for HTTP tracing. Incoming trace
// headers are honoured when they are well-formed.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if traceID := c.GetHeader(HeaderTraceID); traceID != "" && utils.ValidateID(traceID, "trace") == nil {
			ctx = context.WithValue(ctx, traceIDKey, TraceID(traceID))
			if spanID := c.GetHeader(HeaderSpanID); spanID != "" && utils.ValidateID(spanID, "span") == nil {
				ctx = context.WithValue(ctx, spanIDKey, SpanID(spanID))
			}
		}

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		c.Request = c.Request.WithContext(ctx)

		c.Header(HeaderTraceID, string(span.TraceID))
		c.Header(HeaderSpanID, string(span.SpanID))

		c.Next()

		span.StatusCode = c.Writer.Status()
		span.SetTag("http.status", strconv.Itoa(span.StatusCode))
		if len(c.Errors) > 0 {
			span.Err = errors.New(c.Errors.String())
		}
		span.Finish()
		tracer.Submit(span)
	}
}
