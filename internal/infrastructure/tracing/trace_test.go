package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStartSpanPropagatesTrace(t *testing.T) {
	tracer := New(nil, 10)
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	child, _ := tracer.StartSpan(ctx, "child")

	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
	assert.Equal(t, parent.TraceID, GetTraceID(ctx))
	assert.Len(t, Fields(ctx), 1)
	assert.Nil(t, Fields(context.Background()))
}

func TestCloseFlushesSpans(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New(zap.New(core), 10)

	span, _ := tracer.StartSpan(context.Background(), "op")
	span.Finish()
	tracer.Submit(span)
	tracer.Close()
	tracer.Close()
	tracer.Submit(span)

	assert.Equal(t, 1, logs.FilterMessage("span completed").Len())
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	tracer := New(zap.New(core), 10)

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/stages", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/stages", nil)
	req.Header.Set(HeaderTraceID, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, TraceID("abc-123"), seen)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderTraceID))
	assert.NotEmpty(t, w.Header().Get(HeaderSpanID))

	// Malformed ids are replaced.
	req = httptest.NewRequest(http.MethodGet, "/stages", nil)
	req.Header.Set(HeaderTraceID, "not a trace id!")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEqual(t, "not a trace id!", w.Header().Get(HeaderTraceID))

	tracer.Close()
	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "GET /stages", entries[0].ContextMap()["operation"])
}
