package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/cdk-backend/internal/platform/ctxutil"
)

const (
	headerRequestID = "X-Request-Id"
	headerTraceID   = "X-Trace-Id"

	maxRequestIDLen = 128
)

// AttachRequestContext seeds request data before any handler runs: the
// request and trace ids echoed back in response headers, and the caller's
// address for the same-IP claim guard. Authentication fills in the user
// later on a copy.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := &ctxutil.RequestData{
			RequestID: inboundID(c.GetHeader(headerRequestID)),
			TraceID:   traceIDFor(c),
			ClientIP:  c.ClientIP(),
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Header(headerRequestID, rd.RequestID)
		c.Header(headerTraceID, rd.TraceID)
		c.Next()
	}
}

func inboundID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxRequestIDLen {
		return uuid.NewString()
	}
	return raw
}

// traceIDFor prefers the active otel span so log lines join up with
// exported traces.
func traceIDFor(c *gin.Context) string {
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return inboundID(c.GetHeader(headerTraceID))
}
