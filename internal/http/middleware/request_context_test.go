package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yungbote/cdk-backend/internal/observability"
	"github.com/yungbote/cdk-backend/internal/platform/ctxutil"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

func TestAttachRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachRequestContext())
	r.GET("/echo", func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"request_id": rd.RequestID, "trace_id": rd.TraceID, "client_ip": rd.ClientIP})
	})

	t.Run("echoes inbound ids", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/echo", nil)
		req.Header.Set(headerRequestID, "req-123")
		req.Header.Set(headerTraceID, "trace-abc")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Header().Get(headerRequestID) != "req-123" || rec.Header().Get(headerTraceID) != "trace-abc" {
			t.Fatalf("unexpected headers: %v", rec.Header())
		}
		if !strings.Contains(rec.Body.String(), `"client_ip":"192.0.2.1"`) {
			t.Fatalf("client ip missing: %s", rec.Body.String())
		}
	})

	t.Run("replaces oversized ids", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/echo", nil)
		req.Header.Set(headerRequestID, strings.Repeat("x", maxRequestIDLen+1))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		got := rec.Header().Get(headerRequestID)
		if got == "" || len(got) > maxRequestIDLen {
			t.Fatalf("request id not regenerated: %q", got)
		}
		if rec.Header().Get(headerTraceID) == "" {
			t.Fatalf("trace id should be generated")
		}
	})
}

func TestRequestLoggerSkipsQuietRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	r := gin.New()
	r.Use(AttachRequestContext(), RequestLogger(log))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/projects/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/projects/p-1", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("want one log line, got %d", len(entries))
	}
	e := entries[0]
	fields := e.ContextMap()
	if e.Level != zapcore.WarnLevel || fields["route"] != "/api/projects/:id" || fields["resource_id"] != "p-1" {
		t.Fatalf("unexpected entry: level=%s fields=%v", e.Level, fields)
	}
}

func TestMetricsUsesRouteTemplateAndStatusClass(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics(observability.MetricsConfig{Enabled: true}, nil)

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/api/projects/:id", func(c *gin.Context) { c.Status(http.StatusConflict) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/projects/"+id, nil))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	want := `cdk_api_requests_total{method="GET",route="/api/projects/:id",status="4xx"} 2`
	if !strings.Contains(string(body), want) {
		t.Fatalf("exposition missing %q", want)
	}
	if strings.Contains(string(body), `route="/metrics"`) {
		t.Fatalf("scrape route should not be observed")
	}
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{200: "2xx", 201: "2xx", 409: "4xx", 503: "5xx", 0: "unknown", 700: "unknown"}
	for in, want := range cases {
		if got := statusClass(in); got != want {
			t.Fatalf("statusClass(%d): want=%s got=%s", in, want, got)
		}
	}
}
