package aggregates

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yungbote/cdk-backend/internal/observability"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

func TestObservabilityHooksExportMetrics(t *testing.T) {
	m := observability.NewMetrics(observability.MetricsConfig{Enabled: true}, nil)
	h := NewObservabilityHooks(m)
	h.ObserveOperation("Claims.Claim", "success", 2*time.Millisecond)
	h.IncConflict("Claims.Claim")
	h.IncRetry("Claims.ResolveApplication")
	h.ObserveClaim("exclusive_pool", "granted")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`cdk_aggregate_operations_total{operation="Claims.Claim",status="success"} 1`,
		`cdk_aggregate_conflicts_total{operation="Claims.Claim"} 1`,
		`cdk_aggregate_retryable_total{operation="Claims.ResolveApplication"} 1`,
		`cdk_claim_outcomes_total{mode="exclusive_pool",outcome="granted"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("exposition missing %q", want)
		}
	}
}

func TestNilMetricsYieldNoopHooks(t *testing.T) {
	if _, ok := NewObservabilityHooks(nil).(noopHooks); !ok {
		t.Fatalf("expected noop hooks for nil metrics")
	}
}

func TestWithRetryLogging(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}
	spy := &spyHooks{}

	h := WithRetryLogging(spy, log)
	h.IncRetry("Claims.Claim")
	h.IncConflict("Claims.Claim")

	if len(spy.Retries) != 1 || len(spy.Conflicts) != 1 {
		t.Fatalf("wrapped hooks not called: %+v", spy)
	}
	entries := logs.FilterMessage("aggregate write exhausted retries").All()
	if len(entries) != 1 || entries[0].ContextMap()["op"] != "Claims.Claim" {
		t.Fatalf("unexpected retry logs: %+v", logs.All())
	}
	if logs.Len() != 1 {
		t.Fatalf("conflicts should not log, got %d entries", logs.Len())
	}

	if _, ok := WithRetryLogging(nil, nil).(noopHooks); !ok {
		t.Fatalf("nil hooks without a logger should fall back to noop")
	}
}
