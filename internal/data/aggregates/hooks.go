package aggregates

import (
	"time"

	"github.com/yungbote/cdk-backend/internal/observability"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

// Hooks receives one event per aggregate write and one per claim attempt.
// ObserveClaim also fires for attempts the gate denied before any
// transaction opened.
type Hooks interface {
	ObserveOperation(name, status string, dur time.Duration)
	IncConflict(name string)
	IncRetry(name string)
	ObserveClaim(mode, outcome string)
}

type noopHooks struct{}

func (noopHooks) ObserveOperation(string, string, time.Duration) {}
func (noopHooks) IncConflict(string)                             {}
func (noopHooks) IncRetry(string)                                {}
func (noopHooks) ObserveClaim(string, string)                    {}

// metricsHooks forwards to Prometheus. *observability.Metrics is nil-safe.
type metricsHooks struct{ m *observability.Metrics }

func (h metricsHooks) ObserveOperation(name, status string, dur time.Duration) {
	h.m.ObserveAggregateOperation(name, status, dur)
}
func (h metricsHooks) IncConflict(name string)           { h.m.IncAggregateConflict(name) }
func (h metricsHooks) IncRetry(name string)              { h.m.IncAggregateRetry(name) }
func (h metricsHooks) ObserveClaim(mode, outcome string) { h.m.IncClaimOutcome(mode, outcome) }

// NewObservabilityHooks records aggregate events as Prometheus metrics.
func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	if metrics == nil {
		return noopHooks{}
	}
	return metricsHooks{m: metrics}
}

type loggingHooks struct {
	Hooks
	log *logger.Logger
}

// WithRetryLogging wraps next so retryable failures also reach the log.
func WithRetryLogging(next Hooks, log *logger.Logger) Hooks {
	if next == nil {
		next = noopHooks{}
	}
	if log == nil {
		return next
	}
	return loggingHooks{Hooks: next, log: log}
}

func (h loggingHooks) IncRetry(name string) {
	h.log.Warn("aggregate write exhausted retries", "op", name)
	h.Hooks.IncRetry(name)
}
