package aggregates

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

const tracerName = "github.com/yungbote/cdk-backend/internal/data/aggregates"

// BaseDeps is shared by every aggregate. Only DB is required.
type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
	// Now is the clock used when an input carries no timestamp.
	Now func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// clock returns t in UTC, or the current time when t is zero.
func (d BaseDeps) clock(t time.Time) time.Time {
	if t.IsZero() {
		if d.Now == nil {
			return time.Now().UTC()
		}
		t = d.Now()
	}
	return t.UTC()
}

// executeWrite runs fn in one transaction under a span named op, maps the
// result onto the aggregate error codes and reports it to Hooks.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	if op == "" {
		op = "aggregate.write"
	}
	deps = deps.withDefaults()
	ctx, span := otel.Tracer(tracerName).Start(ctx, op)
	defer span.End()

	start := time.Now()
	err := MapError(op, deps.Runner.InTx(ctx, fn))
	status := aggregateErrorStatus(err)

	span.SetAttributes(attribute.String("aggregate.status", status))
	if err != nil {
		code := domainagg.CodeOf(err)
		if isConflictCode(code) {
			deps.Hooks.IncConflict(op)
		}
		if code == domainagg.CodeRetryable {
			deps.Hooks.IncRetry(op)
		}
		if code == domainagg.CodeInternal || code == domainagg.CodeRetryable {
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return err
}

// isConflictCode covers the outcomes produced by two writers racing for
// the same row or the same quota unit.
func isConflictCode(code domainagg.ErrorCode) bool {
	switch code {
	case domainagg.CodeStateConflict, domainagg.CodeDuplicateClaim, domainagg.CodeQuotaExhausted:
		return true
	}
	return false
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	if code := domainagg.CodeOf(err); code != "" {
		return string(code)
	}
	if code := domainagg.CodeOf(MapError("aggregate.status", err)); code != "" {
		return string(code)
	}
	return "failure"
}
