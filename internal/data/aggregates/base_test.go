package aggregates

import (
	"context"
	"errors"
	"testing"
	"time"

	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

func TestExecuteWriteReportsOutcome(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		status    string
		conflicts int
		retries   int
	}{
		{name: "success", status: "success"},
		{name: "validation", err: ValidationError("quota must be positive"), status: string(domainagg.CodeValidation)},
		{name: "state conflict", err: ConflictError("stale status"), status: string(domainagg.CodeStateConflict), conflicts: 1},
		{name: "duplicate claim", err: domainagg.NewError(domainagg.CodeDuplicateClaim, "op", "dup", nil), status: string(domainagg.CodeDuplicateClaim), conflicts: 1},
		{name: "quota exhausted", err: domainagg.NewError(domainagg.CodeQuotaExhausted, "op", "full", nil), status: string(domainagg.CodeQuotaExhausted), conflicts: 1},
		{name: "no item", err: domainagg.NewError(domainagg.CodeNoItemAvailable, "op", "empty", nil), status: string(domainagg.CodeNoItemAvailable)},
		{name: "retryable", err: RetryableError("lock timeout"), status: string(domainagg.CodeRetryable), retries: 1},
		{name: "unknown", err: errors.New("disk on fire"), status: string(domainagg.CodeInternal)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hooks := &spyHooks{}
			err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks},
				"Claims.Claim", func(dbctx.Context) error { return tc.err })

			if (err == nil) != (tc.err == nil) {
				t.Fatalf("error presence: want=%v got=%v", tc.err, err)
			}
			if err != nil && string(domainagg.CodeOf(err)) != tc.status {
				t.Fatalf("code: want=%s got=%v", tc.status, err)
			}
			if len(hooks.Operations) != 1 || hooks.Operations[0] != (spyOperation{Name: "Claims.Claim", Status: tc.status}) {
				t.Fatalf("operations: %+v", hooks.Operations)
			}
			if len(hooks.Conflicts) != tc.conflicts || len(hooks.Retries) != tc.retries {
				t.Fatalf("conflicts=%v retries=%v", hooks.Conflicts, hooks.Retries)
			}
		})
	}
}

func TestExecuteWriteDefaultsOperationName(t *testing.T) {
	hooks := &spyHooks{}
	if err := executeWrite(context.Background(), BaseDeps{Runner: spyTxRunner{}, Hooks: hooks}, "", func(dbctx.Context) error { return nil }); err != nil {
		t.Fatalf("executeWrite: %v", err)
	}
	if hooks.Operations[0].Name != "aggregate.write" {
		t.Fatalf("default op name: got=%s", hooks.Operations[0].Name)
	}
}

func TestAggregateErrorStatus(t *testing.T) {
	if got := aggregateErrorStatus(nil); got != "success" {
		t.Fatalf("nil status: want=success got=%s", got)
	}
	if got := aggregateErrorStatus(ValidationError("x")); got != string(domainagg.CodeValidation) {
		t.Fatalf("validation status: got=%s", got)
	}
	if got := aggregateErrorStatus(ConflictError("x")); got != string(domainagg.CodeStateConflict) {
		t.Fatalf("conflict status: got=%s", got)
	}
	if got := aggregateErrorStatus(RetryableError("x")); got != string(domainagg.CodeRetryable) {
		t.Fatalf("retry status: got=%s", got)
	}
	if got := aggregateErrorStatus(context.DeadlineExceeded); got != string(domainagg.CodeRetryable) {
		t.Fatalf("deadline status: got=%s", got)
	}
}

func TestBaseDepsClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := BaseDeps{Now: func() time.Time { return fixed }}.withDefaults()
	if got := d.clock(time.Time{}); !got.Equal(fixed) {
		t.Fatalf("clock default: want=%v got=%v", fixed, got)
	}
	explicit := fixed.Add(time.Hour)
	if got := d.clock(explicit); !got.Equal(explicit) {
		t.Fatalf("clock explicit: want=%v got=%v", explicit, got)
	}
}

type spyTxRunner struct{}

func (spyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

type spyHooks struct {
	Operations []spyOperation
	Conflicts  []string
	Retries    []string
}

type spyOperation struct {
	Name   string
	Status string
}

func (h *spyHooks) ObserveOperation(name, status string, _ time.Duration) {
	h.Operations = append(h.Operations, spyOperation{Name: name, Status: status})
}

func (h *spyHooks) IncConflict(name string) {
	h.Conflicts = append(h.Conflicts, name)
}

func (h *spyHooks) IncRetry(name string) {
	h.Retries = append(h.Retries, name)
}

func (h *spyHooks) ObserveClaim(string, string) {}
