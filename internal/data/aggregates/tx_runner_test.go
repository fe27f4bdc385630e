package aggregates_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yungbote/cdk-backend/internal/data/aggregates"
	"github.com/yungbote/cdk-backend/internal/data/repos/testutil"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

func TestGormTxRunnerRetriesSerializationFailure(t *testing.T) {
	runner := aggregates.NewGormTxRunner(testutil.DB(t))

	calls := 0
	err := runner.InTx(context.Background(), func(dbc dbctx.Context) error {
		calls++
		if dbc.Tx == nil {
			t.Fatalf("expected transaction handle")
		}
		if calls == 1 {
			return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
}

func TestGormTxRunnerGivesUpAfterAttempts(t *testing.T) {
	runner := aggregates.NewGormTxRunner(testutil.DB(t))

	calls := 0
	err := runner.InTx(context.Background(), func(dbctx.Context) error {
		calls++
		return errors.New("database is locked")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 3 {
		t.Fatalf("calls: want=3 got=%d", calls)
	}
}

func TestGormTxRunnerDoesNotRetryDomainErrors(t *testing.T) {
	runner := aggregates.NewGormTxRunner(testutil.DB(t))

	calls := 0
	err := runner.InTx(context.Background(), func(dbctx.Context) error {
		calls++
		return aggregates.ConflictError("stale")
	})
	if !errors.Is(err, aggregates.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}

func TestGormTxRunnerStopsOnCancelledContext(t *testing.T) {
	runner := aggregates.NewGormTxRunner(testutil.DB(t))
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := runner.InTx(ctx, func(dbctx.Context) error {
		calls++
		cancel()
		return &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}
