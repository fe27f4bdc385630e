package aggregates_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yungbote/cdk-backend/internal/data/aggregates"
	aggtestutil "github.com/yungbote/cdk-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/cdk-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/project"
)

func faultyHarness(t *testing.T, faulty *aggtestutil.FaultyTxRunner) *harness {
	t.Helper()
	return newHarnessWithRunner(t, func(inner aggregates.TxRunner) aggregates.TxRunner {
		faulty.Inner = inner
		return faulty
	})
}

func TestClaimCommitFailureLeavesLedgerAndPoolUntouched(t *testing.T) {
	faulty := &aggtestutil.FaultyTxRunner{AfterBody: []error{errors.New("connection reset during commit")}}
	h := faultyHarness(t, faulty)
	p := testutil.SeedProject(t, h.ctx, h.db, uuid.New(), project.ModeExclusivePool, 1)
	testutil.SeedPoolItems(t, h.ctx, h.db, p.ID, "A")
	u := h.user(t)

	_, err := h.claim(t, p, u)
	requireCode(t, err, domainagg.CodeInternal)
	if got := h.reload(t, p.ID).ClaimedCount; got != 0 {
		t.Fatalf("ledger after failed commit: want=0 got=%d", got)
	}

	res, err := h.claim(t, p, u)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if res.Content != "A" {
		t.Fatalf("pool item should still be available, got %+v", res)
	}
	if faulty.Calls() != 2 || faulty.Faults() != 1 {
		t.Fatalf("runner calls=%d faults=%d", faulty.Calls(), faulty.Faults())
	}
}

func TestClaimPersistentLockFailureIsRetryable(t *testing.T) {
	lockErr := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	faulty := &aggtestutil.FaultyTxRunner{AfterBody: []error{lockErr}}
	h := faultyHarness(t, faulty)
	p := testutil.SeedProject(t, h.ctx, h.db, uuid.New(), project.ModeExclusivePool, 1)
	testutil.SeedPoolItems(t, h.ctx, h.db, p.ID, "A")

	_, err := h.claim(t, p, h.user(t))
	requireCode(t, err, domainagg.CodeRetryable)
	if got := h.reload(t, p.ID).ClaimedCount; got != 0 {
		t.Fatalf("ledger after retries: want=0 got=%d", got)
	}
	if got := h.hooks.Count(aggtestutil.KindRetry, "Claims.Claim"); got != 1 {
		t.Fatalf("retry hook: want=1 got=%d", got)
	}
	if got := h.hooks.ClaimOutcomes()[string(domainagg.CodeRetryable)]; got != 1 {
		t.Fatalf("claim outcome retryable: want=1 got=%d", got)
	}
}

func TestClaimBeginFailureSkipsBody(t *testing.T) {
	faulty := &aggtestutil.FaultyTxRunner{BeforeBody: []error{errors.New("database is locked")}}
	h := faultyHarness(t, faulty)
	p := testutil.SeedProject(t, h.ctx, h.db, uuid.New(), project.ModeExclusivePool, 1)
	testutil.SeedPoolItems(t, h.ctx, h.db, p.ID, "A")

	_, err := h.claim(t, p, h.user(t))
	requireCode(t, err, domainagg.CodeRetryable)
	if got := h.reload(t, p.ID).ClaimedCount; got != 0 {
		t.Fatalf("ledger: want=0 got=%d", got)
	}
}
