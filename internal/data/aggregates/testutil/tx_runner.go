package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/cdk-backend/internal/data/aggregates"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

// FaultyTxRunner wraps a real runner and injects failures on a per-call
// script. BeforeBody[i] fails call i before fn runs. AfterBody[i] is
// returned from inside the transaction after fn succeeds, so the inner
// runner rolls back everything fn wrote. Nil entries and calls past the
// end of a script pass through.
type FaultyTxRunner struct {
	Inner aggregates.TxRunner

	BeforeBody []error
	AfterBody  []error

	mu     sync.Mutex
	calls  int
	faults int
}

var _ aggregates.TxRunner = (*FaultyTxRunner)(nil)

func (r *FaultyTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	call := r.calls
	r.calls++
	before := at(r.BeforeBody, call)
	after := at(r.AfterBody, call)
	if before != nil {
		r.faults++
	}
	r.mu.Unlock()

	if before != nil {
		return before
	}
	body := func(dbc dbctx.Context) error {
		if fn != nil {
			if err := fn(dbc); err != nil {
				return err
			}
		}
		if after != nil {
			r.mu.Lock()
			r.faults++
			r.mu.Unlock()
		}
		return after
	}
	if r.Inner == nil {
		return body(dbctx.Context{Ctx: ctx})
	}
	return r.Inner.InTx(ctx, body)
}

// Calls reports how many transactions were requested.
func (r *FaultyTxRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Faults reports how many scripted errors were actually injected.
func (r *FaultyTxRunner) Faults() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.faults
}

func at(script []error, i int) error {
	if i < len(script) {
		return script[i]
	}
	return nil
}
