package aggregates_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	"github.com/yungbote/cdk-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/domain/eligibility"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/domain/user"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

func TestClaimExclusivePoolHandsOutItemsInOrder(t *testing.T) {
	h := newHarness(t)
	creator := h.user(t)
	created, err := h.projects.CreateProject(h.ctx, domainagg.CreateProjectInput{
		CreatorID:   creator.ID,
		Name:        "pool",
		Mode:        project.ModeExclusivePool,
		TotalQuota:  3,
		AllowSameIP: true,
		Items:       []string{"A", "B", "C"},
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	p := created.Project

	users := h.users(t, 4)
	want := []string{"A", "B", "C"}
	seen := map[string]bool{}
	for i, u := range users[:3] {
		res, err := h.claim(t, p, u)
		if err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
		if !res.Granted || res.Content != want[i] {
			t.Fatalf("claim %d: want=%s got=%+v", i, want[i], res)
		}
		if seen[res.Content] {
			t.Fatalf("item %s handed out twice", res.Content)
		}
		seen[res.Content] = true
	}

	_, err = h.claim(t, p, users[3])
	requireCode(t, err, domainagg.CodeQuotaExhausted)
	if got := domainagg.ReasonOf(err); got != string(eligibility.ReasonQuotaExhausted) {
		t.Fatalf("reason: want=%s got=%s", eligibility.ReasonQuotaExhausted, got)
	}

	// A retry from an existing holder on the full project is still a duplicate.
	_, err = h.claim(t, p, users[0])
	requireCode(t, err, domainagg.CodeDuplicateClaim)

	after := h.reload(t, p.ID)
	if after.ClaimedCount != 3 || after.ClaimedCount > after.TotalQuota {
		t.Fatalf("claimed count: want=3 got=%d/%d", after.ClaimedCount, after.TotalQuota)
	}
	total, claimed, err := repos.NewPoolItemRepo(h.db, testutil.Logger(t)).Counts(dbctx.Context{Ctx: h.ctx}, p.ID)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if total != 3 || claimed != after.ClaimedCount {
		t.Fatalf("pool parity: total=%d claimed=%d ledger=%d", total, claimed, after.ClaimedCount)
	}
}

func TestClaimExclusivePoolDuplicateBeforeFull(t *testing.T) {
	h := newHarness(t)
	p := testutil.SeedProject(t, h.ctx, h.db, uuid.New(), project.ModeExclusivePool, 2)
	testutil.SeedPoolItems(t, h.ctx, h.db, p.ID, "one", "two")
	u := h.user(t)

	first, err := h.claim(t, p, u)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	_, err = h.claim(t, p, u)
	requireCode(t, err, domainagg.CodeDuplicateClaim)

	el, err := h.claims.Eligibility(h.ctx, domainagg.EligibilityInput{ProjectID: p.ID, UserID: u.ID})
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if !el.AlreadyClaimed || el.CanClaim || el.Content != first.Content {
		t.Fatalf("eligibility after claim: %+v", el)
	}
	if got := h.reload(t, p.ID).ClaimedCount; got != 1 {
		t.Fatalf("claimed count: want=1 got=%d", got)
	}
}

func TestClaimExclusivePoolNoItemRollsBackLedger(t *testing.T) {
	h := newHarness(t)
	// Quota ahead of the pool: the ledger grants a unit the pool cannot fill.
	p := testutil.SeedProject(t, h.ctx, h.db, uuid.New(), project.ModeExclusivePool, 2)
	testutil.SeedPoolItems(t, h.ctx, h.db, p.ID, "only")

	if _, err := h.claim(t, p, h.user(t)); err != nil {
		t.Fatalf("first claim: %v", err)
	}
	_, err := h.claim(t, p, h.user(t))
	requireCode(t, err, domainagg.CodeNoItemAvailable)
	if got := h.reload(t, p.ID).ClaimedCount; got != 1 {
		t.Fatalf("ledger must roll back with allocation: want=1 got=%d", got)
	}
}

func TestClaimSharedSecretScenario(t *testing.T) {
	h := newHarness(t)
	creator := h.user(t)
	created, err := h.projects.CreateProject(h.ctx, domainagg.CreateProjectInput{
		CreatorID:     creator.ID,
		Name:          "secret",
		Mode:          project.ModeSharedSecret,
		TotalQuota:    2,
		AllowSameIP:   true,
		SharedPayload: "SECRET-1",
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	p := created.Project
	u, other := h.user(t), h.user(t)

	res, err := h.claim(t, p, u)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !res.Granted || res.Content != "SECRET-1" {
		t.Fatalf("claim result: %+v", res)
	}
	_, err = h.claim(t, p, u)
	requireCode(t, err, domainagg.CodeDuplicateClaim)

	res, err = h.claim(t, p, other)
	if err != nil {
		t.Fatalf("second user claim: %v", err)
	}
	if res.Content != "SECRET-1" {
		t.Fatalf("content: want=SECRET-1 got=%q", res.Content)
	}
	after := h.reload(t, p.ID)
	if after.ClaimedCount != 2 || after.TotalQuota != 2 {
		t.Fatalf("ledger: want=2/2 got=%d/%d", after.ClaimedCount, after.TotalQuota)
	}

	// Content is fixed per project, so every read returns the same value.
	for i := 0; i < 3; i++ {
		el, err := h.claims.Eligibility(h.ctx, domainagg.EligibilityInput{ProjectID: p.ID, UserID: u.ID})
		if err != nil {
			t.Fatalf("eligibility: %v", err)
		}
		if el.Content != "SECRET-1" {
			t.Fatalf("eligibility content: want=SECRET-1 got=%q", el.Content)
		}
	}

	outcomes := h.hooks.ClaimOutcomes()
	if outcomes["granted"] != 2 || outcomes[string(domainagg.CodeDuplicateClaim)] != 1 {
		t.Fatalf("claim outcomes: %+v", outcomes)
	}
}

func TestManualApplicationScenario(t *testing.T) {
	h := newHarness(t)
	creator := h.user(t)
	created, err := h.projects.CreateProject(h.ctx, domainagg.CreateProjectInput{
		CreatorID:     creator.ID,
		Name:          "apply",
		Mode:          project.ModeManualApplication,
		TotalQuota:    5,
		AllowSameIP:   true,
		Questions:     []string{"Why do you want it?"},
		SharedPayload: "INVITE-42",
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	p := created.Project
	applicant := h.user(t)

	res, err := h.claims.Claim(h.ctx, domainagg.ClaimInput{
		ProjectID: p.ID,
		UserID:    applicant.ID,
		Answers:   []claims.Answer{{Answer: "to test things"}},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Granted || res.Content != "" || res.Status != claims.ApplicationPending || res.ApplicationID == uuid.Nil {
		t.Fatalf("submit result: %+v", res)
	}
	if got := h.reload(t, p.ID).ClaimedCount; got != 0 {
		t.Fatalf("submitting must not reserve quota: got=%d", got)
	}

	el, err := h.claims.Eligibility(h.ctx, domainagg.EligibilityInput{ProjectID: p.ID, UserID: applicant.ID})
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if !el.AlreadyClaimed || el.ApplicationStatus != claims.ApplicationPending || el.Content != "" {
		t.Fatalf("eligibility while pending: %+v", el)
	}

	_, err = h.claims.Claim(h.ctx, domainagg.ClaimInput{
		ProjectID: p.ID,
		UserID:    applicant.ID,
		Answers:   []claims.Answer{{Answer: "again"}},
	})
	requireCode(t, err, domainagg.CodeDuplicateClaim)

	resolved, err := h.claims.ResolveApplication(h.ctx, domainagg.ResolveApplicationInput{
		ApplicationID: res.ApplicationID,
		ApproverID:    creator.ID,
		Decision:      claims.DecisionApprove,
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if resolved.Application.Status != claims.ApplicationApproved || resolved.Application.ProcessedAt == nil {
		t.Fatalf("approved application: %+v", resolved.Application)
	}
	if got := h.reload(t, p.ID).ClaimedCount; got != 1 {
		t.Fatalf("approval reserves one unit: got=%d", got)
	}

	_, err = h.claims.ResolveApplication(h.ctx, domainagg.ResolveApplicationInput{
		ApplicationID: res.ApplicationID,
		ApproverID:    creator.ID,
		Decision:      claims.DecisionReject,
	})
	requireCode(t, err, domainagg.CodeStateConflict)

	el, err = h.claims.Eligibility(h.ctx, domainagg.EligibilityInput{ProjectID: p.ID, UserID: applicant.ID})
	if err != nil {
		t.Fatalf("eligibility after approval: %v", err)
	}
	if el.ApplicationStatus != claims.ApplicationApproved || el.Content != "INVITE-42" {
		t.Fatalf("eligibility after approval: %+v", el)
	}
}

func TestResolveApplicationRules(t *testing.T) {
	h := newHarness(t)
	creator := h.user(t)
	p := testutil.SeedProject(t, h.ctx, h.db, creator.ID, project.ModeManualApplication, 1)
	testutil.SeedQuestions(t, h.ctx, h.db, p.ID, "Who are you?")
	applicant := h.user(t)
	app := testutil.SeedApplication(t, h.ctx, h.db, p.ID, applicant.ID, claims.ApplicationPending)

	_, err := h.claims.ResolveApplication(h.ctx, domainagg.ResolveApplicationInput{
		ApplicationID: app.ID,
		ApproverID:    applicant.ID,
		Decision:      claims.DecisionApprove,
	})
	requireCode(t, err, domainagg.CodeAuthorization)

	_, err = h.claims.ResolveApplication(h.ctx, domainagg.ResolveApplicationInput{
		ApplicationID: uuid.New(),
		ApproverID:    creator.ID,
		Decision:      claims.DecisionApprove,
	})
	requireCode(t, err, domainagg.CodeNotFound)

	_, err = h.claims.ResolveApplication(h.ctx, domainagg.ResolveApplicationInput{
		ApplicationID: app.ID,
		ApproverID:    creator.ID,
		Decision:      claims.Decision("maybe"),
	})
	requireCode(t, err, domainagg.CodeValidation)

	if _, err := h.claims.ResolveApplication(h.ctx, domainagg.ResolveApplicationInput{
		ApplicationID: app.ID,
		ApproverID:    creator.ID,
		Decision:      claims.DecisionReject,
	}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := h.reload(t, p.ID).ClaimedCount; got != 0 {
		t.Fatalf("rejection must not take quota: got=%d", got)
	}

	// A rejected applicant may apply again.
	res, err := h.claims.Claim(h.ctx, domainagg.ClaimInput{
		ProjectID: p.ID,
		UserID:    applicant.ID,
		Answers:   []claims.Answer{{Question: "Who are you?", Answer: "still me"}},
	})
	if err != nil {
		t.Fatalf("resubmit after rejection: %v", err)
	}
	if res.Status != claims.ApplicationPending {
		t.Fatalf("resubmitted status: %+v", res)
	}
}

func TestResolveApplicationApprovalRespectsQuota(t *testing.T) {
	h := newHarness(t)
	creator := h.user(t)
	p := testutil.SeedProject(t, h.ctx, h.db, creator.ID, project.ModeManualApplication, 1)
	first := testutil.SeedApplication(t, h.ctx, h.db, p.ID, h.user(t).ID, claims.ApplicationPending)
	second := testutil.SeedApplication(t, h.ctx, h.db, p.ID, h.user(t).ID, claims.ApplicationPending)

	if _, err := h.claims.ResolveApplication(h.ctx, domainagg.ResolveApplicationInput{
		ApplicationID: first.ID, ApproverID: creator.ID, Decision: claims.DecisionApprove,
	}); err != nil {
		t.Fatalf("first approval: %v", err)
	}
	_, err := h.claims.ResolveApplication(h.ctx, domainagg.ResolveApplicationInput{
		ApplicationID: second.ID, ApproverID: creator.ID, Decision: claims.DecisionApprove,
	})
	requireCode(t, err, domainagg.CodeQuotaExhausted)

	got, err := repos.NewApplicationRepo(h.db, testutil.Logger(t)).GetByID(dbctx.Context{Ctx: h.ctx}, second.ID)
	if err != nil {
		t.Fatalf("reload application: %v", err)
	}
	if got.Status != claims.ApplicationPending {
		t.Fatalf("failed approval must leave application pending, got=%s", got.Status)
	}
}

func TestClaimManualRequiresAnswers(t *testing.T) {
	h := newHarness(t)
	p := testutil.SeedProject(t, h.ctx, h.db, uuid.New(), project.ModeManualApplication, 3)
	testutil.SeedQuestions(t, h.ctx, h.db, p.ID, "Q1", "Q2")

	_, err := h.claims.Claim(h.ctx, domainagg.ClaimInput{
		ProjectID: p.ID,
		UserID:    h.user(t).ID,
		Answers:   []claims.Answer{{Answer: "only one"}},
	})
	requireCode(t, err, domainagg.CodeValidation)
}

func TestClaimGateFailures(t *testing.T) {
	hash, err := eligibility.HashPassword("open-sesame")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cases := []struct {
		name     string
		project  func(*project.Project)
		user     func(*user.User)
		password string
		code     domainagg.ErrorCode
		reason   eligibility.Reason
	}{
		{
			name:   "banned",
			user:   func(u *user.User) { u.Banned = true },
			code:   domainagg.CodeAuthorization,
			reason: eligibility.ReasonUserBanned,
		},
		{
			name:    "paused",
			project: func(p *project.Project) { p.Status = project.StatusPaused },
			code:    domainagg.CodeStateConflict,
			reason:  eligibility.ReasonProjectInactive,
		},
		{
			name:    "not started",
			project: func(p *project.Project) { p.StartTime = time.Now().UTC().Add(time.Hour) },
			code:    domainagg.CodeStateConflict,
			reason:  eligibility.ReasonNotStarted,
		},
		{
			name: "trust too low",
			project: func(p *project.Project) {
				p.RequiresVerifiedIdentity = true
				p.MinTrustLevel = 3
			},
			code:   domainagg.CodeAuthorization,
			reason: eligibility.ReasonTrustLevelTooLow,
		},
		{
			name:     "wrong password",
			project:  func(p *project.Project) { p.PasswordHash = &hash },
			password: "guess",
			code:     domainagg.CodeAuthorization,
			reason:   eligibility.ReasonPasswordMismatch,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			var pm []func(*project.Project)
			if tc.project != nil {
				pm = append(pm, tc.project)
			}
			var um []func(*user.User)
			if tc.user != nil {
				um = append(um, tc.user)
			}
			p := testutil.SeedProject(t, h.ctx, h.db, uuid.New(), project.ModeSharedSecret, 5, pm...)
			testutil.SeedSharedPayload(t, h.ctx, h.db, p.ID, "S")
			u := h.user(t, um...)

			_, err := h.claims.Claim(h.ctx, domainagg.ClaimInput{
				ProjectID: p.ID,
				UserID:    u.ID,
				Password:  tc.password,
			})
			requireCode(t, err, tc.code)
			if got := domainagg.ReasonOf(err); got != string(tc.reason) {
				t.Fatalf("reason: want=%s got=%s", tc.reason, got)
			}
			if got := h.reload(t, p.ID).ClaimedCount; got != 0 {
				t.Fatalf("gate failure must not touch the ledger: got=%d", got)
			}
		})
	}
}

func TestClaimWithCorrectPassword(t *testing.T) {
	h := newHarness(t)
	hash, err := eligibility.HashPassword("open-sesame")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	p := testutil.SeedProject(t, h.ctx, h.db, uuid.New(), project.ModeSharedSecret, 5, func(p *project.Project) {
		p.PasswordHash = &hash
	})
	testutil.SeedSharedPayload(t, h.ctx, h.db, p.ID, "S")
	u := h.user(t)

	el, err := h.claims.Eligibility(h.ctx, domainagg.EligibilityInput{ProjectID: p.ID, UserID: u.ID})
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if !el.NeedsPassword || !el.CanClaim || el.RemainingQuota != 5 {
		t.Fatalf("eligibility: %+v", el)
	}
	res, err := h.claims.Claim(h.ctx, domainagg.ClaimInput{ProjectID: p.ID, UserID: u.ID, Password: "open-sesame"})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Content != "S" {
		t.Fatalf("content: want=S got=%q", res.Content)
	}
}

func TestClaimUnknownSubjects(t *testing.T) {
	h := newHarness(t)
	p := testutil.SeedProject(t, h.ctx, h.db, uuid.New(), project.ModeSharedSecret, 1)

	_, err := h.claims.Claim(h.ctx, domainagg.ClaimInput{ProjectID: uuid.New(), UserID: h.user(t).ID})
	requireCode(t, err, domainagg.CodeNotFound)

	_, err = h.claims.Claim(h.ctx, domainagg.ClaimInput{ProjectID: p.ID, UserID: uuid.New()})
	requireCode(t, err, domainagg.CodeNotFound)

	_, err = h.claims.Claim(h.ctx, domainagg.ClaimInput{ProjectID: p.ID})
	requireCode(t, err, domainagg.CodeValidation)
}

func TestReconcileRestoresCount(t *testing.T) {
	h := newHarness(t)
	p := testutil.SeedProject(t, h.ctx, h.db, uuid.New(), project.ModeSharedSecret, 4)
	testutil.SeedSharedPayload(t, h.ctx, h.db, p.ID, "S")
	for i := 0; i < 2; i++ {
		if _, err := h.claim(t, p, h.user(t)); err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
	}
	if err := h.db.Model(&project.Project{}).Where("id = ?", p.ID).Update("claimed_count", 4).Error; err != nil {
		t.Fatalf("corrupt count: %v", err)
	}

	res, err := h.claims.Reconcile(h.ctx, p.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if res.Before != 4 || res.After != 2 {
		t.Fatalf("reconcile result: %+v", res)
	}
	if got := h.reload(t, p.ID).ClaimedCount; got != 2 {
		t.Fatalf("claimed count: want=2 got=%d", got)
	}

	res, err = h.claims.Reconcile(h.ctx, p.ID)
	if err != nil || res.Changed() {
		t.Fatalf("second reconcile should be a no-op: %+v err=%v", res, err)
	}
}
