package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/domain/eligibility"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 2000
	maxCategoryLen    = 32
	maxItemLen        = 1000
	maxPayloadLen     = 10000
	maxQuestions      = 20
	maxQuestionLen    = 500
	maxReasonLen      = 255
	maxTrustLevel     = 4
	maxRiskScore      = 100
	// bcrypt only looks at the first 72 bytes.
	maxPasswordBytes = 72
	defaultCategory  = "other"
)

type ProjectAggregateDeps struct {
	Base BaseDeps

	Projects     repos.ProjectRepo
	Payloads     repos.SharedPayloadRepo
	Questions    repos.QuestionRepo
	Items        repos.PoolItemRepo
	Applications repos.ApplicationRepo
	Reports      repos.ReportRepo

	// ReportHideThreshold hides a project once this many users reported
	// it. Zero never hides.
	ReportHideThreshold int64
}

type projectAggregate struct {
	deps ProjectAggregateDeps
}

func NewProjectAggregate(deps ProjectAggregateDeps) domainagg.ProjectAggregate {
	deps.Base = deps.Base.withDefaults()
	return &projectAggregate{deps: deps}
}

func (a *projectAggregate) Contract() domainagg.Contract {
	return domainagg.ProjectAggregateContract
}

func (a *projectAggregate) configured() bool {
	d := a.deps
	return d.Projects != nil && d.Payloads != nil && d.Questions != nil && d.Items != nil && d.Applications != nil && d.Reports != nil
}

func (a *projectAggregate) CreateProject(ctx context.Context, in domainagg.CreateProjectInput) (domainagg.CreateProjectResult, error) {
	const op = "Projects.CreateProject"
	var out domainagg.CreateProjectResult
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "project aggregate repos not configured", nil)
	}
	now := a.deps.Base.clock(time.Time{})

	p, err := newProjectFromInput(in, now)
	if err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}

	var (
		items     []string
		payload   string
		questions []string
	)
	switch p.Mode {
	case project.ModeExclusivePool:
		var repeats int
		items, out.ItemsSkipped, repeats, err = dedupeItems(in.Items)
		if err == nil {
			switch {
			case len(items) == 0:
				err = fmt.Errorf("exclusive pool needs at least one item")
			case repeats > 0:
				err = fmt.Errorf("exclusive pool items must be unique, %d repeated", repeats)
			case p.TotalQuota != int64(len(items)):
				err = fmt.Errorf("total quota %d does not match %d items", p.TotalQuota, len(items))
			}
		}
	case project.ModeSharedSecret:
		payload, err = normalizePayload(in.SharedPayload, true)
	case project.ModeManualApplication:
		questions, err = normalizeQuestions(in.Questions)
		if err == nil {
			payload, err = normalizePayload(in.SharedPayload, false)
		}
	}
	if err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}

	if in.Password != "" {
		hash, err := eligibility.HashPassword(in.Password)
		if err != nil {
			return out, domainagg.NewError(domainagg.CodeInternal, op, "hash claim password", err)
		}
		p.PasswordHash = &hash
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		if err := a.deps.Projects.Create(dbc, p); err != nil {
			return err
		}
		if len(items) > 0 {
			if err := a.deps.Items.CreateBatch(dbc, poolItems(p.ID, items, 0)); err != nil {
				return err
			}
		}
		if payload != "" {
			if err := a.deps.Payloads.Upsert(dbc, p.ID, payload); err != nil {
				return err
			}
		}
		if len(questions) > 0 {
			rows := make([]*project.ApplicationQuestion, 0, len(questions))
			for i, q := range questions {
				rows = append(rows, &project.ApplicationQuestion{ProjectID: p.ID, Position: i + 1, Prompt: q})
			}
			if err := a.deps.Questions.Create(dbc, rows); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domainagg.CreateProjectResult{}, err
	}
	a.deps.Base.Log.Info("project created",
		"project_id", p.ID,
		"creator_id", p.CreatorID,
		"mode", p.Mode,
		"total_quota", p.TotalQuota,
	)
	out.Project = p
	return out, nil
}

func newProjectFromInput(in domainagg.CreateProjectInput, now time.Time) (*project.Project, error) {
	if in.CreatorID == uuid.Nil {
		return nil, fmt.Errorf("missing creator_id")
	}
	if !in.Mode.Valid() {
		return nil, fmt.Errorf("invalid distribution mode %q", in.Mode)
	}
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	category, err := normalizeCategory(in.Category)
	if err != nil {
		return nil, err
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLen {
		return nil, fmt.Errorf("description exceeds %d characters", maxDescriptionLen)
	}
	if in.TotalQuota <= 0 {
		return nil, fmt.Errorf("total quota must be greater than zero")
	}
	start := in.StartTime.UTC()
	if in.StartTime.IsZero() {
		start = now
	}
	var end *time.Time
	if in.EndTime != nil {
		e := in.EndTime.UTC()
		end = &e
	}
	if err := validateWindow(start, end); err != nil {
		return nil, err
	}
	if err := validateThresholds(in.MinTrustLevel, in.MinRiskScore, in.RequiresVerifiedIdentity); err != nil {
		return nil, err
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, fmt.Errorf("claim password exceeds %d bytes", maxPasswordBytes)
	}
	return &project.Project{
		CreatorID:                in.CreatorID,
		Name:                     name,
		Description:              description,
		Category:                 category,
		Mode:                     in.Mode,
		TotalQuota:               in.TotalQuota,
		StartTime:                start,
		EndTime:                  end,
		IsHidden:                 in.IsHidden,
		RequiresVerifiedIdentity: in.RequiresVerifiedIdentity,
		MinTrustLevel:            in.MinTrustLevel,
		MinRiskScore:             in.MinRiskScore,
		AllowSameIP:              in.AllowSameIP,
		Status:                   project.StatusActive,
	}, nil
}

func (a *projectAggregate) ImportItems(ctx context.Context, in domainagg.ImportItemsInput) (domainagg.ImportItemsResult, error) {
	const op = "Projects.ImportItems"
	var out domainagg.ImportItemsResult
	if in.ProjectID == uuid.Nil || in.CreatorID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or creator_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "project aggregate repos not configured", nil)
	}
	items, blanks, repeats, err := dedupeItems(in.Items)
	skipped := blanks + repeats
	if err != nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}
	if len(items) == 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "no items to import", nil)
	}

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.lockOwned(dbc, op, in.ProjectID, in.CreatorID)
		if err != nil {
			return err
		}
		if p.Mode != project.ModeExclusivePool {
			return domainagg.NewError(domainagg.CodeValidation, op, "items can only be imported into an exclusive pool project", nil)
		}
		if p.Status.Terminal() {
			return domainagg.NewError(domainagg.CodeStateConflict, op, fmt.Sprintf("project is %s", p.Status), nil)
		}

		fps := make([]string, 0, len(items))
		for _, it := range items {
			fps = append(fps, claims.Fingerprint(it))
		}
		existing, err := a.deps.Items.ExistingFingerprints(dbc, p.ID, fps)
		if err != nil {
			return err
		}
		fresh := make([]string, 0, len(items))
		for i, it := range items {
			if existing[fps[i]] {
				skipped++
				continue
			}
			fresh = append(fresh, it)
		}
		out.Skipped = skipped
		out.TotalQuota = p.TotalQuota
		if len(fresh) == 0 {
			return nil
		}

		maxSeq, err := a.deps.Items.MaxSeq(dbc, p.ID)
		if err != nil {
			return err
		}
		if err := a.deps.Items.CreateBatch(dbc, poolItems(p.ID, fresh, maxSeq)); err != nil {
			return err
		}
		out.Inserted = len(fresh)
		out.TotalQuota = p.TotalQuota + int64(len(fresh))
		return a.deps.Projects.UpdateFields(dbc, p.ID, map[string]interface{}{
			"total_quota": out.TotalQuota,
		})
	})
	if err != nil {
		return domainagg.ImportItemsResult{}, err
	}
	return out, nil
}

func (a *projectAggregate) UpdateProject(ctx context.Context, in domainagg.UpdateProjectInput) (*project.Project, error) {
	const op = "Projects.UpdateProject"
	if in.ProjectID == uuid.Nil || in.CreatorID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or creator_id", nil)
	}
	if !a.configured() {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "project aggregate repos not configured", nil)
	}
	var passwordHash *string
	if in.Password != nil && !in.ClearPassword {
		pw := *in.Password
		if pw == "" || len(pw) > maxPasswordBytes {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("claim password must be 1..%d bytes", maxPasswordBytes), nil)
		}
		hash, err := eligibility.HashPassword(pw)
		if err != nil {
			return nil, domainagg.NewError(domainagg.CodeInternal, op, "hash claim password", err)
		}
		passwordHash = &hash
	}

	var out *project.Project
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.lockOwned(dbc, op, in.ProjectID, in.CreatorID)
		if err != nil {
			return err
		}
		updates, payload, err := a.planUpdate(dbc, op, p, in)
		if err != nil {
			return err
		}
		if in.ClearPassword {
			updates["password_hash"] = nil
		} else if passwordHash != nil {
			updates["password_hash"] = *passwordHash
		}
		if payload != nil {
			if err := a.deps.Payloads.Upsert(dbc, p.ID, *payload); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := a.deps.Projects.UpdateFields(dbc, p.ID, updates); err != nil {
				return err
			}
		}
		out, err = a.deps.Projects.GetByID(dbc, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *projectAggregate) DeleteProject(ctx context.Context, in domainagg.DeleteProjectInput) error {
	const op = "Projects.DeleteProject"
	if in.ProjectID == uuid.Nil || in.CreatorID == uuid.Nil {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or creator_id", nil)
	}
	if !a.configured() {
		return domainagg.NewError(domainagg.CodeInternal, op, "project aggregate repos not configured", nil)
	}
	return executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.lockOwned(dbc, op, in.ProjectID, in.CreatorID)
		if err != nil {
			return err
		}
		hasClaims, err := a.hasClaims(dbc, p)
		if err != nil {
			return err
		}
		if hasClaims {
			return domainagg.NewError(domainagg.CodeStateConflict, op, "project cannot be deleted once claims exist", nil)
		}
		return a.deps.Projects.Delete(dbc, p.ID)
	})
}

func (a *projectAggregate) ReportProject(ctx context.Context, in domainagg.ReportProjectInput) (domainagg.ReportProjectResult, error) {
	const op = "Projects.ReportProject"
	out := domainagg.ReportProjectResult{ProjectID: in.ProjectID}
	if in.ProjectID == uuid.Nil || in.ReporterID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or reporter_id", nil)
	}
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "project aggregate repos not configured", nil)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" || utf8.RuneCountInString(reason) > maxReasonLen {
		return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("reason must be 1..%d characters", maxReasonLen), nil)
	}

	var wasHidden bool
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		p, err := a.deps.Projects.GetByID(dbc, in.ProjectID)
		if err != nil {
			return err
		}
		if p == nil || (p.IsHidden && p.CreatorID != in.ReporterID) {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("project not found: %s", in.ProjectID), nil)
		}
		if p.CreatorID == in.ReporterID {
			return domainagg.NewError(domainagg.CodeValidation, op, "creators cannot report their own project", nil)
		}
		wasHidden = p.IsHidden
		err = a.deps.Reports.Create(dbc, &project.Report{
			ProjectID:  p.ID,
			ReporterID: in.ReporterID,
			Reason:     reason,
		})
		if IsUniqueViolation(err) {
			return domainagg.NewError(domainagg.CodeStateConflict, op, "project already reported", err)
		}
		if err != nil {
			return err
		}
		if err := a.deps.Projects.AddReport(dbc, p.ID, a.deps.ReportHideThreshold); err != nil {
			return err
		}
		p, err = a.deps.Projects.GetByID(dbc, p.ID)
		if err != nil {
			return err
		}
		out.ReportCount = p.ReportCount
		out.Hidden = p.IsHidden
		return nil
	})
	if err != nil {
		return domainagg.ReportProjectResult{ProjectID: in.ProjectID}, err
	}
	if out.Hidden && !wasHidden {
		a.deps.Base.Log.Warn("project hidden after reports",
			"project_id", in.ProjectID,
			"report_count", out.ReportCount,
		)
	}
	return out, nil
}

// planUpdate validates every requested change against the locked row and
// returns the column updates plus an optional new shared payload.
func (a *projectAggregate) planUpdate(dbc dbctx.Context, op string, p *project.Project, in domainagg.UpdateProjectInput) (map[string]interface{}, *string, error) {
	invalid := func(format string, args ...any) error {
		return domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf(format, args...), nil)
	}
	conflict := func(format string, args ...any) error {
		return domainagg.NewError(domainagg.CodeStateConflict, op, fmt.Sprintf(format, args...), nil)
	}
	updates := map[string]interface{}{}

	if in.Name != nil {
		name, err := normalizeName(*in.Name)
		if err != nil {
			return nil, nil, invalid("%s", err.Error())
		}
		updates["name"] = name
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if utf8.RuneCountInString(d) > maxDescriptionLen {
			return nil, nil, invalid("description exceeds %d characters", maxDescriptionLen)
		}
		updates["description"] = d
	}
	if in.Category != nil {
		c, err := normalizeCategory(*in.Category)
		if err != nil {
			return nil, nil, invalid("%s", err.Error())
		}
		updates["category"] = c
	}

	hasClaims, err := a.hasClaims(dbc, p)
	if err != nil {
		return nil, nil, err
	}
	mode := p.Mode
	if in.Mode != nil && *in.Mode != p.Mode {
		if !in.Mode.Valid() {
			return nil, nil, invalid("invalid distribution mode %q", *in.Mode)
		}
		if hasClaims {
			return nil, nil, conflict("distribution mode cannot change once claims exist")
		}
		if err := a.requireSeed(dbc, op, p.ID, *in.Mode, in.SharedPayload); err != nil {
			return nil, nil, err
		}
		mode = *in.Mode
		updates["mode"] = string(mode)
	}

	if in.TotalQuota != nil && *in.TotalQuota != p.TotalQuota {
		q := *in.TotalQuota
		switch {
		case mode == project.ModeExclusivePool:
			return nil, nil, invalid("exclusive pool quota follows its item count; import items instead")
		case q <= 0:
			return nil, nil, invalid("total quota must be greater than zero")
		case q < p.ClaimedCount:
			return nil, nil, conflict("total quota %d is below claimed count %d", q, p.ClaimedCount)
		}
		updates["total_quota"] = q
	}
	if mode == project.ModeExclusivePool && mode != p.Mode {
		total, _, err := a.deps.Items.Counts(dbc, p.ID)
		if err != nil {
			return nil, nil, err
		}
		updates["total_quota"] = total
	}

	start, end := p.StartTime, p.EndTime
	if in.StartTime != nil {
		start = in.StartTime.UTC()
		updates["start_time"] = start
	}
	if in.ClearEnd {
		end = nil
		updates["end_time"] = nil
	} else if in.EndTime != nil {
		e := in.EndTime.UTC()
		end = &e
		updates["end_time"] = e
	}
	if in.StartTime != nil || in.EndTime != nil {
		if err := validateWindow(start, end); err != nil {
			return nil, nil, invalid("%s", err.Error())
		}
	}

	if in.IsHidden != nil {
		updates["is_hidden"] = *in.IsHidden
	}
	if in.Status != nil && *in.Status != p.Status {
		if err := validateStatusTransition(p.Status, *in.Status); err != nil {
			return nil, nil, conflict("%s", err.Error())
		}
		updates["status"] = string(*in.Status)
	}

	trust, risk := p.MinTrustLevel, p.MinRiskScore
	if in.MinTrustLevel != nil {
		trust = *in.MinTrustLevel
		updates["min_trust_level"] = trust
	}
	if in.MinRiskScore != nil {
		risk = *in.MinRiskScore
		updates["min_risk_score"] = risk
	}
	verified := p.RequiresVerifiedIdentity
	if in.RequiresVerifiedIdentity != nil {
		verified = *in.RequiresVerifiedIdentity
		updates["requires_verified_identity"] = verified
	}
	if err := validateThresholds(trust, risk, verified); err != nil {
		return nil, nil, invalid("%s", err.Error())
	}
	if in.AllowSameIP != nil {
		updates["allow_same_ip"] = *in.AllowSameIP
	}

	var payload *string
	if in.SharedPayload != nil {
		if mode == project.ModeExclusivePool {
			return nil, nil, invalid("exclusive pool projects have no shared payload")
		}
		v, err := normalizePayload(*in.SharedPayload, mode == project.ModeSharedSecret)
		if err != nil {
			return nil, nil, invalid("%s", err.Error())
		}
		if v != "" {
			payload = &v
		}
	}
	return updates, payload, nil
}

// hasClaims is true once the project has granted anything, or has an
// application waiting on the creator.
func (a *projectAggregate) hasClaims(dbc dbctx.Context, p *project.Project) (bool, error) {
	if p.ClaimedCount > 0 {
		return true, nil
	}
	if p.Mode != project.ModeManualApplication {
		return false, nil
	}
	n, err := a.deps.Applications.CountByProjectStatus(dbc, p.ID, claims.ApplicationPending)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// requireSeed checks that the rows a mode depends on already exist before
// switching a project to it.
func (a *projectAggregate) requireSeed(dbc dbctx.Context, op string, projectID uuid.UUID, mode project.Mode, newPayload *string) error {
	missing := func(msg string) error {
		return domainagg.NewError(domainagg.CodeValidation, op, msg, nil)
	}
	switch mode {
	case project.ModeExclusivePool:
		total, _, err := a.deps.Items.Counts(dbc, projectID)
		if err != nil {
			return err
		}
		if total == 0 {
			return missing("switching to exclusive pool requires imported items")
		}
	case project.ModeSharedSecret:
		if newPayload != nil && strings.TrimSpace(*newPayload) != "" {
			return nil
		}
		sp, err := a.deps.Payloads.GetByProject(dbc, projectID)
		if err != nil {
			return err
		}
		if sp == nil || strings.TrimSpace(sp.Content) == "" {
			return missing("switching to shared secret requires a shared payload")
		}
	case project.ModeManualApplication:
		qs, err := a.deps.Questions.ListByProject(dbc, projectID)
		if err != nil {
			return err
		}
		if len(qs) == 0 {
			return missing("switching to manual application requires questions")
		}
	}
	return nil
}

func (a *projectAggregate) lockOwned(dbc dbctx.Context, op string, projectID, creatorID uuid.UUID) (*project.Project, error) {
	p, err := a.deps.Projects.LockByID(dbc, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("project not found: %s", projectID), nil)
	}
	if p.CreatorID != creatorID {
		return nil, domainagg.NewError(domainagg.CodeAuthorization, op, "only the project creator can change it", nil)
	}
	return p, nil
}

func validateStatusTransition(from, to project.Status) error {
	if !to.Valid() {
		return fmt.Errorf("invalid status %q", to)
	}
	if from.Terminal() {
		return fmt.Errorf("project is %s", from)
	}
	switch to {
	case project.StatusActive, project.StatusPaused, project.StatusCompleted:
		return nil
	default:
		return fmt.Errorf("status %s is set by the system", to)
	}
}

func validateWindow(start time.Time, end *time.Time) error {
	if end != nil && !end.After(start) {
		return fmt.Errorf("end time must be after start time")
	}
	return nil
}

// Trust levels come from the verified identity source, so a trust floor
// without that requirement would never be checked.
func validateThresholds(trust, risk int, verified bool) error {
	if trust < 0 || trust > maxTrustLevel {
		return fmt.Errorf("min trust level must be between 0 and %d", maxTrustLevel)
	}
	if trust > 0 && !verified {
		return fmt.Errorf("min trust level requires verified identity")
	}
	if risk < 0 || risk > maxRiskScore {
		return fmt.Errorf("min risk score must be between 0 and %d", maxRiskScore)
	}
	return nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return "", fmt.Errorf("name exceeds %d characters", maxNameLen)
	}
	return name, nil
}

func normalizeCategory(raw string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return defaultCategory, nil
	}
	if utf8.RuneCountInString(c) > maxCategoryLen {
		return "", fmt.Errorf("category exceeds %d characters", maxCategoryLen)
	}
	return c, nil
}

func normalizePayload(raw string, required bool) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" && required {
		return "", fmt.Errorf("shared payload is required")
	}
	if utf8.RuneCountInString(v) > maxPayloadLen {
		return "", fmt.Errorf("shared payload exceeds %d characters", maxPayloadLen)
	}
	return v, nil
}

func normalizeQuestions(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, q := range raw {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if utf8.RuneCountInString(q) > maxQuestionLen {
			return nil, fmt.Errorf("question exceeds %d characters", maxQuestionLen)
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("manual application needs at least one question")
	}
	if len(out) > maxQuestions {
		return nil, fmt.Errorf("at most %d questions allowed", maxQuestions)
	}
	return out, nil
}

// dedupeItems trims, drops blanks and collapses repeats by fingerprint,
// keeping first-seen order.
func dedupeItems(raw []string) (out []string, blanks, repeats int, err error) {
	seen := make(map[string]struct{}, len(raw))
	out = make([]string, 0, len(raw))
	for _, it := range raw {
		it = strings.TrimSpace(it)
		if it == "" {
			blanks++
			continue
		}
		if utf8.RuneCountInString(it) > maxItemLen {
			return nil, 0, 0, fmt.Errorf("item exceeds %d characters", maxItemLen)
		}
		fp := claims.Fingerprint(it)
		if _, dup := seen[fp]; dup {
			repeats++
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, it)
	}
	return out, blanks, repeats, nil
}

func poolItems(projectID uuid.UUID, contents []string, afterSeq int64) []*claims.PoolItem {
	rows := make([]*claims.PoolItem, 0, len(contents))
	for i, c := range contents {
		rows = append(rows, &claims.PoolItem{
			ProjectID:   projectID,
			Seq:         afterSeq + int64(i) + 1,
			Content:     c,
			Fingerprint: claims.Fingerprint(c),
		})
	}
	return rows
}
