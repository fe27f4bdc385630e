package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

// ProjectDetail is a project as shown to a would-be claimer.
type ProjectDetail struct {
	Project        *project.Project `json:"project"`
	Questions      []string         `json:"questions,omitempty"`
	RemainingQuota int64            `json:"remaining_quota"`
	NeedsPassword  bool             `json:"needs_password"`
	IsCreator      bool             `json:"is_creator"`
}

type ProjectListQuery struct {
	Category string
	Mode     project.Mode
	Status   project.Status
	// Mine lists the caller's own projects, hidden ones included.
	Mine   bool
	Limit  int
	Offset int
}

type ProjectPage struct {
	Projects []*project.Project `json:"projects"`
	Total    int64              `json:"total"`
}

type ProjectService interface {
	Create(ctx context.Context, in domainagg.CreateProjectInput) (domainagg.CreateProjectResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ProjectDetail, error)
	List(ctx context.Context, q ProjectListQuery) (*ProjectPage, error)
	Update(ctx context.Context, in domainagg.UpdateProjectInput) (*project.Project, error)
	ImportItems(ctx context.Context, projectID uuid.UUID, items []string) (domainagg.ImportItemsResult, error)
	Delete(ctx context.Context, projectID uuid.UUID) error
	Report(ctx context.Context, projectID uuid.UUID, reason string) (domainagg.ReportProjectResult, error)
}

type projectService struct {
	log        *logger.Logger
	projectAgg domainagg.ProjectAggregate
	projects   repos.ProjectRepo
	questions  repos.QuestionRepo
	limiter    Limiter
	sanitizer  *Sanitizer
	limits     ClaimLimits
}

func NewProjectService(
	log *logger.Logger,
	projectAgg domainagg.ProjectAggregate,
	projectRepo repos.ProjectRepo,
	questionRepo repos.QuestionRepo,
	limiter Limiter,
	sanitizer *Sanitizer,
	limits ClaimLimits,
) ProjectService {
	if limits.Window <= 0 {
		limits.Window = time.Minute
	}
	return &projectService{
		log:        log.With("service", "ProjectService"),
		projectAgg: projectAgg,
		projects:   projectRepo,
		questions:  questionRepo,
		limiter:    limiter,
		sanitizer:  sanitizer,
		limits:     limits,
	}
}

func (ps *projectService) Create(ctx context.Context, in domainagg.CreateProjectInput) (domainagg.CreateProjectResult, error) {
	rd, err := caller(ctx, "services.project.create")
	if err != nil {
		return domainagg.CreateProjectResult{}, err
	}
	if ps.limiter != nil && ps.limits.CreatePerWindow > 0 {
		ok, err := ps.limiter.Allow(ctx, "rl:create:"+rd.UserID.String(), ps.limits.CreatePerWindow, ps.limits.Window)
		if err != nil {
			ps.log.Warn("create rate limiter unavailable", "error", err)
		} else if !ok {
			return domainagg.CreateProjectResult{}, rateLimited("create project")
		}
	}
	in.CreatorID = rd.UserID
	in.Description = ps.sanitizer.Text(in.Description)
	for i, q := range in.Questions {
		in.Questions[i] = ps.sanitizer.Text(q)
	}
	return ps.projectAgg.CreateProject(ctx, in)
}

func (ps *projectService) Get(ctx context.Context, id uuid.UUID) (*ProjectDetail, error) {
	const op = "services.project.get"
	rd, err := caller(ctx, op)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := ps.projects.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	isCreator := p != nil && p.CreatorID == rd.UserID
	if p == nil || (p.IsHidden && !isCreator) {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "project not found", nil)
	}
	out := &ProjectDetail{
		Project:        p,
		RemainingQuota: p.Remaining(),
		NeedsPassword:  p.HasPassword(),
		IsCreator:      isCreator,
	}
	if p.Mode == project.ModeManualApplication {
		qs, err := ps.questions.ListByProject(dbc, p.ID)
		if err != nil {
			return nil, err
		}
		for _, q := range qs {
			out.Questions = append(out.Questions, q.Prompt)
		}
	}
	return out, nil
}

func (ps *projectService) List(ctx context.Context, q ProjectListQuery) (*ProjectPage, error) {
	rd, err := caller(ctx, "services.project.list")
	if err != nil {
		return nil, err
	}
	limit, offset := clampPage(q.Limit, q.Offset)
	f := repos.ProjectListFilter{
		Category: strings.ToLower(strings.TrimSpace(q.Category)),
		Mode:     q.Mode,
		Status:   q.Status,
		Limit:    limit,
		Offset:   offset,
	}
	if q.Mine {
		f.CreatorID = &rd.UserID
		f.IncludeHidden = true
	}
	items, total, err := ps.projects.List(dbctx.Context{Ctx: ctx}, f)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*project.Project{}
	}
	return &ProjectPage{Projects: items, Total: total}, nil
}

func (ps *projectService) Update(ctx context.Context, in domainagg.UpdateProjectInput) (*project.Project, error) {
	rd, err := caller(ctx, "services.project.update")
	if err != nil {
		return nil, err
	}
	in.CreatorID = rd.UserID
	if in.Description != nil {
		clean := ps.sanitizer.Text(*in.Description)
		in.Description = &clean
	}
	p, err := ps.projectAgg.UpdateProject(ctx, in)
	if err != nil {
		return nil, err
	}
	ps.log.ForRequest(ctx).Info("project updated", "project_id", p.ID, "status", p.Status)
	return p, nil
}

func (ps *projectService) ImportItems(ctx context.Context, projectID uuid.UUID, items []string) (domainagg.ImportItemsResult, error) {
	const op = "services.project.import_items"
	rd, err := caller(ctx, op)
	if err != nil {
		return domainagg.ImportItemsResult{}, err
	}
	if len(items) == 0 {
		return domainagg.ImportItemsResult{}, domainagg.NewError(domainagg.CodeValidation, op, "no items to import", nil)
	}
	res, err := ps.projectAgg.ImportItems(ctx, domainagg.ImportItemsInput{
		ProjectID: projectID,
		CreatorID: rd.UserID,
		Items:     items,
	})
	if err != nil {
		return domainagg.ImportItemsResult{}, err
	}
	ps.log.ForRequest(ctx).Info("pool items imported", "project_id", projectID, "inserted", res.Inserted, "skipped", res.Skipped)
	return res, nil
}

func (ps *projectService) Delete(ctx context.Context, projectID uuid.UUID) error {
	rd, err := caller(ctx, "services.project.delete")
	if err != nil {
		return err
	}
	if err := ps.projectAgg.DeleteProject(ctx, domainagg.DeleteProjectInput{
		ProjectID: projectID,
		CreatorID: rd.UserID,
	}); err != nil {
		return err
	}
	ps.log.ForRequest(ctx).Info("project deleted", "project_id", projectID)
	return nil
}

func (ps *projectService) Report(ctx context.Context, projectID uuid.UUID, reason string) (domainagg.ReportProjectResult, error) {
	rd, err := caller(ctx, "services.project.report")
	if err != nil {
		return domainagg.ReportProjectResult{}, err
	}
	res, err := ps.projectAgg.ReportProject(ctx, domainagg.ReportProjectInput{
		ProjectID:  projectID,
		ReporterID: rd.UserID,
		Reason:     ps.sanitizer.Text(reason),
	})
	if err != nil {
		return domainagg.ReportProjectResult{}, err
	}
	ps.log.ForRequest(ctx).Info("project reported", "project_id", projectID, "report_count", res.ReportCount, "hidden", res.Hidden)
	return res, nil
}
