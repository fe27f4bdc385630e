package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type ApplicationView struct {
	ID          uuid.UUID                `json:"id"`
	ProjectID   uuid.UUID                `json:"project_id"`
	ApplicantID uuid.UUID                `json:"applicant_id"`
	Username    string                   `json:"username,omitempty"`
	Answers     []claims.Answer          `json:"answers"`
	Status      claims.ApplicationStatus `json:"status"`
	AppliedAt   string                   `json:"applied_at"`
	ProcessedAt *string                  `json:"processed_at,omitempty"`
}

type ApplicationPage struct {
	Applications []ApplicationView `json:"applications"`
	Total        int64             `json:"total"`
}

type ApplicationService interface {
	Resolve(ctx context.Context, applicationID uuid.UUID, decision claims.Decision) (*claims.Application, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, status claims.ApplicationStatus, limit, offset int) (*ApplicationPage, error)
}

type applicationService struct {
	log          *logger.Logger
	claims       domainagg.ClaimAggregate
	projects     repos.ProjectRepo
	applications repos.ApplicationRepo
	users        repos.UserRepo
}

func NewApplicationService(
	log *logger.Logger,
	claimAgg domainagg.ClaimAggregate,
	projectRepo repos.ProjectRepo,
	applicationRepo repos.ApplicationRepo,
	userRepo repos.UserRepo,
) ApplicationService {
	return &applicationService{
		log:          log.With("service", "ApplicationService"),
		claims:       claimAgg,
		projects:     projectRepo,
		applications: applicationRepo,
		users:        userRepo,
	}
}

func (as *applicationService) Resolve(ctx context.Context, applicationID uuid.UUID, decision claims.Decision) (*claims.Application, error) {
	rd, err := caller(ctx, "services.application.resolve")
	if err != nil {
		return nil, err
	}
	res, err := as.claims.ResolveApplication(ctx, domainagg.ResolveApplicationInput{
		ApplicationID: applicationID,
		ApproverID:    rd.UserID,
		Decision:      decision,
	})
	if err != nil {
		return nil, err
	}
	as.log.ForRequest(ctx).Info("application resolved",
		"application_id", applicationID,
		"project_id", res.Application.ProjectID,
		"status", res.Application.Status,
	)
	return res.Application, nil
}

func (as *applicationService) ListByProject(ctx context.Context, projectID uuid.UUID, status claims.ApplicationStatus, limit, offset int) (*ApplicationPage, error) {
	const op = "services.application.list"
	rd, err := caller(ctx, op)
	if err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "unknown application status", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := as.projects.GetByID(dbc, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "project not found", nil)
	}
	if p.CreatorID != rd.UserID {
		return nil, domainagg.NewError(domainagg.CodeAuthorization, op, "only the project creator can review applications", nil)
	}
	limit, offset = clampPage(limit, offset)
	rows, total, err := as.applications.ListByProject(dbc, projectID, status, limit, offset)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, a := range rows {
		ids = append(ids, a.ApplicantID)
	}
	names := map[uuid.UUID]string{}
	if len(ids) > 0 {
		us, err := as.users.GetByIDs(dbc, ids)
		if err != nil {
			return nil, err
		}
		for _, u := range us {
			names[u.ID] = u.Username
		}
	}
	out := &ApplicationPage{Applications: make([]ApplicationView, 0, len(rows)), Total: total}
	for _, a := range rows {
		answers, err := a.DecodeAnswers()
		if err != nil {
			as.log.Warn("undecodable application answers", "application_id", a.ID, "error", err)
		}
		if answers == nil {
			answers = []claims.Answer{}
		}
		view := ApplicationView{
			ID:          a.ID,
			ProjectID:   a.ProjectID,
			ApplicantID: a.ApplicantID,
			Username:    names[a.ApplicantID],
			Answers:     answers,
			Status:      a.Status,
			AppliedAt:   a.AppliedAt.UTC().Format(timeLayout),
		}
		if a.ProcessedAt != nil {
			ts := a.ProcessedAt.UTC().Format(timeLayout)
			view.ProcessedAt = &ts
		}
		out.Applications = append(out.Applications, view)
	}
	return out, nil
}
