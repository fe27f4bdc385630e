package aggregates

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
)

const maxAnswerLen = 2000

// manualApplicationStrategy records a pending application. Quota and
// content move only when the creator approves it.
type manualApplicationStrategy struct {
	applications repos.ApplicationRepo
	questions    repos.QuestionRepo
	payloads     repos.SharedPayloadRepo
}

func (s *manualApplicationStrategy) Mode() project.Mode { return project.ModeManualApplication }

func (s *manualApplicationStrategy) ReservesOnClaim() bool { return false }

func (s *manualApplicationStrategy) DuplicateCheck(dbc dbctx.Context, p *project.Project, userID uuid.UUID) (bool, error) {
	a, err := s.applications.GetActiveByApplicant(dbc, p.ID, userID)
	if err != nil {
		return false, err
	}
	return a != nil, nil
}

func (s *manualApplicationStrategy) Allocate(dbc dbctx.Context, p *project.Project, req claimRequest) (allocation, error) {
	const op = "Claims.ManualApplication.Allocate"
	qs, err := s.questions.ListByProject(dbc, p.ID)
	if err != nil {
		return allocation{}, err
	}
	answers, err := matchAnswers(qs, req.Answers)
	if err != nil {
		return allocation{}, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}
	raw, err := claims.EncodeAnswers(answers)
	if err != nil {
		return allocation{}, err
	}
	app := &claims.Application{
		ProjectID:   p.ID,
		ApplicantID: req.UserID,
		Answers:     raw,
		Status:      claims.ApplicationPending,
		AppliedAt:   req.Now,
	}
	if err := s.applications.Create(dbc, app); err != nil {
		if IsUniqueViolation(err) {
			return allocation{}, domainagg.NewError(domainagg.CodeDuplicateClaim, op, "user already has an open application", err)
		}
		return allocation{}, err
	}
	return allocation{
		ApplicationID: app.ID,
		Status:        app.Status,
		ClaimedAt:     req.Now,
	}, nil
}

func (s *manualApplicationStrategy) Holding(dbc dbctx.Context, p *project.Project, userID uuid.UUID) (holding, error) {
	a, err := s.applications.GetLatestByApplicant(dbc, p.ID, userID)
	if err != nil || a == nil {
		return holding{}, err
	}
	out := holding{
		Claimed:           a.Status != claims.ApplicationRejected,
		ApplicationStatus: a.Status,
	}
	if a.Status == claims.ApplicationApproved {
		sp, err := s.payloads.GetByProject(dbc, p.ID)
		if err != nil {
			return holding{}, err
		}
		if sp != nil {
			out.Content = sp.Content
		}
	}
	return out, nil
}

func (s *manualApplicationStrategy) Recount(dbc dbctx.Context, projectID uuid.UUID) (int64, error) {
	return s.applications.CountByProjectStatus(dbc, projectID, claims.ApplicationApproved)
}

// matchAnswers lines the submitted answers up with the project's
// questions. An answer naming its question wins; otherwise answers are
// taken by position. Every question needs a non-empty answer.
func matchAnswers(qs []*project.ApplicationQuestion, in []claims.Answer) ([]claims.Answer, error) {
	byPrompt := make(map[string]string, len(in))
	for _, a := range in {
		if q := strings.TrimSpace(a.Question); q != "" {
			byPrompt[q] = a.Answer
		}
	}
	out := make([]claims.Answer, 0, len(qs))
	for i, q := range qs {
		prompt := strings.TrimSpace(q.Prompt)
		ans, ok := byPrompt[prompt]
		if !ok && i < len(in) && strings.TrimSpace(in[i].Question) == "" {
			ans = in[i].Answer
		}
		ans = strings.TrimSpace(ans)
		if ans == "" {
			return nil, fmt.Errorf("answer required for question %d", i+1)
		}
		if utf8.RuneCountInString(ans) > maxAnswerLen {
			return nil, fmt.Errorf("answer to question %d exceeds %d characters", i+1, maxAnswerLen)
		}
		out = append(out, claims.Answer{Question: prompt, Answer: ans})
	}
	return out, nil
}
