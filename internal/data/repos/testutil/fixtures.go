package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cdk-backend/internal/domain"
	"github.com/yungbote/cdk-backend/internal/domain/claims"
	"github.com/yungbote/cdk-backend/internal/domain/project"
)

// VerifiedSource is the identity source seeded users carry by default.
const VerifiedSource = "linuxdo"

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, mutate ...func(*types.User)) *types.User {
	tb.Helper()
	id := uuid.New()
	u := &types.User{
		ID:             id,
		Username:       "user-" + id.String()[:8],
		IdentitySource: VerifiedSource,
		TrustLevel:     1,
		RiskScore:      80,
	}
	for _, fn := range mutate {
		fn(u)
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedProject inserts an active project that started an hour ago. Seed
// rows for its mode are left to the caller.
func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, creatorID uuid.UUID, mode project.Mode, quota int64, mutate ...func(*types.Project)) *types.Project {
	tb.Helper()
	p := &types.Project{
		CreatorID:   creatorID,
		Name:        fmt.Sprintf("%s project", mode),
		Category:    "other",
		Mode:        mode,
		TotalQuota:  quota,
		StartTime:   time.Now().UTC().Add(-time.Hour),
		AllowSameIP: true,
		Status:      project.StatusActive,
	}
	for _, fn := range mutate {
		fn(p)
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedPoolItems(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, contents ...string) []*types.PoolItem {
	tb.Helper()
	out := make([]*types.PoolItem, 0, len(contents))
	for i, c := range contents {
		it := &types.PoolItem{
			ProjectID: projectID,
			Seq:       int64(i + 1),
			Content:   c,
		}
		if err := tx.WithContext(ctx).Create(it).Error; err != nil {
			tb.Fatalf("seed pool item: %v", err)
		}
		out = append(out, it)
	}
	return out
}

func SeedSharedPayload(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, content string) *types.SharedPayload {
	tb.Helper()
	sp := &types.SharedPayload{ProjectID: projectID, Content: content}
	if err := tx.WithContext(ctx).Create(sp).Error; err != nil {
		tb.Fatalf("seed shared payload: %v", err)
	}
	return sp
}

func SeedQuestions(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, prompts ...string) []*types.ApplicationQuestion {
	tb.Helper()
	out := make([]*types.ApplicationQuestion, 0, len(prompts))
	for i, prompt := range prompts {
		q := &types.ApplicationQuestion{ProjectID: projectID, Position: i + 1, Prompt: prompt}
		if err := tx.WithContext(ctx).Create(q).Error; err != nil {
			tb.Fatalf("seed question: %v", err)
		}
		out = append(out, q)
	}
	return out
}

func SeedApplication(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, applicantID uuid.UUID, status claims.ApplicationStatus) *types.Application {
	tb.Helper()
	raw, err := claims.EncodeAnswers([]claims.Answer{{Question: "why", Answer: "because"}})
	if err != nil {
		tb.Fatalf("encode answers: %v", err)
	}
	a := &types.Application{
		ProjectID:   projectID,
		ApplicantID: applicantID,
		Answers:     raw,
		Status:      status,
		AppliedAt:   time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed application: %v", err)
	}
	return a
}
