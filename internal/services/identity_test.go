package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/cdk-backend/internal/domain/aggregates"
)

func TestIdentityServiceSync(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewIdentityService(f.log, f.users)
	id := uuid.New()

	if _, err := svc.Sync(ctx, id, IdentitySnapshot{Username: " alice ", IdentitySource: "LinuxDo", TrustLevel: 2, RiskScore: 70}); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if _, err := svc.Sync(ctx, id, IdentitySnapshot{Username: "alice", IdentitySource: "linuxdo", TrustLevel: 3, RiskScore: 75, Banned: true}); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	u, err := f.users.GetByID(dbcOf(ctx), id)
	if err != nil || u == nil {
		t.Fatalf("load user: %v", err)
	}
	if u.Username != "alice" || u.IdentitySource != "linuxdo" || u.TrustLevel != 3 || !u.Banned {
		t.Fatalf("snapshot: %+v", u)
	}

	cases := []struct {
		name string
		id   uuid.UUID
		snap IdentitySnapshot
	}{
		{"nil id", uuid.Nil, IdentitySnapshot{}},
		{"trust", id, IdentitySnapshot{TrustLevel: 5}},
		{"risk", id, IdentitySnapshot{RiskScore: 101}},
	}
	for _, tc := range cases {
		_, err := svc.Sync(ctx, tc.id, tc.snap)
		if domainagg.CodeOf(err) != domainagg.CodeValidation {
			t.Fatalf("%s: want validation got %v", tc.name, err)
		}
	}
}
