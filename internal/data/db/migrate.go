package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/cdk-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureClaimIndexes(db)
}

// EnsureClaimIndexes creates the constraints the claim engine relies on to
// turn races into unique violations. Plain SQL so the partial indexes work
// on both Postgres and SQLite.
func EnsureClaimIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_pool_item_project_fingerprint",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_pool_item_project_fingerprint
				ON project_pool_item (project_id, fingerprint);`,
		},
		{
			name: "idx_pool_item_project_claimer",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_pool_item_project_claimer
				ON project_pool_item (project_id, claimer_id)
				WHERE claimer_id IS NOT NULL;`,
		},
		{
			name: "idx_pool_item_available",
			sql: `CREATE INDEX IF NOT EXISTS idx_pool_item_available
				ON project_pool_item (project_id, claimed, seq);`,
		},
		{
			name: "idx_membership_project_claimer",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_membership_project_claimer
				ON project_membership (project_id, claimer_id);`,
		},
		{
			name: "idx_application_active_per_applicant",
			sql: `CREATE UNIQUE INDEX IF NOT EXISTS idx_application_active_per_applicant
				ON project_application (project_id, applicant_id)
				WHERE status <> 'rejected';`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
