package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

// OpenSQLite opens the embedded pure-Go store. SQLite ignores row locks, so
// the pool is pinned to one connection: transactions then run one at a
// time, which gives the same guarantees the Postgres locks provide.
func OpenSQLite(cfg Config, logg *logger.Logger) (*gorm.DB, error) {
	dsn := ":memory:"
	if path := strings.TrimSpace(cfg.SQLitePath); path != "" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	}
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(cfg, logg))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	logg.Info("Opened sqlite store", "path", cfg.SQLitePath)
	return db, nil
}
