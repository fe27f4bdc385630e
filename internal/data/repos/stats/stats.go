package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/cdk-backend/internal/domain"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

// ClaimRecord is one committed claim, whichever mode produced it.
type ClaimRecord struct {
	ProjectID   uuid.UUID               `json:"project_id"`
	ProjectName string                  `json:"project_name"`
	Category    string                  `json:"category"`
	Mode        types.ProjectMode       `json:"mode"`
	ClaimerID   uuid.UUID               `json:"claimer_id"`
	Username    string                  `json:"username,omitempty"`
	Content     string                  `json:"content,omitempty"`
	Status      types.ApplicationStatus `json:"status,omitempty"`
	ClaimedAt   time.Time               `json:"claimed_at"`
}

type GroupCount struct {
	Key   string `gorm:"column:group_key" json:"key"`
	Count int64  `gorm:"column:total" json:"count"`
}

// StatsRepo holds read-only queries over committed rows. None of them take
// locks, so they never contend with claim transactions.
type StatsRepo interface {
	UserClaims(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]ClaimRecord, error)
	ProjectClaims(dbc dbctx.Context, p *types.Project, limit, offset int) ([]ClaimRecord, int64, error)
	ClaimsPerDay(dbc dbctx.Context, since time.Time) ([]DayCount, error)
	CountProjectsBy(dbc dbctx.Context, column string) ([]GroupCount, error)
	TopProjects(dbc dbctx.Context, limit int) ([]*types.Project, error)
}

type statsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatsRepo(db *gorm.DB, baseLog *logger.Logger) StatsRepo {
	return &statsRepo{db: db, log: baseLog.With("repo", "StatsRepo")}
}

type claimRow struct {
	ProjectID   uuid.UUID
	ProjectName string
	Category    string
	Mode        string
	ClaimerID   uuid.UUID
	Username    string
	Content     string
	Status      string
	ClaimedAt   time.Time
}

func (row claimRow) record() ClaimRecord {
	return ClaimRecord{
		ProjectID:   row.ProjectID,
		ProjectName: row.ProjectName,
		Category:    row.Category,
		Mode:        types.ProjectMode(row.Mode),
		ClaimerID:   row.ClaimerID,
		Username:    row.Username,
		Content:     row.Content,
		Status:      types.ApplicationStatus(row.Status),
		ClaimedAt:   row.ClaimedAt,
	}
}

// UserClaims merges the three claim tables newest first. Each source is
// capped at offset+limit rows, which is all the merged page can need.
func (r *statsRepo) UserClaims(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]ClaimRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	limit, offset = normalizePage(limit, offset)
	window := limit + offset
	db := transaction.WithContext(dbc.Ctx)

	var items, members, apps []claimRow
	if err := db.Table("project_pool_item AS i").
		Select("i.project_id, p.name AS project_name, p.category, p.mode, i.claimer_id, i.content, '' AS status, i.claimed_at").
		Joins("JOIN project p ON p.id = i.project_id AND p.deleted_at IS NULL").
		Where("i.claimer_id = ? AND i.claimed = ?", userID, true).
		Order("i.claimed_at DESC").
		Limit(window).
		Scan(&items).Error; err != nil {
		return nil, fmt.Errorf("pool item claims: %w", err)
	}
	if err := db.Table("project_membership AS m").
		Select("m.project_id, p.name AS project_name, p.category, p.mode, m.claimer_id, COALESCE(s.content, '') AS content, '' AS status, m.claimed_at").
		Joins("JOIN project p ON p.id = m.project_id AND p.deleted_at IS NULL").
		Joins("LEFT JOIN project_shared_payload s ON s.project_id = m.project_id").
		Where("m.claimer_id = ?", userID).
		Order("m.claimed_at DESC").
		Limit(window).
		Scan(&members).Error; err != nil {
		return nil, fmt.Errorf("membership claims: %w", err)
	}
	// Applications carry content only once approved.
	if err := db.Table("project_application AS a").
		Select("a.project_id, p.name AS project_name, p.category, p.mode, a.applicant_id AS claimer_id, "+
			"CASE WHEN a.status = ? THEN COALESCE(s.content, '') ELSE '' END AS content, a.status, a.applied_at AS claimed_at", types.ApplicationApproved).
		Joins("JOIN project p ON p.id = a.project_id AND p.deleted_at IS NULL").
		Joins("LEFT JOIN project_shared_payload s ON s.project_id = a.project_id").
		Where("a.applicant_id = ?", userID).
		Order("a.applied_at DESC").
		Limit(window).
		Scan(&apps).Error; err != nil {
		return nil, fmt.Errorf("application claims: %w", err)
	}

	all := make([]ClaimRecord, 0, len(items)+len(members)+len(apps))
	for _, rows := range [][]claimRow{items, members, apps} {
		for _, row := range rows {
			all = append(all, row.record())
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].ClaimedAt.After(all[j].ClaimedAt) })
	if offset >= len(all) {
		return []ClaimRecord{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// ProjectClaims lists who claimed from one project. Content is included:
// only the project's creator is allowed to call this.
func (r *statsRepo) ProjectClaims(dbc dbctx.Context, p *types.Project, limit, offset int) ([]ClaimRecord, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	limit, offset = normalizePage(limit, offset)
	db := transaction.WithContext(dbc.Ctx)

	var base *gorm.DB
	var cols string
	switch p.Mode {
	case types.ModeExclusivePool:
		base = db.Table("project_pool_item AS c").
			Joins("LEFT JOIN user_snapshot u ON u.id = c.claimer_id").
			Where("c.project_id = ? AND c.claimed = ?", p.ID, true)
		cols = "c.project_id, c.claimer_id, u.username, c.content, '' AS status, c.claimed_at"
	case types.ModeSharedSecret:
		base = db.Table("project_membership AS c").
			Joins("LEFT JOIN user_snapshot u ON u.id = c.claimer_id").
			Where("c.project_id = ?", p.ID)
		cols = "c.project_id, c.claimer_id, u.username, '' AS content, '' AS status, c.claimed_at"
	case types.ModeManualApplication:
		base = db.Table("project_application AS c").
			Joins("LEFT JOIN user_snapshot u ON u.id = c.applicant_id").
			Where("c.project_id = ? AND c.status = ?", p.ID, types.ApplicationApproved)
		cols = "c.project_id, c.applicant_id AS claimer_id, u.username, '' AS content, c.status, c.processed_at AS claimed_at"
	default:
		return nil, 0, fmt.Errorf("unknown project mode %q", p.Mode)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []claimRow
	if err := base.Select(cols).Order("claimed_at DESC").Limit(limit).Offset(offset).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]ClaimRecord, 0, len(rows))
	for _, row := range rows {
		rec := row.record()
		rec.ProjectName = p.Name
		rec.Category = p.Category
		rec.Mode = p.Mode
		out = append(out, rec)
	}
	return out, total, nil
}

// DayCount is the number of grants on one UTC day, formatted YYYY-MM-DD.
type DayCount struct {
	Day   string `gorm:"column:day" json:"day"`
	Count int64  `gorm:"column:total" json:"count"`
}

// ClaimsPerDay counts grants per UTC day since the given time, across all
// modes. Days without grants are absent. The grouping runs in the database
// so the result is bounded by the number of days, not grants.
func (r *statsRepo) ClaimsPerDay(dbc dbctx.Context, since time.Time) ([]DayCount, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	db := transaction.WithContext(dbc.Ctx)
	since = since.UTC()

	sources := []struct {
		model  any
		column string
		where  string
		args   []any
	}{
		{&types.PoolItem{}, "claimed_at", "claimed = ? AND claimed_at >= ?", []any{true, since}},
		{&types.Membership{}, "claimed_at", "claimed_at >= ?", []any{since}},
		{&types.Application{}, "processed_at", "status = ? AND processed_at >= ?", []any{types.ApplicationApproved, since}},
	}
	merged := map[string]int64{}
	for _, src := range sources {
		day := utcDayExpr(db, src.column)
		var rows []DayCount
		if err := db.Model(src.model).
			Select(day+" AS day, COUNT(*) AS total").
			Where(src.where, src.args...).
			Group(day).
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("claims per day from %s: %w", src.column, err)
		}
		for _, row := range rows {
			merged[row.Day] += row.Count
		}
	}
	out := make([]DayCount, 0, len(merged))
	for day, n := range merged {
		out = append(out, DayCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// utcDayExpr renders a timestamp column as its UTC calendar day. SQLite
// keeps timestamps as text, which date() parses and normalizes to UTC.
func utcDayExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "postgres" {
		return fmt.Sprintf("to_char(%s AT TIME ZONE 'UTC', 'YYYY-MM-DD')", column)
	}
	return fmt.Sprintf("date(%s)", column)
}

var groupableColumns = map[string]bool{
	"category": true,
	"mode":     true,
	"status":   true,
}

func (r *statsRepo) CountProjectsBy(dbc dbctx.Context, column string) ([]GroupCount, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if !groupableColumns[column] {
		return nil, fmt.Errorf("cannot group projects by %q", column)
	}
	var out []GroupCount
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Project{}).
		Select(column + " AS group_key, COUNT(*) AS total").
		Group(column).
		Order("total DESC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *statsRepo) TopProjects(dbc dbctx.Context, limit int) ([]*types.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var out []*types.Project
	if err := transaction.WithContext(dbc.Ctx).
		Where("is_hidden = ?", false).
		Order("claimed_count DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
