package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/cdk-backend/internal/data/repos"
	"github.com/yungbote/cdk-backend/internal/domain/project"
	"github.com/yungbote/cdk-backend/internal/platform/dbctx"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

const (
	defaultTrendDays = 30
	maxTrendDays     = 90
	topProjectsLimit = 10
)

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type Dashboard struct {
	Days        int                `json:"days"`
	Trend       []DailyCount       `json:"trend"`
	ByCategory  []repos.GroupCount `json:"by_category"`
	ByMode      []repos.GroupCount `json:"by_mode"`
	ByStatus    []repos.GroupCount `json:"by_status"`
	TopProjects []*project.Project `json:"top_projects"`
}

type StatsService interface {
	Dashboard(ctx context.Context, days int) (*Dashboard, error)
}

type statsService struct {
	log   *logger.Logger
	stats repos.StatsRepo
	now   func() time.Time
}

func NewStatsService(log *logger.Logger, statsRepo repos.StatsRepo) StatsService {
	return &statsService{
		log:   log.With("service", "StatsService"),
		stats: statsRepo,
		now:   time.Now,
	}
}

func clampDays(days int) int {
	if days <= 0 {
		return defaultTrendDays
	}
	if days > maxTrendDays {
		return maxTrendDays
	}
	return days
}

func (ss *statsService) Dashboard(ctx context.Context, days int) (*Dashboard, error) {
	days = clampDays(days)
	today := ss.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))
	out := &Dashboard{Days: days}

	var perDay []repos.DayCount
	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.Context{Ctx: gctx}
	g.Go(func() (err error) {
		perDay, err = ss.stats.ClaimsPerDay(dbc, since)
		return err
	})
	g.Go(func() (err error) {
		out.ByCategory, err = ss.stats.CountProjectsBy(dbc, "category")
		return err
	})
	g.Go(func() (err error) {
		out.ByMode, err = ss.stats.CountProjectsBy(dbc, "mode")
		return err
	})
	g.Go(func() (err error) {
		out.ByStatus, err = ss.stats.CountProjectsBy(dbc, "status")
		return err
	})
	g.Go(func() (err error) {
		out.TopProjects, err = ss.stats.TopProjects(dbc, topProjectsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		ss.log.Error("dashboard query failed", "error", err)
		return nil, err
	}
	out.Trend = bucketDaily(perDay, since, days)
	return out, nil
}

// bucketDaily lays per-day counts onto the window, emitting every day even
// when empty. Days outside the window are dropped.
func bucketDaily(perDay []repos.DayCount, since time.Time, days int) []DailyCount {
	counts := make(map[string]int64, len(perDay))
	for _, d := range perDay {
		counts[d.Day] += d.Count
	}
	out := make([]DailyCount, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i).Format(time.DateOnly)
		out = append(out, DailyCount{Date: day, Count: counts[day]})
	}
	return out
}
