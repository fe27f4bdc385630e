package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/cdk-backend/internal/clients/redis"
	"github.com/yungbote/cdk-backend/internal/data/db"
	httpserver "github.com/yungbote/cdk-backend/internal/http"
	"github.com/yungbote/cdk-backend/internal/observability"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
	"github.com/yungbote/cdk-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	Cfg      *Config
	DB       *gorm.DB
	Redis    *goredis.Client
	Metrics  *observability.Metrics
	Repos    Repos
	Services Services
	Server   *httpserver.Server

	shutdownOtel func(context.Context) error
}

// New opens the stores and wires every layer. The caller owns Close.
func New(ctx context.Context, cfg *Config) (*App, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &App{Log: log, Cfg: cfg, shutdownOtel: func(context.Context) error { return nil }}

	a.shutdownOtel = observability.InitOTel(ctx, log, cfg.Otel)
	dbCfg := cfg.Database
	dbCfg.Tracing = dbCfg.Tracing || cfg.Otel.Enabled
	a.DB, err = db.Open(dbCfg, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if cfg.Redis.Enabled() {
		a.Redis, err = redis.NewClient(cfg.Redis, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
	}
	a.Metrics = observability.NewMetrics(cfg.Metrics, log)

	gin.SetMode(cfg.Server.Mode)
	a.Repos = wireRepos(a.DB, log)
	aggs := wireAggregates(a.DB, log, a.Metrics, a.Repos, cfg.Claims)
	a.Services = wireServices(log, cfg, a.Repos, aggs, a.Redis)
	a.Server = wireServer(log, cfg, a.Services, a.Metrics, a.DB)
	return a, nil
}

func (a *App) Migrate() error {
	a.Log.Info("Running migrations...", "driver", a.Cfg.Driver())
	return db.AutoMigrateAll(a.DB)
}

// Serve runs the HTTP server plus background collectors until ctx is done
// or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	if err := a.Migrate(); err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)

	a.Metrics.StartDBCollector(gctx, a.Log, a.DB)
	a.Metrics.StartRedisCollector(gctx, a.Log, a.Redis)
	a.Metrics.StartServer(gctx, a.Log, a.Cfg.Metrics.Addr)

	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", a.Cfg.Server.Addr)
		return a.Server.Run(gctx)
	})
	if every := a.Cfg.Claims.ReconcileInterval; every > 0 {
		g.Go(func() error {
			a.reconcileLoop(gctx, every)
			return nil
		})
	}
	return g.Wait()
}

func (a *App) Reconcile(ctx context.Context) (services.ReconcileReport, error) {
	return a.Services.Reconcile.Run(ctx)
}

func (a *App) reconcileLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := a.Reconcile(ctx)
			if err != nil && ctx.Err() == nil {
				a.Log.Error("reconcile sweep failed", "error", err)
				continue
			}
			if report.Drifted > 0 || report.Failed > 0 || report.Expired > 0 {
				a.Log.Info("reconcile sweep",
					"projects", report.Projects,
					"drifted", report.Drifted,
					"failed", report.Failed,
					"expired", report.Expired,
				)
			}
		}
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.shutdownOtel != nil {
		if err := a.shutdownOtel(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
