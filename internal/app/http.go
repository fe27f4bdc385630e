package app

import (
	"context"

	"gorm.io/gorm"

	httpserver "github.com/yungbote/cdk-backend/internal/http"
	httpH "github.com/yungbote/cdk-backend/internal/http/handlers"
	httpMW "github.com/yungbote/cdk-backend/internal/http/middleware"
	"github.com/yungbote/cdk-backend/internal/observability"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg *Config, svc Services, metrics *observability.Metrics, db *gorm.DB) *httpserver.Server {
	log.Info("Wiring http server...")
	srv := httpserver.NewServer(cfg.Server.Addr, httpserver.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		ServiceName:        cfg.Otel.ServiceName,
		TracingEnabled:     cfg.Otel.Enabled,
		CORSOrigins:        cfg.Server.CORSOrigins,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, svc.Auth, cfg.Auth.InternalKey),
		HealthHandler:      httpH.NewHealthHandler(pingDB(db)),
		ProjectHandler:     httpH.NewProjectHandler(svc.Projects, svc.History),
		ClaimHandler:       httpH.NewClaimHandler(svc.Claims),
		ApplicationHandler: httpH.NewApplicationHandler(svc.Applications),
		HistoryHandler:     httpH.NewHistoryHandler(svc.History, svc.Stats),
		IdentityHandler:    httpH.NewIdentityHandler(svc.Identity),
	})
	srv.ShutdownTimeout = cfg.Server.ShutdownTimeout
	return srv
}

func pingDB(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
