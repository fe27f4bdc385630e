package app

import (
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/cdk-backend/internal/platform/logger"
	"github.com/yungbote/cdk-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Claims       services.ClaimService
	Projects     services.ProjectService
	Applications services.ApplicationService
	History      services.HistoryService
	Stats        services.StatsService
	Identity     services.IdentityService
	Reconcile    services.ReconcileService
}

// wireServices falls back to an in-process limiter when Redis is not
// configured; limits and same-IP locks are then per instance.
func wireServices(log *logger.Logger, cfg *Config, r Repos, aggs Aggregates, rdb *goredis.Client) Services {
	log.Info("Wiring services...")
	var limiter services.Limiter
	if rdb != nil {
		limiter = services.NewRedisLimiter(log, rdb)
	} else {
		log.Warn("Redis not configured, using in-memory limiter")
		limiter = services.NewMemoryLimiter()
	}
	sanitizer := services.NewSanitizer()
	limits := cfg.Claims.Limits

	return Services{
		Auth:         services.NewAuthService(log, cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		Claims:       services.NewClaimService(log, aggs.Claims, r.Project, r.User, limiter, sanitizer, limits),
		Projects:     services.NewProjectService(log, aggs.Projects, r.Project, r.Question, limiter, sanitizer, limits),
		Applications: services.NewApplicationService(log, aggs.Claims, r.Project, r.Application, r.User),
		History:      services.NewHistoryService(log, r.Stats, r.Project, r.Application),
		Stats:        services.NewStatsService(log, r.Stats),
		Identity:     services.NewIdentityService(log, r.User),
		Reconcile:    services.NewReconcileService(log, aggs.Claims, r.Project),
	}
}
