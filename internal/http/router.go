package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/cdk-backend/internal/http/handlers"
	httpMW "github.com/yungbote/cdk-backend/internal/http/middleware"
	"github.com/yungbote/cdk-backend/internal/observability"
	"github.com/yungbote/cdk-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler      *httpH.HealthHandler
	ProjectHandler     *httpH.ProjectHandler
	ClaimHandler       *httpH.ClaimHandler
	ApplicationHandler *httpH.ApplicationHandler
	HistoryHandler     *httpH.HistoryHandler
	IdentityHandler    *httpH.IdentityHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		name := cfg.ServiceName
		if name == "" {
			name = "cdk"
		}
		r.Use(otelgin.Middleware(name))
	}
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Identity sync (service to service)
	if cfg.IdentityHandler != nil && cfg.AuthMiddleware != nil {
		internal := r.Group("/internal")
		internal.Use(cfg.AuthMiddleware.RequireInternalKey())
		internal.PUT("/users/:id", cfg.IdentityHandler.Sync)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Projects
		if cfg.ProjectHandler != nil {
			api.POST("/projects", cfg.ProjectHandler.Create)
			api.GET("/projects", cfg.ProjectHandler.List)
			api.GET("/projects/:id", cfg.ProjectHandler.Get)
			api.PATCH("/projects/:id", cfg.ProjectHandler.Update)
			api.DELETE("/projects/:id", cfg.ProjectHandler.Delete)
			api.POST("/projects/:id/report", cfg.ProjectHandler.Report)
			api.POST("/projects/:id/items", cfg.ProjectHandler.ImportItems)
			api.GET("/projects/:id/claims", cfg.ProjectHandler.Receipts)
		}

		// Claims
		if cfg.ClaimHandler != nil {
			api.GET("/projects/:id/eligibility", cfg.ClaimHandler.Eligibility)
			api.POST("/projects/:id/claim", cfg.ClaimHandler.Claim)
		}

		// Applications
		if cfg.ApplicationHandler != nil {
			api.GET("/projects/:id/applications", cfg.ApplicationHandler.ListByProject)
			api.POST("/applications/:id/resolve", cfg.ApplicationHandler.Resolve)
		}

		// History + stats
		if cfg.HistoryHandler != nil {
			api.GET("/me/claims", cfg.HistoryHandler.MyClaims)
			api.GET("/stats", cfg.HistoryHandler.Dashboard)
		}
	}

	return r
}
