package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/the-local-guys/testtag-api/internal/middleware"
	"github.com/the-local-guys/testtag-api/internal/models"
	"github.com/the-local-guys/testtag-api/internal/repository"
	"github.com/the-local-guys/testtag-api/internal/service"
	"github.com/the-local-guys/testtag-api/pkg/logger"
	corsmiddleware "github.com/the-local-guys/testtag-api/pkg/middleware/cors"
	reqidmiddleware "github.com/the-local-guys/testtag-api/pkg/middleware/requestid"
)

// RouterConfig carries the knobs the router needs from app config.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Production     bool
}

// RouterDeps bundles the wired handlers and services for route registration.
type RouterDeps struct {
	Auth         *AuthHandler
	Users        *UserHandler
	Sessions     *SessionHandler
	Results      *ResultHandler
	Environments *EnvironmentHandler
	FormTypes    *FormTypeHandler
	Reports      *ReportHandler
	Metrics      *MetricsHandler

	AuthService    *service.AuthService
	MetricsService *service.MetricsService
	AuditRepo      *repository.UserRepository
}

// NewRouter assembles the gin engine with middleware and all API routes.
func NewRouter(cfg RouterConfig, log *zap.Logger, deps RouterDeps) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(deps.MetricsService))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.Metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", deps.Metrics.Prometheus)
	r.GET("/status", deps.Metrics.Status)

	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	authn := middleware.JWT(deps.AuthService)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.Auth.Login)
		auth.POST("/register", deps.Auth.Register)
		auth.POST("/refresh", deps.Auth.Refresh)
		auth.POST("/logout", authn, deps.Auth.Logout)
		auth.POST("/change-password", authn, deps.Auth.ChangePassword)
		auth.GET("/me", authn, deps.Auth.Me)
	}

	users := api.Group("/users", authn)
	{
		users.GET("", middleware.RequirePermission(models.PermUsersRead), deps.Users.List)
		users.GET("/:id", middleware.RequirePermission(models.PermUsersRead), deps.Users.Get)
		users.POST("", middleware.RequirePermission(models.PermUsersManage), middleware.Audit(deps.AuditRepo, models.AuditActionUserCreate, "users"), deps.Users.Create)
		users.PUT("/:id", middleware.RequirePermission(models.PermUsersManage), middleware.Audit(deps.AuditRepo, models.AuditActionUserUpdate, "users"), deps.Users.Update)
		users.DELETE("/:id", middleware.RequirePermission(models.PermUsersManage), middleware.Audit(deps.AuditRepo, models.AuditActionUserDelete, "users"), deps.Users.Delete)
	}

	sessions := api.Group("/sessions", authn, middleware.RequirePermission(models.PermSessionsOwn))
	{
		sessions.GET("", deps.Sessions.List)
		sessions.POST("", deps.Sessions.Create)
		sessions.GET("/:id", deps.Sessions.Get)
		sessions.GET("/:id/full", deps.Sessions.Get)
		sessions.PUT("/:id", deps.Sessions.Update)
		sessions.DELETE("/:id", deps.Sessions.Delete)
		sessions.GET("/:id/summary", deps.Sessions.Summary)

		sessions.GET("/:id/results", deps.Results.List)
		sessions.POST("/:id/results", deps.Results.Create)
		sessions.POST("/:id/results/batch", deps.Results.CreateBatch)
		sessions.GET("/:id/asset-numbers/next", deps.Results.NextAssetNumber)
		sessions.POST("/:id/asset-numbers/validate", deps.Results.ValidateAssetNumber)
	}

	results := api.Group("/results", authn)
	{
		results.PUT("/:id", deps.Results.Update)
		results.DELETE("/:id", deps.Results.Delete)
	}

	environments := api.Group("/environments", authn, middleware.RequirePermission(models.PermEnvironmentsOwn))
	{
		environments.GET("", deps.Environments.List)
		environments.POST("", deps.Environments.Create)
		environments.GET("/:id", deps.Environments.Get)
		environments.PUT("/:id", deps.Environments.Update)
		environments.DELETE("/:id", deps.Environments.Delete)
	}

	formTypes := api.Group("/form-types", authn)
	{
		formTypes.GET("", middleware.RequirePermission(models.PermFormTypesRead), deps.FormTypes.List)
		formTypes.GET("/:id", middleware.RequirePermission(models.PermFormTypesRead), deps.FormTypes.Get)
		formTypes.POST("", middleware.RequirePermission(models.PermFormTypesManage), deps.FormTypes.Create)
		formTypes.PUT("/:id", middleware.RequirePermission(models.PermFormTypesManage), deps.FormTypes.Update)
		formTypes.DELETE("/:id", middleware.RequirePermission(models.PermFormTypesManage), deps.FormTypes.Delete)
		formTypes.POST("/:id/items", middleware.RequirePermission(models.PermFormTypesManage), deps.FormTypes.AddItem)
		formTypes.DELETE("/:id/items/:itemId", middleware.RequirePermission(models.PermFormTypesManage), deps.FormTypes.RemoveItem)
	}

	reports := api.Group("/reports", authn, middleware.RequireAnyPermission(models.PermReportsOwn, models.PermReportsAll))
	{
		reports.POST("/generate", deps.Reports.GenerateReport)
		reports.GET("/status/:id", deps.Reports.ReportStatus)
	}

	// Download tokens are HMAC-signed and expiring, so a bearer token is
	// optional here; when present it only enriches request logs.
	api.GET("/export/:token", middleware.OptionalJWT(deps.AuthService), deps.Reports.DownloadReport)

	return r
}
