package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/the-local-guys/testtag-api/internal/handler"
	"github.com/the-local-guys/testtag-api/internal/repository"
	"github.com/the-local-guys/testtag-api/internal/service"
	"github.com/the-local-guys/testtag-api/pkg/cache"
	"github.com/the-local-guys/testtag-api/pkg/config"
	"github.com/the-local-guys/testtag-api/pkg/database"
	"github.com/the-local-guys/testtag-api/pkg/export"
	"github.com/the-local-guys/testtag-api/pkg/jobs"
	"github.com/the-local-guys/testtag-api/pkg/logger"
	"github.com/the-local-guys/testtag-api/pkg/storage"

	_ "github.com/the-local-guys/testtag-api/api/swagger"
)

// @title Test & Tag Compliance API
// @version 1.0
// @description REST API for electrical test-and-tag inspection sessions, asset numbering and compliance reporting.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	validate := validator.New()
	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, log)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Cache.SessionTTL, log, true)
	}

	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	resultRepo := repository.NewResultRepository(db)
	environmentRepo := repository.NewEnvironmentRepository(db)
	formTypeRepo := repository.NewFormTypeRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authService := service.NewAuthService(userRepo, validate, log, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "testtag-api",
		Audience:           []string{"testtag-clients"},
		SingleSession:      true,
		AllowRegistration:  cfg.Auth.AllowRegistration,
	})
	userService := service.NewUserService(userRepo, validate, log)
	sessionService := service.NewSessionService(sessionRepo, resultRepo, userRepo, cacheService, validate, log)
	assetService := service.NewAssetService(resultRepo, log)
	resultService := service.NewResultService(resultRepo, assetService, sessionService, userRepo, validate, log)
	environmentService := service.NewEnvironmentService(environmentRepo, validate, log)
	formTypeService := service.NewFormTypeService(formTypeRepo, validate, log)

	reportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		log.Fatal("failed to init report storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportService := service.NewExportService(
		sessionService,
		reportStorage,
		signer,
		service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Reports.SignedURLTTL},
		log,
		export.NewCSVExporter(),
		export.NewPDFExporter(),
	)

	reportWorker := service.NewReportWorker(reportRepo, exportService, cfg.Reports.WorkerRetries, log)
	reportQueue := jobs.NewQueue("reports", reportWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		BufferSize: 64,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     log,
	})
	reportService := service.NewReportService(reportRepo, sessionService, reportQueue, exportService, log, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		MaxRetries:      cfg.Reports.WorkerRetries,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reportQueue.Start(ctx)
	reportService.RecoverPendingJobs(ctx)
	reportService.StartCleanup(ctx)

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Production:     cfg.Env == config.EnvProduction,
	}, log, handler.RouterDeps{
		Auth:           handler.NewAuthHandler(authService),
		Users:          handler.NewUserHandler(userService),
		Sessions:       handler.NewSessionHandler(sessionService),
		Results:        handler.NewResultHandler(resultService, assetService, sessionService),
		Environments:   handler.NewEnvironmentHandler(environmentService),
		FormTypes:      handler.NewFormTypeHandler(formTypeService),
		Reports:        handler.NewReportHandler(reportService, log),
		Metrics:        handler.NewMetricsHandler(metricsService),
		AuthService:    authService,
		MetricsService: metricsService,
		AuditRepo:      userRepo,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	reportQueue.Stop()
}
