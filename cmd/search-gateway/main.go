package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/timetable-search-api/api/swagger"
	"github.com/noah-isme/timetable-search-api/internal/handler"
	"github.com/noah-isme/timetable-search-api/internal/middleware"
	"github.com/noah-isme/timetable-search-api/internal/models"
	"github.com/noah-isme/timetable-search-api/internal/repository"
	"github.com/noah-isme/timetable-search-api/internal/search"
	"github.com/noah-isme/timetable-search-api/internal/service"
	"github.com/noah-isme/timetable-search-api/pkg/cache"
	"github.com/noah-isme/timetable-search-api/pkg/config"
	"github.com/noah-isme/timetable-search-api/pkg/database"
	"github.com/noah-isme/timetable-search-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/timetable-search-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/timetable-search-api/pkg/middleware/requestid"
	"github.com/noah-isme/timetable-search-api/pkg/storage"
)

// @title Timetable Search API
// @version 1.0.0
// @description Search gateway over the published school timetable
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSvc := service.NewMetricsService()

	timetable, err := loadTimetable(ctx, cfg, metricsSvc, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to load timetable", "source", cfg.Timetable.Source, "error", err)
	}
	timetableSvc := service.NewTimetableService(timetable, nil)

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, history will not survive restarts", "error", err)
		redisClient = nil
	}

	engineOpts := search.Options{
		DebounceDelay:  cfg.Search.DebounceDelay,
		MinQueryLength: cfg.Search.MinQueryLength,
		HistoryLimit:   cfg.Search.HistoryLimit,
		Logger:         logr,
	}
	if redisClient != nil {
		engineOpts.Store = repository.NewHistoryRepository(redisClient, cfg.Search.HistoryKey, logr)
	}
	engine := search.New(timetable, timetableSvc.Details(), engineOpts)
	defer engine.Close()

	validate := validator.New()

	var searchSvc *service.SearchService
	if redisClient != nil && cfg.Search.CacheEnabled {
		resultCache := repository.NewResultCacheRepository(redisClient, logr)
		searchSvc = service.NewSearchService(engine, resultCache, cfg.Search.CacheTTL, validate, logr, metricsSvc)
	} else {
		searchSvc = service.NewSearchService(engine, nil, 0, validate, logr, metricsSvc)
	}

	var exportSvc *service.ExportService
	if cfg.Export.Enabled {
		store, err := storage.NewLocalStorage(cfg.Export.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "dir", cfg.Export.StorageDir, "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Export.SignedURLSecret, cfg.Export.SignedURLTTL)
		exportSvc = service.NewExportService(searchSvc, store, signer, logr, service.ExportOptions{
			WorkerConcurrency: cfg.Export.WorkerConcurrency,
			WorkerRetries:     cfg.Export.WorkerRetries,
		})
		exportSvc.Start(ctx)
		defer exportSvc.Stop()
	}

	var authSvc *service.AuthService
	if cfg.Auth.Enabled {
		authSvc = service.NewAuthService(service.AuthConfig{
			Secret: cfg.Auth.Secret,
			Expiry: cfg.Auth.Expiration,
		}, logr)
	}

	router := buildRouter(cfg, logr, searchSvc, timetableSvc, exportSvc, authSvc, metricsSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "source", cfg.Timetable.Source)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}

func loadTimetable(ctx context.Context, cfg *config.Config, metricsSvc *service.MetricsService, logr *zap.Logger) (models.Timetable, error) {
	started := time.Now()
	defer func() {
		metricsSvc.ObserveSourceLoad(time.Since(started))
	}()

	switch cfg.Timetable.Source {
	case config.TimetableSourceFile:
		return repository.LoadTimetableFile(cfg.Timetable.FilePath)
	case config.TimetableSourcePostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return repository.NewTimetableRepository(db).Load(ctx, cfg.Timetable.TermID)
	default:
		return nil, fmt.Errorf("unknown timetable source %q", cfg.Timetable.Source)
	}
}

func buildRouter(cfg *config.Config, logr *zap.Logger, searchSvc *service.SearchService, timetableSvc *service.TimetableService, exportSvc *service.ExportService, authSvc *service.AuthService, metricsSvc *service.MetricsService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	searchHandler := handler.NewSearchHandler(searchSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", timetableHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.GET("/search", searchHandler.Search)

	history := api.Group("/search/history")
	exports := api.Group("/search/export")
	if authSvc != nil {
		authHandler := handler.NewAuthHandler(authSvc)
		api.POST("/auth/token", authHandler.Token)
		guard := middleware.JWT(authSvc)
		history.Use(guard)
		exports.Use(guard)
	}

	history.GET("", searchHandler.History)
	history.DELETE("", searchHandler.ClearHistory)
	history.DELETE("/:index", searchHandler.RemoveHistory)
	history.POST("/:index/apply", searchHandler.ApplyHistory)

	exports.GET("/csv", exportHandler.ExportCSV)
	exports.POST("/pdf", exportHandler.EnqueuePDF)
	exports.GET("/jobs/:id", exportHandler.Job)
	// The signed token is the authorization; no bearer token needed.
	api.GET("/search/export/download/:token", exportHandler.Download)

	timetable := api.Group("/timetable")
	timetable.GET("/days", timetableHandler.Days)
	timetable.GET("/classes", timetableHandler.Classes)
	timetable.GET("/classes/:name", timetableHandler.ClassSchedule)
	timetable.GET("/teachers", timetableHandler.Teachers)
	timetable.GET("/teachers/:name", timetableHandler.Teacher)

	return r
}
