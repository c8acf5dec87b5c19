package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/afero"
	"github.com/stwalsh4118/estate/api/internal/auth"
	"github.com/stwalsh4118/estate/api/internal/config"
	"github.com/stwalsh4118/estate/api/internal/database"
	"github.com/stwalsh4118/estate/api/internal/drafts"
	"github.com/stwalsh4118/estate/api/internal/handlers"
	"github.com/stwalsh4118/estate/api/internal/logger"
	"github.com/stwalsh4118/estate/api/internal/media"
	"github.com/stwalsh4118/estate/api/internal/middleware"
	"github.com/stwalsh4118/estate/api/internal/repository"
	"github.com/stwalsh4118/estate/api/internal/services"
	"github.com/stwalsh4118/estate/api/internal/storage"
)

const (
	shutdownTimeout = 30 * time.Second
	// pruneSchedule is how often finished media job records are expired.
	pruneSchedule = "@every 10m"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting Estate API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Draft slots live in redis; fall back to memory when it is unreachable
	// so the catalog keeps serving.
	var draftStore drafts.Store
	var cachePinger handlers.Pinger
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, keeping drafts in memory", map[string]interface{}{
			"addr":  cfg.Redis.Addr,
			"error": err.Error(),
		})
		_ = rdb.Close()
		draftStore = drafts.NewMemoryStore()
	} else {
		defer rdb.Close()
		draftStore = drafts.NewRedisStore(rdb, cfg.Redis.DraftTTL)
		cachePinger = handlers.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	// Initialize repository layer
	propertyRepo := repository.NewPropertyRepository(db.Pool)
	mediaRepo := repository.NewMediaRepository(db.Pool)
	associationRepo := repository.NewAssociationRepository(db.Pool)
	nestedRepo := repository.NewNestedRepository(db.Pool)
	catalogRepo := repository.NewCatalogRepository(db.Pool)
	roleRepo := repository.NewRoleRepository(db.Pool)

	// Media pipeline: reconciler behind a bounded background queue
	files := storage.NewFileStore(cfg.Storage.Root, cfg.Storage.PublicURL)
	reconciler := media.NewReconciler(mediaRepo, files, log, cfg.Media.MaxAttempts, cfg.Media.RetryBackoff)
	queue := media.NewQueue(reconciler, media.NewTracker(), log, cfg.Media.Workers, cfg.Media.QueueSize)
	queue.Start(context.Background())

	scheduler := cron.New(cron.WithLocation(time.UTC))
	if _, err := scheduler.AddFunc(pruneSchedule, func() {
		if n := queue.Prune(cfg.Media.StatusRetention); n > 0 {
			log.Info("Pruned media job records", map[string]interface{}{
				"count":     n,
				"retention": cfg.Media.StatusRetention.String(),
			})
		}
	}); err != nil {
		log.Fatal("Failed to schedule media job pruning", err, nil)
	}
	scheduler.Start()

	// Initialize service layer
	propertyService := services.NewPropertyService(services.PropertyDeps{
		Properties: propertyRepo,
		Assets:     mediaRepo,
		Relations:  services.NewAssociationReconciler(associationRepo, log),
		Nested:     services.NewNestedWriter(nestedRepo, log),
		Files:      reconciler,
		Scheduler:  queue,
		Drafts:     draftStore,
	}, log)
	catalogService := services.NewCatalogService(catalogRepo, log)
	draftService := services.NewDraftService(draftStore, log)

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = cfg.Media.MaxUploadBytes()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS -> Auth
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))
	router.Use(middleware.Auth(auth.NewTokenVerifier(cfg.Auth.JWTSecret), roleRepo))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cachePinger, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Stored media is served from the same storage root
	router.StaticFS("/files", afero.NewHttpFs(files.Fs()))

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	handlers.NewPropertyHandler(propertyService, catalogService, cfg.Media.MaxUploadBytes()).Register(v1)
	handlers.NewDraftHandler(draftService).Register(v1)

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	// Requests are drained; let queued media jobs finish within the budget.
	<-scheduler.Stop().Done()
	if err := queue.Shutdown(shutdownCtx); err != nil {
		log.Error("Media queue did not drain", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
