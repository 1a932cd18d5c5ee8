package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatbot-retrieval-core/internal/auth"
	"chatbot-retrieval-core/internal/clock"
	"chatbot-retrieval-core/internal/config"
	"chatbot-retrieval-core/internal/ingest"
	"chatbot-retrieval-core/internal/logger"
	"chatbot-retrieval-core/internal/store"
	"chatbot-retrieval-core/internal/telemetry"
	"chatbot-retrieval-core/middleware"
	"chatbot-retrieval-core/routes"
	"chatbot-retrieval-core/services"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
	}

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracer("chatbot-retrieval-core", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn("tracing disabled", "error", err)
		} else {
			defer shutdownTracer()
		}
	}

	// A dead primary at boot is not fatal. The deferred client heals once
	// MongoDB comes back; until then writes and reads ride the fallback
	// registry, and session validation fails closed.
	fallbackMode := false
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		logger.Warn("primary store unreachable, booting in fallback mode", "error", err)
		fallbackMode = true
		mongoClient, err = config.ConnectMongoDBDeferred(cfg)
		if err != nil {
			log.Fatal("Failed to configure MongoDB client:", err)
		}
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()
	db := mongoClient.Database(cfg.DBName)

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("redis unavailable, rate limiting and background ingestion disabled", "error", err)
		rdb = nil
	}

	clk := clock.System{}
	registry := store.NewFallbackRegistry(cfg.FallbackCapacity, clk)
	failover := store.NewFailover("mongodb", cfg.PrimaryTimeout, metrics)

	documents := store.NewDocumentStore(store.NewMongoDocumentSource(db), registry, failover)
	preferences := store.NewPreferenceStore(store.NewMongoPreferenceSource(db), registry, failover)
	tenants := store.NewTenantStore(store.NewMongoTenantSource(db), registry, failover)
	chunks := store.NewChunkStore(documents)

	guard := auth.NewSessionGuard(store.NewMongoSessionStore(db), clk, cfg.SessionTTL, metrics)
	chunker := ingest.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap, cfg.MinChunkSize)

	retrieval := services.NewRetrievalService(chunks, cfg.MaxDocuments, metrics)
	export := services.NewExportService(documents)

	var queueClient *asynq.Client
	if rdb != nil {
		queueClient = asynq.NewClient(asynqRedisOpt(cfg))
		defer queueClient.Close()
	}

	scheduler := services.NewScheduler()
	if err := scheduler.ScheduleSessionPurge(guard, cfg.SweepInterval); err != nil {
		logger.Warn("session purge not scheduled", "error", err)
	}
	if err := scheduler.ScheduleFallbackSweep(registry, cfg.FallbackTTL, cfg.SweepInterval); err != nil {
		logger.Warn("fallback sweep not scheduled", "error", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	if cfg.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	router.GET("/health", func(c *gin.Context) {
		mode := "primary"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := mongoClient.Ping(ctx, nil); err != nil {
			mode = "fallback"
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"mode":      mode,
			"timestamp": time.Now(),
		})
	})

	authMw := middleware.NewAuthMiddleware(guard, []byte(cfg.WidgetSecret))

	routes.SetupAuthRoutes(router, cfg, guard, store.NewMongoUserStore(db))
	routes.SetupWidgetRoutes(router, cfg, authMw, clk)
	routes.SetupRetrievalRoutes(router, cfg, retrieval, authMw)
	routes.SetupDocumentRoutes(router, cfg, documents, export, chunker, queueClient, authMw)
	routes.SetupPreferenceRoutes(router, preferences, authMw)
	routes.SetupTenantRoutes(router, tenants, authMw)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "fallback_mode", fallbackMode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}

func asynqRedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	if opt, err := asynq.ParseRedisURI(cfg.RedisURL); err == nil {
		if clientOpt, ok := opt.(asynq.RedisClientOpt); ok {
			return clientOpt
		}
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}
