package main

import (
	"context"
	"log"
	"time"

	"chatbot-retrieval-core/internal/config"
	"chatbot-retrieval-core/internal/ingest"
	"chatbot-retrieval-core/internal/logger"
	"chatbot-retrieval-core/internal/queue"
	"chatbot-retrieval-core/internal/store"
	"chatbot-retrieval-core/internal/telemetry"

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

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		logger.Warn("primary store unreachable, worker writes will land in fallback", "error", err)
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

	registry := store.NewFallbackRegistry(cfg.FallbackCapacity, nil)
	failover := store.NewFailover("mongodb-worker", cfg.PrimaryTimeout, metrics)
	documents := store.NewDocumentStore(store.NewMongoDocumentSource(db), registry, failover)
	chunker := ingest.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap, cfg.MinChunkSize)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	if opt, err := asynq.ParseRedisURI(cfg.RedisURL); err == nil {
		if clientOpt, ok := opt.(asynq.RedisClientOpt); ok {
			redisOpt = clientOpt
		}
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"ingest":  7,
				"default": 3,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(documents, chunker)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestDocument, processor.HandleIngest)

	logger.Info("starting ingestion worker", "redis", redisOpt.Addr, "concurrency", 10)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
