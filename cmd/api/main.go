package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/svtr-ai/ragcore/internal/api/handlers"
	"github.com/svtr-ai/ragcore/internal/cache"
	"github.com/svtr-ai/ragcore/internal/cache/redis"
	"github.com/svtr-ai/ragcore/internal/embedding"
	"github.com/svtr-ai/ragcore/internal/expansion"
	"github.com/svtr-ai/ragcore/internal/indexer"
	"github.com/svtr-ai/ragcore/internal/metrics"
	"github.com/svtr-ai/ragcore/internal/middleware/ratelimit"
	"github.com/svtr-ai/ragcore/internal/middleware/security"
	"github.com/svtr-ai/ragcore/internal/middleware/validation"
	"github.com/svtr-ai/ragcore/internal/query"
	"github.com/svtr-ai/ragcore/internal/retrieval"
	"github.com/svtr-ai/ragcore/internal/search/web"
	"github.com/svtr-ai/ragcore/internal/storage/sqlite"
	"github.com/svtr-ai/ragcore/internal/vector/milvus"
	"github.com/svtr-ai/ragcore/pkg/config"
	appLogger "github.com/svtr-ai/ragcore/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	if err := cfg.Validate(); err != nil {
		appLogger.Fatal("Invalid configuration", zap.Error(err))
	}

	appLogger.Info("Starting SVTR RAG core API server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to open query history store", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize history schema", zap.Error(err))
	}

	milvusClient, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.APIKey,
		cfg.Milvus.CollectionName,
		cfg.Milvus.VectorDim,
	)
	if err != nil {
		appLogger.Fatal("Failed to connect to Milvus", zap.Error(err))
	}
	defer milvusClient.Close()

	if err := milvusClient.EnsureCollection(context.Background()); err != nil {
		appLogger.Fatal("Failed to ensure knowledge collection", zap.Error(err))
	}

	// Redis is an optional warm tier. Without it embeddings are
	// recomputed per process and cached bundles do not survive restarts.
	var embedStore embedding.Store
	var persistent query.BundleStore
	var bundleInvalidator indexer.CacheInvalidator
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without warm cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			embedStore = redisClient
			persistent = redisClient
			bundleInvalidator = redisClient
		}
	}

	embedder, err := embedding.NewClient(embedding.Config{
		APIKey:     cfg.Embedding.APIKey,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Store:      embedStore,
	})
	if err != nil {
		appLogger.Fatal("Failed to create embedding client", zap.Error(err))
	}

	memoryCache := cache.New(cache.Config{
		Capacity:            cfg.Cache.Capacity,
		StandardTTL:         cfg.Cache.StandardTTL,
		HotTTL:              cfg.Cache.HotTTL,
		HotThreshold:        cfg.Cache.HotThreshold,
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
		EnableKeyword:       true,
	})

	retriever := retrieval.New(embedder, milvusClient, retrieval.Config{})

	var searcher query.Searcher
	if cfg.Search.Enabled {
		searcher = web.NewClient(web.Config{
			MaxResults:      cfg.Search.MaxResults,
			ProviderTimeout: time.Duration(cfg.Search.ProviderTimeout) * time.Second,
			GoogleAPIKey:    cfg.Search.GoogleAPIKey,
			GoogleEngineID:  cfg.Search.GoogleEngineID,
			EnrichContent:   cfg.Search.ScrapeContent,
		})
	}

	engine, err := query.NewEngine(query.Config{
		Expander:   expansion.New(),
		Cache:      memoryCache,
		Retriever:  retriever,
		Searcher:   searcher,
		History:    sqliteClient,
		Persistent: persistent,
	})
	if err != nil {
		appLogger.Fatal("Failed to create query engine", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-User-ID",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{})
	defer limiter.Stop()

	queryHandler := handlers.NewQueryHandler(engine, sqliteClient)
	knowledgeHandler := handlers.NewKnowledgeHandler(indexer.New(embedder, milvusClient, bundleInvalidator))

	api := app.Group("/api/v1")

	api.Post("/query",
		limiter.Middleware(),
		validation.Middleware(validation.Config{}),
		queryHandler.HandleQuery,
	)
	api.Post("/knowledge", limiter.Middleware(), knowledgeHandler.UploadKnowledge)
	api.Get("/query/history", queryHandler.GetQueryHistory)
	api.Get("/query/:id/sources", queryHandler.GetQuerySources)
	api.Get("/query/suggestions", queryHandler.GetSuggestions)
	api.Get("/cache/stats", queryHandler.GetCacheStats)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
