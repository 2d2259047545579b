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
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/printkb/backend/internal/api/handlers"
	rediscache "github.com/printkb/backend/internal/cache/redis"
	"github.com/printkb/backend/internal/curation"
	"github.com/printkb/backend/internal/ingestion"
	"github.com/printkb/backend/internal/llm"
	"github.com/printkb/backend/internal/metrics"
	"github.com/printkb/backend/internal/middleware/ratelimit"
	"github.com/printkb/backend/internal/middleware/requestid"
	"github.com/printkb/backend/internal/middleware/security"
	"github.com/printkb/backend/internal/rerank"
	"github.com/printkb/backend/internal/search"
	"github.com/printkb/backend/internal/storage/sqlite"
	"github.com/printkb/backend/internal/vector/milvus"
	"github.com/printkb/backend/pkg/config"
	appLogger "github.com/printkb/backend/pkg/logger"
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

	appLogger.Info("Starting knowledge base API server")
	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	if err := sqliteClient.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	milvusClient, err := milvus.NewClient(
		cfg.Milvus.Endpoint,
		cfg.Milvus.APIKey,
		cfg.Milvus.CollectionName,
		cfg.Milvus.VectorDim,
	)
	if err != nil {
		appLogger.Fatal("Failed to create Milvus client", zap.Error(err))
	}
	defer milvusClient.Close()

	if err := milvusClient.EnsureCollection(context.Background()); err != nil {
		appLogger.Fatal("Failed to ensure collection", zap.Error(err))
	}

	llmClient := llm.NewClient(llm.ClientConfig{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Temperature:    cfg.LLM.Temperature,
		MaxTokens:      cfg.LLM.MaxTokens,
		TimeoutSec:     cfg.LLM.TimeoutSec,
	})

	// Redis is optional: the system runs without caching, just slower.
	var cacheClient *rediscache.Client
	cacheClient, err = rediscache.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		time.Duration(cfg.Redis.EmbeddingTTLSec)*time.Second,
		time.Duration(cfg.Redis.SearchTTLSec)*time.Second,
	)
	if err != nil {
		appLogger.Warn("Redis unavailable, running without caches", zap.Error(err))
		cacheClient = nil
	} else {
		defer cacheClient.Close()
	}

	var embedder search.Embedder = llmClient
	if cacheClient != nil {
		embedder = rediscache.NewCachedEmbedder(llmClient, cacheClient)
	}

	rerankClient := rerank.NewClient(cfg.Reranker.Enabled, cfg.Reranker.Endpoint, cfg.Reranker.TimeoutSec)

	retriever := search.NewRetriever(embedder, milvusClient)
	reranker := search.NewReranker(rerankClient)
	searchEngine := search.NewEngine(retriever, reranker, search.Defaults{
		K:           cfg.Search.DefaultK,
		RerankTopK:  cfg.Search.RerankTopK,
		MinScore:    cfg.Search.MinScore,
		FilterBoost: cfg.Search.FilterBoost,
	})

	curator := curation.NewCurator(llmClient, searchEngine, cfg.Curation.DuplicateSearchK, curation.Thresholds{
		Relevance: cfg.Curation.RelevanceThreshold,
		Quality:   cfg.Curation.QualityThreshold,
		Approve:   cfg.Curation.ApproveThreshold,
	})

	var searchCache ingestion.SearchCache
	if cacheClient != nil {
		searchCache = cacheClient
	}
	processor := ingestion.NewProcessor(curator, embedder, milvusClient, sqliteClient, searchCache)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 60,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	curateHandler := handlers.NewCurateHandler(processor)
	searchHandler := handlers.NewSearchHandler(searchEngine, cacheClient, cfg.Search.UseReranking, cfg.Search.BoostFilters)
	articleHandler := handlers.NewArticleHandler(sqliteClient)
	wsHandler := handlers.NewWebSocketHandler(processor)

	api := app.Group("/api/v1", limiter.Middleware())

	api.Post("/curate", curateHandler.HandleCurate)
	api.Post("/search", searchHandler.HandleSearch)
	api.Get("/articles/:id", articleHandler.GetArticle)
	api.Get("/curation/history", articleHandler.GetCurationHistory)

	app.Get("/ws/curate", websocket.New(wsHandler.HandleConnection))
	app.Get("/metrics", metrics.Handler())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/ready", func(c *fiber.Ctx) error {
		checks := fiber.Map{
			"sqlite":   "ok",
			"milvus":   "ok",
			"redis":    "disabled",
			"reranker": rerankClient.Available(),
		}
		ready := true

		if err := sqliteClient.Ping(); err != nil {
			checks["sqlite"] = err.Error()
			ready = false
		}
		if err := milvusClient.Ping(c.Context()); err != nil {
			checks["milvus"] = err.Error()
			ready = false
		}
		if cacheClient != nil {
			checks["redis"] = "ok"
			if err := cacheClient.Ping(c.Context()); err != nil {
				checks["redis"] = err.Error()
			}
		}

		status := fiber.StatusOK
		if !ready {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{"checks": checks})
	})

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
