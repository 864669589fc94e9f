package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/venturedeck/ai-engine/src/budget"
	"github.com/venturedeck/ai-engine/src/cache"
	"github.com/venturedeck/ai-engine/src/config"
	"github.com/venturedeck/ai-engine/src/handlers"
	"github.com/venturedeck/ai-engine/src/models"
	"github.com/venturedeck/ai-engine/src/monitor"
	"github.com/venturedeck/ai-engine/src/providers"
	"github.com/venturedeck/ai-engine/src/router"
	"github.com/venturedeck/ai-engine/src/selector"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("✓ Config loaded")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	cancel()
	defer redisClient.Close()
	log.Printf("✓ Redis connected at %s", cfg.Redis.Address)

	responseCache := cache.NewResponseCacheWithClient(redisClient, &cfg.Cache)
	counterStore := cache.NewRedisCounterStore(redisClient)

	if cfg.Postgres.URL == "" {
		log.Fatal("DATABASE_URL not set in environment or config")
	}
	sink, err := monitor.NewPostgresSink(cfg.Postgres.URL)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer sink.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := sink.Migrate(migrateCtx); err != nil {
		cancelMigrate()
		log.Fatalf("Failed to migrate metrics schema: %v", err)
	}
	cancelMigrate()
	log.Printf("✓ Postgres metrics sink ready")

	adapters := buildProviderAdapters(cfg)
	if len(adapters) == 0 {
		log.Fatal("no provider adapters configured, check API keys")
	}

	costOptimizer := budget.NewCostOptimizer(counterStore, &cfg.Budget)
	perfMonitor := monitor.NewPerformanceMonitor(sink, counterStore)
	modelSelector := selector.NewModelSelector()

	modelRouter := router.NewModelRouter(costOptimizer, responseCache, modelSelector, perfMonitor, adapters)
	log.Printf("✓ Model router initialized with %d providers", len(adapters))

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	r.Use(gin.Recovery())

	handler := handlers.NewGenerateHandler(modelRouter, perfMonitor, responseCache)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", handler.HealthCheck)
		v1.POST("/generate", handler.HandleGenerate)
		v1.GET("/stats/providers", handler.ProviderStats)
		v1.GET("/stats/cache", handler.CacheStats)
		v1.POST("/admin/cache/invalidate", handler.InvalidateCache)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Printf("🚀 AI engine running on port %s", cfg.Server.Port)
	log.Printf("📊 Daily budget: $%.2f, monthly: $%.2f", cfg.Budget.DailyLimitUSD, cfg.Budget.MonthlyLimitUSD)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// buildProviderAdapters wires an adapter for every provider with a
// configured API key. A missing key drops that provider from the
// fallback pool rather than failing startup.
func buildProviderAdapters(cfg *config.Config) map[models.Provider]models.ProviderAdapter {
	adapters := make(map[models.Provider]models.ProviderAdapter)

	if cfg.Providers.OpenAI.APIKey != "" {
		adapter, err := providers.NewOpenAIAdapter(&cfg.Providers.OpenAI)
		if err != nil {
			log.Printf("⚠️  OpenAI adapter unavailable: %v", err)
		} else {
			adapters[models.ProviderOpenAI] = adapter
			log.Printf("✓ OpenAI adapter ready")
		}
	}

	if cfg.Providers.Claude.APIKey != "" {
		adapter, err := providers.NewClaudeAdapter(&cfg.Providers.Claude)
		if err != nil {
			log.Printf("⚠️  Claude adapter unavailable: %v", err)
		} else {
			adapters[models.ProviderClaude] = adapter
			log.Printf("✓ Claude adapter ready")
		}
	}

	if cfg.Providers.Gemini.APIKey != "" {
		adapter, err := providers.NewGeminiAdapter(&cfg.Providers.Gemini)
		if err != nil {
			log.Printf("⚠️  Gemini adapter unavailable: %v", err)
		} else {
			adapters[models.ProviderGemini] = adapter
			log.Printf("✓ Gemini adapter ready")
		}
	}

	return adapters
}
