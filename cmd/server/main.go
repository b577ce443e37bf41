package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rentsearch/internal/config"
	"rentsearch/internal/consumer"
	"rentsearch/internal/handler"
	"rentsearch/internal/nlp"
	"rentsearch/internal/repository"
	"rentsearch/internal/scheduler"
	"rentsearch/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Print version info
	log.Printf("Nepal Rental Search")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open listing store: %v", err)
	}

	var cached *repository.CachedStore
	if cfg.Cache.Enabled {
		cached = repository.NewCachedStore(store, repository.CacheOptions{
			MaxSize:          cfg.Cache.MaxSize,
			TTL:              cfg.Cache.TTL,
			MemcachedServers: cfg.Cache.MemcachedServers,
			MemcachedTTL:     cfg.Cache.MemcachedTTL,
		})
		store = cached
		log.Printf("✅ Search cache enabled (local %d entries, ttl %s)", cfg.Cache.MaxSize, cfg.Cache.TTL)
		if len(cfg.Cache.MemcachedServers) > 0 {
			log.Printf("   - Memcached: %s", strings.Join(cfg.Cache.MemcachedServers, ", "))
		}
	}
	defer store.Close()

	// Chat extractors: the rule extractor is always available
	rules, err := nlp.NewDefaultRuleExtractor(cfg.Chat.LexiconFile)
	if err != nil {
		log.Fatalf("Failed to load chat lexicon: %v", err)
	}

	var primary service.FilterExtractor
	if cfg.OpenAI.Enabled {
		client := service.NewOpenAIClient(&cfg.OpenAI)
		primary = service.NewLLMExtractor(client, rules, cfg.Chat.HistoryLimit, time.Duration(cfg.OpenAI.Timeout)*time.Second)
		log.Printf("✅ OpenAI client initialized")
		log.Printf("   - Chat Temperature: %.2f", cfg.OpenAI.ChatTemperature)
		log.Printf("   - Chat MaxTokens: %d", cfg.OpenAI.ChatMaxTokens)
		log.Printf("   - Timeout: %ds", cfg.OpenAI.Timeout)
	} else {
		log.Println("⚠️  OpenAI is disabled - the chat assistant will use rule-based extraction only")
		log.Println("   Set OPENAI_API_KEY environment variable to enable AI features")
	}

	// Initialize services
	ranker := service.NewRanker(
		cfg.Ranking.WeightRating,
		cfg.Ranking.WeightPopularity,
		cfg.Ranking.WeightRecency,
	)
	searchService := service.NewSearchService(store, cfg.Search, cfg.OpenAI.EmbeddingDimensions)
	chatService := service.NewChatService(primary, rules, searchService, ranker, cfg.Chat)

	log.Println("✅ Services initialized")

	// Background jobs
	jobs := scheduler.NewScheduler(searchService, cfg.Scheduler.SearchLogRetentionDays, cfg.Scheduler.SearchLogPurgeSpec)
	if err := jobs.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	var events *consumer.ListingEventConsumer
	switch {
	case cfg.Queue.URL == "":
		log.Println("⚠️  RABBITMQ_URL not set - listing events will not invalidate the cache")
	case cached == nil:
		log.Println("⚠️  Cache disabled - listing events are not consumed")
	default:
		events, err = consumer.NewListingEventConsumer(cfg.Queue.URL, cfg.Queue.Queue, cached)
		if err == nil {
			err = events.Start()
		}
		if err != nil {
			log.Printf("⚠️  Listing event consumer unavailable: %v", err)
			if events != nil {
				_ = events.Close()
			}
			events = nil
		}
	}

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitCSV(cfg.Server.AllowedOrigins)
	corsConfig.AllowMethods = splitCSV(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitCSV(cfg.Server.AllowedHeaders)
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "rental-search",
			"store":      cfg.Store.Driver,
			"llm":        cfg.OpenAI.Enabled,
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	handler.RegisterRoutes(router, handler.Handlers{
		Search:    handler.NewSearchHandler(searchService, cfg.Search),
		Chat:      handler.NewChatHandler(chatService),
		Embedding: handler.NewEmbeddingHandler(searchService),
		Feedback:  handler.NewFeedbackHandler(searchService),
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}
	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 API: http://localhost:%d/api/v1", cfg.Server.Port)

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server shutdown: %v", err)
	}

	jobs.Stop()
	if events != nil {
		if err := events.Close(); err != nil {
			log.Printf("⚠️  %v", err)
		}
	}
	searchService.Wait()

	log.Println("✅ Server stopped")
}

// openStore connects the configured listing store backend
func openStore(cfg *config.Config) (repository.ListingStore, error) {
	switch cfg.Store.Driver {
	case "memory":
		repo, err := repository.LoadMemoryRepository(cfg.Store.SeedFile)
		if err != nil {
			return nil, err
		}
		log.Printf("✅ Using in-memory listing store (seed: %q)", cfg.Store.SeedFile)
		return repo, nil
	default:
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			return nil, err
		}
		log.Println("✅ Connected to PostgreSQL database")
		return repo, nil
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
