package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoCowSwap/cowgate/internal/config"
	"github.com/GoCowSwap/cowgate/internal/cow"
	"github.com/GoCowSwap/cowgate/internal/handler"
	"github.com/GoCowSwap/cowgate/internal/middleware"
	"github.com/GoCowSwap/cowgate/internal/pkg/logger"
	"github.com/GoCowSwap/cowgate/internal/repository"
	"github.com/GoCowSwap/cowgate/internal/service"
	"github.com/GoCowSwap/cowgate/internal/signer"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)

	// 2. Initialize Signer
	orderSigner, err := signer.New(cfg.Signing.PrivateKey, cfg.Signing.VOffset)
	if err != nil {
		log.Fatalf("Failed to initialize signer: %v", err)
	}
	logger.Info("Signer ready", "address", orderSigner.Address().Hex(), "chain_id", cfg.Cow.ChainID)

	// 3. Initialize Persistence
	// Idempotency (Redis > Memory)
	var idempotencyStore middleware.IdempotencyStore
	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("✅ Connected to Redis")
			ttl := time.Duration(cfg.Redis.IdempotencyTTLSeconds) * time.Second
			idempotencyStore = repository.NewRedisIdempotencyStore(redisClient, ttl)
		} else {
			logger.Error("⚠️ Failed to connect to Redis, falling back to memory", "error", err)
		}
	}
	if idempotencyStore == nil {
		idempotencyStore = middleware.NewInMemIdempotencyStore()
	}

	// Order Journal (Postgres, optional)
	var journal service.OrderJournal
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err == nil {
			journal, err = repository.NewPostgresOrderJournal(db)
			if err != nil {
				log.Fatalf("Failed to migrate order journal: %v", err)
			}
			logger.Info("✅ Connected to PostgreSQL")
		} else {
			logger.Error("⚠️ Failed to connect to DB, orders will not be journaled", "error", err)
		}
	}

	// 4. Initialize Core Services
	book := cow.NewClient(cfg.Cow.APIBaseURL)
	flow := service.NewOrderFlow(cfg, book, orderSigner, journal)

	orderHandler := handler.NewOrderHandler(flow)

	// 5. Setup Router
	r := gin.Default()

	// Global Middleware
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())

	// Health Check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "cowgate"})
	})

	// Metrics Endpoint
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API V1 Routes
	v1 := r.Group("/v1")
	v1.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	v1.Use(middleware.IdempotencyMiddleware(idempotencyStore))
	{
		v1.POST("/orders", orderHandler.PlaceOrder)
		v1.POST("/orders/preview", orderHandler.PreviewOrder)
		v1.GET("/orders", orderHandler.ListOrders)
		v1.POST("/quote", orderHandler.GetQuote)
	}

	// 6. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 CowGate started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
