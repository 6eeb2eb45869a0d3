package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/auth"
	"github.com/fjod/go_cart/purchase-service/internal/cache"
	"github.com/fjod/go_cart/purchase-service/internal/config"
	h "github.com/fjod/go_cart/purchase-service/internal/http"
	"github.com/fjod/go_cart/purchase-service/internal/ledger"
	"github.com/fjod/go_cart/purchase-service/internal/logger"
	"github.com/fjod/go_cart/purchase-service/internal/publisher"
	"github.com/fjod/go_cart/purchase-service/internal/purchase"
	"github.com/fjod/go_cart/purchase-service/internal/repository"
	"github.com/fjod/go_cart/purchase-service/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer lg.Sync()
	zap.ReplaceGlobals(lg)

	ctx := context.Background()

	// MongoDB
	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		lg.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoDB.Client().Disconnect(context.Background())
	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		lg.Fatal("failed to create indexes", zap.Error(err))
	}
	lg.Info("connected to MongoDB", zap.String("db", cfg.MongoDBName))

	cartRepo := repository.NewCartRepository(mongoDB)
	productRepo := repository.NewProductRepository(mongoDB)
	ticketRepo := repository.NewTicketRepository(mongoDB)
	userRepo := repository.NewUserRepository(mongoDB)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		lg.Fatal("redis connection failed", zap.Error(err))
	}
	cartCache := cache.NewRedisCache(redisClient)
	catalogCache := cache.NewRedisCatalogCache(redisClient, cfg.CatalogCacheTTL)

	// Purchase history lives in the ledger database
	creds := &ledger.Credentials{
		Host:              cfg.DB.Host,
		Port:              cfg.DB.Port,
		User:              cfg.DB.User,
		Password:          cfg.DB.Password,
		DBName:            cfg.DB.Name,
		MigrationsDirPath: cfg.DB.MigrationsPath,
	}
	ledgerRepo, err := ledger.NewRepository(creds)
	if err != nil {
		lg.Fatal("failed to connect to ledger database", zap.Error(err))
	}
	defer ledgerRepo.Close()
	if err := ledgerRepo.RunMigrations(creds); err != nil {
		lg.Fatal("failed to run migrations", zap.Error(err))
	}

	// Services
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	cartService := service.NewCartService(cartRepo, productRepo, cartCache, lg)
	catalogService := service.NewCatalogService(productRepo, catalogCache, lg)
	accountService := service.NewAccountService(userRepo, cartService, tokens, service.NewLogMailer(cfg.PublicBaseURL, lg), lg)
	purchaseService := purchase.NewService(cartRepo, productRepo, ticketRepo, lg, purchase.WithCartCache(cartCache))

	router := h.NewRouter(h.Handlers{
		Products:  h.NewProductHandler(catalogService),
		Carts:     h.NewCartHandler(cartService),
		Purchases: h.NewPurchaseHandler(purchaseService, ticketRepo),
		Sessions:  h.NewSessionHandler(accountService, ledgerRepo),
		Users:     h.NewUserHandler(accountService),
	}, tokens, lg, cfg.RequestTimeout)

	// Outbox poller
	var wg sync.WaitGroup
	writer := publisher.NewWriter(cfg.KafkaTopic, cfg.KafkaBrokers...)
	poller := publisher.NewOutboxPoller(ticketRepo, writer, lg, publisher.WithInterval(cfg.OutboxInterval))
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(pollerCtx)
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("purchase API starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", zap.Error(err))
	}

	pollerCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()
	select {
	case <-doneChan:
		lg.Info("outbox poller stopped cleanly")
	case <-shutdownCtx.Done():
		lg.Warn("outbox poller didn't stop in time")
	}

	if err := writer.Close(); err != nil {
		lg.Warn("failed to close kafka writer", zap.Error(err))
	}
	lg.Info("server exited")
}
