package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/config"
	"github.com/fjod/go_cart/purchase-service/internal/ledger"
	"github.com/fjod/go_cart/purchase-service/internal/logger"
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

	creds := &ledger.Credentials{
		Host:              cfg.DB.Host,
		Port:              cfg.DB.Port,
		User:              cfg.DB.User,
		Password:          cfg.DB.Password,
		DBName:            cfg.DB.Name,
		MigrationsDirPath: cfg.DB.MigrationsPath,
	}

	repo, err := ledger.NewRepository(creds)
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		lg.Fatal("failed to run migrations", zap.Error(err))
	}
	lg.Info("database migrations completed")

	var wg sync.WaitGroup
	consumer := ledger.NewConsumer(repo, ledger.NewReader(cfg.KafkaTopic, cfg.KafkaBrokers...), lg)
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Run(consumerCtx)
	}()
	lg.Info("ledger consumer started", zap.String("topic", cfg.KafkaTopic), zap.Strings("brokers", cfg.KafkaBrokers))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down ledger...")
	consumerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		lg.Info("consumer stopped cleanly")
	case <-shutdownCtx.Done():
		lg.Warn("consumer didn't stop in time")
	}

	consumer.Close()
	lg.Info("ledger stopped")
}
