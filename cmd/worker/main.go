// Package main is the entry point for the tillpoint background worker.
// It relays committed sale events from the transactional outbox to
// Kafka.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tillpoint/internal/config"
	"tillpoint/internal/infrastructure/broker"
	"tillpoint/internal/infrastructure/storage/postgres"
	"tillpoint/pkg/logger"
)

const (
	relayInterval  = 2 * time.Second
	relayBatchSize = 100
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Format != "json",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Storage.Backend != config.StoragePostgres {
		log.Fatal("outbox worker requires the postgres storage backend")
	}
	if !cfg.Kafka.Enabled {
		log.Fatal("outbox worker requires Kafka to be enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting tillpoint outbox worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.Storage.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSales)
	defer func() {
		if err := producer.Close(); err != nil {
			log.Warnw("kafka producer close failed", "error", err)
		}
	}()

	relay := postgres.NewOutboxRelay(pool, relayBatchSize, broker.NewOutboxForwarder(producer))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runRelay(ctx, relay, log)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// runRelay drains the outbox on a fixed interval until ctx is done.
func runRelay(ctx context.Context, relay *postgres.OutboxRelay, log *logger.Logger) {
	ticker := time.NewTicker(relayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			processed, err := relay.ProcessBatch(ctx)
			if err != nil {
				log.Warnw("outbox batch failed", "error", err)
				continue
			}
			if processed > 0 {
				log.Infow("outbox batch relayed", "messages", processed)
			}
		}
	}
}
