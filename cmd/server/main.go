package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/showgrid/showgrid/internal/cache"
	"github.com/showgrid/showgrid/internal/config"
	"github.com/showgrid/showgrid/internal/discovery"
	"github.com/showgrid/showgrid/internal/index"
	"github.com/showgrid/showgrid/internal/queue"
	"github.com/showgrid/showgrid/internal/record"
	"github.com/showgrid/showgrid/internal/server"
	"github.com/showgrid/showgrid/internal/sync"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("connecting to database: %v", err)
	}
	defer pool.Close()

	if err := record.EnsureTriggers(ctx, pool); err != nil {
		log.Fatalf("installing change triggers: %v", err)
	}
	store := record.NewPostgresStore(pool)

	idx, err := index.NewElastic(cfg.Search.Addresses, cfg.Search.Index)
	if err != nil {
		log.Fatalf("creating search client: %v", err)
	}
	if err := idx.EnsureIndex(ctx); err != nil {
		log.Fatalf("ensuring search index: %v", err)
	}

	q, err := queue.NewJetStream(ctx, queue.JetStreamConfig{
		URL:       cfg.Queue.URL,
		Stream:    cfg.Queue.Stream,
		Subject:   cfg.Queue.Subject,
		Durable:   cfg.Queue.Durable,
		BatchSize: cfg.Queue.BatchSize,
	})
	if err != nil {
		log.Fatalf("connecting to queue: %v", err)
	}
	defer q.Close()

	cacheStore := cache.NewSturdyc(cfg.Cache.Capacity)

	consumer := sync.NewConsumer(store, idx, cacheStore)
	consumer.SetRetryBudget(cfg.Sync.RetryAttempts, cfg.Sync.RetryBaseDelay)

	runner := sync.NewRunner(consumer, q,
		record.NewListener(cfg.Database.URL, consumer.Process))
	runner.Start(ctx)

	disc := discovery.NewService(idx, cacheStore)
	disc.SetTTLs(cfg.Cache.SearchTTL, cfg.Cache.FeaturedTTL)

	if err := server.Run(ctx, server.Config{
		Port:      cfg.Server.Port,
		Discovery: disc,
		Resyncer:  consumer,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}

	runner.Wait()
}
