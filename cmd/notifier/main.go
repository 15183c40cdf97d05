package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"orderdesk/internal/config"
	kafkax "orderdesk/internal/kafka"
	"orderdesk/internal/logging"
	"orderdesk/internal/notifier"
	"orderdesk/internal/orders"
	"orderdesk/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	logger := logging.GetSugaredLogger()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("config", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{
		Redis:       rdb,
		Logger:      logger,
		ServiceName: cfg.ServiceName + "-notifier",
	}

	topics := []string{orders.TopicOrderCreated, orders.TopicOrderLifecycle}
	for _, topic := range topics {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, topic, cfg.NotifierWorker, logger)
		go func(topic string) {
			logger.Infow("notifier consumer started",
				"group", cfg.NotifierGroup, "topic", topic, "workers", cfg.NotifierWorker)
			if err := cons.Start(ctx, svc.HandleEvent); err != nil {
				logger.Errorw("consumer exit", "topic", topic, "error", err)
				cancel()
			}
		}(topic)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		logger.Info("shutting down notifier...")
	case <-ctx.Done():
	}
	cancel()
	time.Sleep(500 * time.Millisecond)
}
