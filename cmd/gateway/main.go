package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"orderdesk/internal/config"
	"orderdesk/internal/httpx"
	kafkax "orderdesk/internal/kafka"
	"orderdesk/internal/logging"
	"orderdesk/internal/notify"
	"orderdesk/internal/orders"
	"orderdesk/internal/recordapi"
	"orderdesk/internal/redisx"
	"orderdesk/internal/session"
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

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	cache := &redisx.StatusCache{R: rdb}

	// Kafka producers
	createdProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024, logger)
	createdProd.Start(ctx)
	lifecycleProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderLifecycle, 1024, logger)
	lifecycleProd.Start(ctx)

	// Record backend client & sessions
	backend := recordapi.NewClient(cfg.RecordAPIURL, cfg.RecordTimeout, logger)
	sessions := session.NewManager(session.Options{
		Backend:      backend,
		Notifier:     &notify.Log{Logger: logger},
		Publisher:    lifecycleProd,
		Cache:        cache,
		Logger:       logger,
		BusinessZone: cfg.BusinessZone,
		Producer:     cfg.ServiceName,
	})
	defer sessions.Close()

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Sessions: sessions,
		Backend:  backend,
		Cache:    cache,
		Producer: createdProd,
		Logger:   logger,
		Service:  cfg.ServiceName,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		logger.Infow("gateway listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("listen", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)

	sessions.Close() // cancel every display tick before the process exits
	createdProd.Close()
	lifecycleProd.Close()
	cancel()
	createdProd.WaitClosed()
	lifecycleProd.WaitClosed()
}
