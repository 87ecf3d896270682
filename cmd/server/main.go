package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"novapos/internal/config"
	"novapos/internal/infra"
	"novapos/internal/repository"
	"novapos/internal/router"
	"novapos/internal/service"
	"novapos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// One breaker instance guards every WooCommerce call: handler-triggered
	// syncs, connection tests, and the background cron all share its state.
	wooCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	// Worker pool for async tasks (receipt PDFs, email, store sync).
	// Handlers are wired here at the composition root so the pool has full
	// access to the same repositories and services the HTTP layer uses.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)

	saleRepo := repository.NewSaleRepository(db)
	wooRepo := repository.NewWooCommerceRepository(db)
	wooSvc := service.NewWooCommerceService(
		wooRepo,
		repository.NewProductRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewCustomerRepository(db),
		saleRepo,
		repository.NewUserRepository(db),
		wooCB,
	)

	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, worker.Handlers{
		Receipt: worker.NewReceiptWorker(saleRepo, dispatcher, cfg.ReceiptStoragePath, cfg.CompanyName),
		Email:   worker.NewEmailWorker(mailer),
		Sync:    worker.NewSyncWorker(wooSvc),
	})

	worker.StartSyncCron(ctx, worker.SyncCronConfig{
		WooRepo:    wooRepo,
		Dispatcher: dispatcher,
		CB:         wooCB,
		Interval:   time.Duration(cfg.SyncIntervalMinutes) * time.Minute,
	})

	r := router.New(cfg, db, rdb, wooCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("NovaPOS backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
