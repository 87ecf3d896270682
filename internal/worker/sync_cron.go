package worker

// sync_cron.go
// Background goroutine that periodically enqueues a WooCommerce sync job for
// the active store connection. Uses the Circuit Breaker to avoid hammering a
// downed store.

import (
	"context"
	"time"

	"novapos/internal/infra"
	"novapos/internal/repository"

	"github.com/rs/zerolog/log"
)

// SyncCronConfig holds all dependencies for the periodic sync goroutine.
type SyncCronConfig struct {
	WooRepo    repository.WooCommerceRepository
	Dispatcher *Dispatcher
	CB         *infra.CircuitBreaker
	Interval   time.Duration
}

// StartSyncCron launches a background goroutine that ticks at the configured
// interval and enqueues a sync job for the active connection. A zero interval
// disables the cron entirely. Respects the context for graceful shutdown.
func StartSyncCron(ctx context.Context, cfg SyncCronConfig) {
	if cfg.Interval <= 0 {
		log.Info().Msg("sync_cron: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("sync_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("sync_cron: shutting down")
				return
			case <-ticker.C:
				enqueueScheduledSync(ctx, cfg)
			}
		}
	}()
}

func enqueueScheduledSync(ctx context.Context, cfg SyncCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed store
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("sync_cron: circuit breaker is open, skipping tick")
		return
	}

	conn, err := cfg.WooRepo.FindActive(ctx)
	if err != nil {
		log.Debug().Msg("sync_cron: no active connection, skipping tick")
		return
	}
	if !conn.SyncProducts && !conn.SyncOrders {
		return
	}

	payload := SyncJobPayload{
		Products: conn.SyncProducts,
		Orders:   conn.SyncOrders,
	}
	if err := cfg.Dispatcher.EnqueueSync(ctx, payload); err != nil {
		log.Error().Err(err).Msg("sync_cron: failed to enqueue sync job")
		return
	}
	log.Info().
		Bool("products", payload.Products).
		Bool("orders", payload.Orders).
		Msg("sync_cron: sync job enqueued")
}
