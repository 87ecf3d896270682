package worker

// sync_worker.go
// Processes WooCommerce synchronization jobs from QueueSync. The heavy
// lifting lives in the sync service; this worker only decides which of the
// two feeds to pull and records the outcome.

import (
	"context"
	"encoding/json"

	"novapos/internal/dto"

	"github.com/rs/zerolog/log"
)

// SyncJobPayload selects which feeds a sync run should pull.
type SyncJobPayload struct {
	Products bool `json:"products"`
	Orders   bool `json:"orders"`
}

// StoreSyncer pulls the remote catalog and order feed into local state.
// Implemented by the WooCommerce service; declared here so the worker
// package stays independent of the service package.
type StoreSyncer interface {
	SyncProducts(ctx context.Context) (*dto.ProductSyncResult, error)
	SyncOrders(ctx context.Context) (*dto.OrderSyncResult, error)
}

type SyncWorker struct {
	syncer StoreSyncer
}

func NewSyncWorker(syncer StoreSyncer) *SyncWorker {
	return &SyncWorker{syncer: syncer}
}

func (w *SyncWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload SyncJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("sync_worker: invalid payload")
		return err
	}

	var lastErr error
	if payload.Products {
		result, err := w.syncer.SyncProducts(ctx)
		if err != nil {
			log.Error().Err(err).Msg("sync_worker: product sync failed")
			lastErr = err
		} else {
			log.Info().
				Int("created", result.Created).
				Int("updated", result.Updated).
				Int("total", result.Total).
				Msg("sync_worker: product sync finished")
		}
	}
	if payload.Orders {
		result, err := w.syncer.SyncOrders(ctx)
		if err != nil {
			log.Error().Err(err).Msg("sync_worker: order sync failed")
			lastErr = err
		} else {
			log.Info().
				Int("synced", result.Synced).
				Int("skipped", result.Skipped).
				Int("total", result.Total).
				Msg("sync_worker: order sync finished")
		}
	}
	return lastErr
}
