package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt: renders the PDF ticket for a
// completed sale and, when the customer left an email, chains an email job.

import (
	"context"
	"encoding/json"
	"fmt"

	"novapos/internal/infra"
	"novapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipt.
type ReceiptJobPayload struct {
	SaleID string `json:"sale_id"`
	Email  string `json:"email,omitempty"`
}

type ReceiptWorker struct {
	saleRepo    repository.SaleRepository
	dispatcher  *Dispatcher
	storagePath string
	companyName string
}

func NewReceiptWorker(saleRepo repository.SaleRepository, dispatcher *Dispatcher, storagePath, companyName string) *ReceiptWorker {
	return &ReceiptWorker{
		saleRepo:    saleRepo,
		dispatcher:  dispatcher,
		storagePath: storagePath,
		companyName: companyName,
	}
}

func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return err
	}

	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale_id")
		return err
	}

	sale, err := w.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: sale not found")
		return err
	}

	pdfPath, err := infra.GenerateReceiptPDF(sale, w.companyName, w.storagePath)
	if err != nil {
		log.Error().Err(err).Str("sale_id", payload.SaleID).Msg("receipt_worker: PDF generation failed")
		return err
	}
	log.Info().Str("pdf", pdfPath).Str("sale_number", sale.SaleNumber).Msg("receipt_worker: receipt generated")

	if payload.Email != "" {
		emailJob := EmailJobPayload{
			ToEmail: payload.Email,
			Subject: fmt.Sprintf("Receipt %s", sale.SaleNumber),
			Body:    fmt.Sprintf("Your purchase receipt is attached.\nTotal: $%s", sale.Total.StringFixed(2)),
			PDFPath: pdfPath,
		}
		if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
			log.Warn().Err(err).Str("email", payload.Email).Msg("receipt_worker: failed to enqueue email")
		}
	}
	return nil
}
