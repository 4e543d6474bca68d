package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt: renders a PDF receipt for a
// finalized transaction and, when the customer left an email, enqueues an
// email job with the PDF attached. Strictly best-effort — a receipt failure
// never touches the ledger.

import (
	"context"
	"encoding/json"
	"fmt"

	"lanepos/internal/infra"
	"lanepos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipt.
type ReceiptJobPayload struct {
	TransactionID string  `json:"transaction_id"`
	CustomerEmail *string `json:"customer_email,omitempty"`
}

type ReceiptWorker struct {
	txRepo         repository.TransactionRepository
	dispatcher     *Dispatcher
	rdb            *redis.Client
	storeName      string
	pdfStoragePath string
}

func NewReceiptWorker(
	txRepo repository.TransactionRepository,
	dispatcher *Dispatcher,
	rdb *redis.Client,
	storeName string,
	pdfStoragePath string,
) *ReceiptWorker {
	return &ReceiptWorker{
		txRepo:         txRepo,
		dispatcher:     dispatcher,
		rdb:            rdb,
		storeName:      storeName,
		pdfStoragePath: pdfStoragePath,
	}
}

// Process handles a single receipt job:
//  1. Parse ReceiptJobPayload from the job envelope
//  2. Fetch the transaction (with lines + payments)
//  3. Render the PDF with retry (3 attempts, exponential backoff)
//  4. On exhaustion, move the job to the DLQ
//  5. Optionally enqueue an email job with the PDF attached
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}

	txID, err := uuid.Parse(payload.TransactionID)
	if err != nil {
		log.Error().Str("transaction_id", payload.TransactionID).Msg("receipt_worker: invalid transaction_id")
		return
	}

	tx, err := w.txRepo.FindByID(ctx, txID)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", payload.TransactionID).Msg("receipt_worker: transaction not found")
		return
	}

	const maxAttempts = 3
	var pdfPath string
	renderErr := withRetry(ctx, maxAttempts, func(attempt int) error {
		path, err := infra.GenerateReceiptPDF(tx, w.storeName, w.pdfStoragePath)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("transaction_id", payload.TransactionID).
				Msg("receipt_worker: PDF render attempt failed, retrying")
			return err
		}
		pdfPath = path
		return nil
	})
	if renderErr != nil {
		SendToDLQ(ctx, w.rdb, QueueReceipt, "receipt", raw, renderErr.Error(), maxAttempts)
		return
	}

	log.Info().
		Str("transaction_id", payload.TransactionID).
		Str("pdf", pdfPath).
		Msg("receipt_worker: receipt generated")

	if payload.CustomerEmail == nil || *payload.CustomerEmail == "" {
		return
	}
	emailJob := EmailJobPayload{
		ToEmail: *payload.CustomerEmail,
		Subject: fmt.Sprintf("%s — your receipt", w.storeName),
		Body:    "Thank you for your purchase. Your receipt is attached.",
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Error().Err(err).Str("to", *payload.CustomerEmail).Msg("receipt_worker: failed to enqueue email job")
	}
}
