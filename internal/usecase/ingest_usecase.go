package usecase

import (
	"context"

	"salesbridge/internal/domain/purchase"
)

// IngestResult describes the outcome of staging and publishing one record.
type IngestResult struct {
	IdempotencyKey string `json:"id_mensagem"`
	MessageID      string `json:"message_id,omitempty"`
	// Duplicate is true when the record had already been staged under the
	// same idempotency key. It is still republished; the persistence side
	// absorbs the repeat.
	Duplicate bool `json:"duplicate"`
}

// IngestUsecase drives the ingestion half of the pipeline: normalize a raw
// record, fingerprint it, stage a durable copy, and publish it onto the queue.
type IngestUsecase interface {
	// IngestRaw normalizes the raw mapping and then stages and publishes it.
	// Source is the intake channel ("file" or "api") and sourceName names the
	// batch file or submission route for auditing.
	IngestRaw(ctx context.Context, raw map[string]any, source, sourceName string) (*IngestResult, error)

	// IngestPurchase stages and publishes an already-normalized record.
	IngestPurchase(ctx context.Context, dto *purchase.DTO, source, sourceName string) (*IngestResult, error)
}
