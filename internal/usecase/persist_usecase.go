package usecase

import (
	"context"

	"github.com/google/uuid"
)

// PersistResult describes the outcome of persisting one queue message.
type PersistResult struct {
	PurchaseID     uuid.UUID
	IdempotencyKey string
	// Created is false when the purchase already existed under the same
	// idempotency key and the message was absorbed as a duplicate.
	Created bool
}

// PersistUsecase drives the persistence half of the pipeline: re-validate the
// message payload, verify its fingerprint, and upsert customer, product and
// purchase in one transaction keyed on the fingerprint.
type PersistUsecase interface {
	// PersistMessage processes one raw queue payload end to end.
	PersistMessage(ctx context.Context, payload []byte) (*PersistResult, error)
}
