package repository

import (
	"context"

	"salesbridge/internal/domain/entity"
	"salesbridge/internal/errors"
)

// ErrPurchaseNotFound is returned when no purchase matches the lookup.
var ErrPurchaseNotFound = errors.New("purchase not found")

// PurchaseRepository persists immutable purchase rows anchored on the
// idempotency key.
type PurchaseRepository interface {
	// FindByIdempotencyKey returns the purchase stored under the given key.
	FindByIdempotencyKey(ctx context.Context, key string) (*entity.Purchase, error)

	// Create inserts the purchase. If a row with the same idempotency key
	// already exists (duplicate delivery or a concurrent insert), the
	// existing row is returned with created=false and no error: the unique
	// constraint is the concurrency-control primitive, not a failure mode.
	Create(ctx context.Context, p *entity.Purchase) (stored *entity.Purchase, created bool, err error)
}
