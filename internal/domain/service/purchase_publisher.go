// Package service defines domain-level service interfaces implemented by the
// infrastructure layer.
package service

import (
	"context"

	"salesbridge/internal/domain/purchase"
)

// PublishResult carries the broker's opaque delivery handle. It exists for
// observability only; correctness never depends on it.
type PublishResult struct {
	MessageID string
}

// PurchasePublisher publishes one canonical DTO per message onto the named
// channel, with at-least-once delivery. The fingerprint travels inside the
// payload, not only as a transport attribute, so the consumer never needs a
// transport-specific lookup to recover it.
type PurchasePublisher interface {
	// PublishPurchase publishes the DTO and returns the delivery handle.
	PublishPurchase(ctx context.Context, dto *purchase.DTO) (*PublishResult, error)

	// Close releases any resources held by the publisher.
	Close() error
}
