package repository

import (
	"context"
	"time"
)

// Staging record sources.
const (
	StagingSourceFile = "file"
	StagingSourceAPI  = "api"
)

// StagedPurchase is a durable local copy of a normalized record, written on
// the ingestion side before the queue publish so an operator can replay or
// audit what was sent.
type StagedPurchase struct {
	ID             int64
	IdempotencyKey string
	Payload        []byte // The serialized queue message.
	Source         string // StagingSourceFile or StagingSourceAPI.
	SourceName     string // Batch file name, or the submission route.
	CreatedAt      time.Time
}

// StagingRepository persists staged purchase records on the ingestion side.
type StagingRepository interface {
	// Stage inserts the record. Staging the same idempotency key twice is a
	// no-op; re-scans of a crashed batch must not fail here.
	Stage(ctx context.Context, record *StagedPurchase) error

	// CountByKey reports how many staged records exist for the key.
	CountByKey(ctx context.Context, key string) (int64, error)
}
