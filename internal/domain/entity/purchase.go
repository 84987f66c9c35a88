package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is one persisted sale. Rows are immutable once created: the
// idempotency key is the uniqueness anchor, so redelivered or duplicated
// messages collapse onto the existing row instead of creating a second one.
type Purchase struct {
	ID             uuid.UUID
	CustomerID     uuid.UUID
	ProductID      uuid.UUID
	Quantity       int
	UnitPrice      decimal.Decimal
	TotalPrice     decimal.Decimal
	PaymentMethod  PaymentMethod
	OccurredAt     time.Time // Timezone-aware purchase timestamp.
	IdempotencyKey string    // SHA-256 hex fingerprint, unique across all purchases.
	CreatedAt      time.Time
}
