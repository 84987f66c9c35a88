package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseModel mirrors the 'purchases' table. The unique index on
// IdempotencyKey is the concurrency-control primitive for exactly-once
// persistence; FK constraints block deleting referenced customers/products.
type PurchaseModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_purchases_customer_time"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_purchases_product_time"`
	Quantity       int             `gorm:"not null;check:quantity > 0"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod  string          `gorm:"type:varchar(20);not null;default:OTHER"`
	OccurredAt     time.Time       `gorm:"not null;index;index:idx_purchases_customer_time;index:idx_purchases_product_time"`
	IdempotencyKey string          `gorm:"type:char(64);not null;uniqueIndex"`
	CreatedAt      time.Time

	Customer *CustomerModel `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT"`
	Product  *ProductModel  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

// TableName explicitly sets the table name for GORM.
func (PurchaseModel) TableName() string {
	return "purchases"
}
