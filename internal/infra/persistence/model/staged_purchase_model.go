package model

import "time"

// StagedPurchaseModel mirrors the 'staged_purchases' table on the ingestion
// side: a durable copy of every message handed to the queue transport.
type StagedPurchaseModel struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	IdempotencyKey string `gorm:"type:char(64);not null;uniqueIndex"`
	Payload        []byte `gorm:"type:jsonb;not null"`
	Source         string `gorm:"type:varchar(10);not null"`
	SourceName     string `gorm:"type:varchar(255)"`
	CreatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (StagedPurchaseModel) TableName() string {
	return "staged_purchases"
}
