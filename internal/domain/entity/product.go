package entity

import (
	"time"

	"github.com/google/uuid"
)

// Product is created on first sighting of a new name and never updated by the
// pipeline beyond existence. Price history is implicit in purchase rows.
type Product struct {
	ID        uuid.UUID
	Name      string // Unique product name, trimmed.
	CreatedAt time.Time
	UpdatedAt time.Time
}
