package repository

import (
	"context"

	"salesbridge/internal/domain/entity"
	"salesbridge/internal/errors"
)

// ErrProductNotFound is returned when no product matches the lookup.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository persists products, created on first sighting of a name.
type ProductRepository interface {
	// FindByName returns the product with the exact given name.
	FindByName(ctx context.Context, name string) (*entity.Product, error)

	// GetOrCreate resolves the product by name, creating it when absent.
	// A concurrent creation of the same name resolves to the winner's row.
	GetOrCreate(ctx context.Context, name string) (*entity.Product, error)
}
