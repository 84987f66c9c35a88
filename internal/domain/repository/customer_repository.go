// Package repository defines the persistence interfaces the use case layer
// depends on, keeping it independent of any specific database driver.
package repository

import (
	"context"

	"salesbridge/internal/domain/entity"
	"salesbridge/internal/errors"

	"github.com/google/uuid"
)

// ErrCustomerNotFound is returned when no customer matches the lookup.
var ErrCustomerNotFound = errors.New("customer not found")

// CustomerRepository persists and resolves deduplicated customer identities.
type CustomerRepository interface {
	// FindByTaxID returns the customer holding the given digits-only tax ID.
	FindByTaxID(ctx context.Context, taxID string) (*entity.Customer, error)

	// FindByNameEmail returns the customer matching the (name, email) pair,
	// the fallback identity when no tax ID is present.
	FindByNameEmail(ctx context.Context, name, email string) (*entity.Customer, error)

	// Create inserts a new customer. A concurrent insert of the same identity
	// is absorbed: the existing row is returned instead of an error.
	Create(ctx context.Context, customer *entity.Customer) (*entity.Customer, error)

	// Update persists refreshed contact fields for an existing customer.
	Update(ctx context.Context, customer *entity.Customer) error

	// AttachAddress records an address text under the customer, deduplicated
	// by (customer, exact text). Re-attaching an existing text is a no-op.
	AttachAddress(ctx context.Context, customerID uuid.UUID, fullText string) error
}
