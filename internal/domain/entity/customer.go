// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a deduplicated buyer identity. A customer is identified by its
// tax ID when present, otherwise by the (name, email) pair. Customers are
// created on first sighting and refreshed non-destructively afterwards; the
// pipeline never deletes them.
type Customer struct {
	ID        uuid.UUID  // The unique identifier for the customer.
	Name      string     // Display name, trimmed.
	Email     string     // Lower-cased contact email; may be empty.
	Phone     string     // Digits-only phone number; may be empty.
	TaxID     string     // Digits-only CPF/CNPJ (11-14 digits); may be empty.
	Addresses []*Address // Known addresses, deduplicated by exact text.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Refresh applies a non-destructive update from a newer sighting of the same
// identity: a field is only overwritten when the incoming value is non-empty
// and different. It reports whether anything changed.
func (c *Customer) Refresh(name, email, phone string) bool {
	changed := false
	if name != "" && name != c.Name {
		c.Name = name
		changed = true
	}
	if email != "" && email != c.Email {
		c.Email = email
		changed = true
	}
	if phone != "" && phone != c.Phone {
		c.Phone = phone
		changed = true
	}

	return changed
}

// Address is one physical address text attached to a customer.
// Addresses are append-only and unique per (customer, exact text).
type Address struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	FullText   string // The full, human-readable address as supplied.
	CreatedAt  time.Time
}
