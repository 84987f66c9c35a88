// Package model holds the GORM-specific structs mirroring the database
// tables. Domain entities never carry GORM tags; mapping happens in the
// repository layer.
package model

import (
	"time"

	"github.com/google/uuid"
)

// CustomerModel mirrors the 'customers' table. TaxID is nullable so the
// partial unique index only applies to customers that have a document.
type CustomerModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(150);not null;index:idx_customers_name_email"`
	Email     string    `gorm:"type:varchar(255);index:idx_customers_name_email"`
	Phone     string    `gorm:"type:varchar(20)"`
	TaxID     *string   `gorm:"type:varchar(14);uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Addresses []*AddressModel `gorm:"foreignKey:CustomerID"`
}

// TableName explicitly sets the table name for GORM.
func (CustomerModel) TableName() string {
	return "customers"
}

// AddressModel mirrors the 'addresses' table. One row per distinct address
// text per customer; deleting a customer cascades here but is blocked while
// purchases reference the customer.
type AddressModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_addresses_customer_text"`
	FullText   string    `gorm:"type:text;not null;uniqueIndex:idx_addresses_customer_text"`
	CreatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (AddressModel) TableName() string {
	return "addresses"
}
