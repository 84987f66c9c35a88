// Package purchase implements the canonical purchase DTO together with the
// normalization and idempotency fingerprinting applied to every raw record,
// regardless of whether it arrived from a batch file or the submission API.
package purchase

import (
	"time"

	"salesbridge/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// Wire payload keys, shared by the queue message schema and the raw mapping
// accepted by Normalize. The names are inherited from the upstream producers.
const (
	KeyCustomer      = "cliente"
	KeyProduct       = "produto"
	KeyQuantity      = "quantidade"
	KeyUnitPrice     = "valor_unitario"
	KeyTotalPrice    = "valor_total"
	KeyOccurredAt    = "data_hora"
	KeyPaymentMethod = "forma_pagamento"
	KeyFingerprint   = "id_mensagem"

	KeyCustomerName    = "nome"
	KeyCustomerEmail   = "email"
	KeyCustomerPhone   = "telefone"
	KeyCustomerTaxID   = "cpf_cnpj"
	KeyCustomerAddress = "endereco_completo"
	KeyProductName     = "nome_produto"
)

// CustomerInfo is the normalized customer slice of a DTO.
type CustomerInfo struct {
	Name    string `json:"nome"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"telefone,omitempty"`
	TaxID   string `json:"cpf_cnpj,omitempty"`
	Address string `json:"endereco_completo,omitempty"`
}

// ProductInfo is the normalized product slice of a DTO.
type ProductInfo struct {
	Name string `json:"nome_produto"`
}

// DTO is the canonical, validated in-memory representation of one purchase,
// independent of its original source format. All internal code consumes this
// type; raw mappings never cross the normalization boundary.
type DTO struct {
	Customer       CustomerInfo         `json:"cliente"`
	Product        ProductInfo          `json:"produto"`
	Quantity       int                  `json:"quantidade"`
	UnitPrice      decimal.Decimal      `json:"valor_unitario"`
	TotalPrice     decimal.Decimal      `json:"valor_total"`
	OccurredAt     time.Time            `json:"data_hora"`
	PaymentMethod  entity.PaymentMethod `json:"forma_pagamento"`
	IdempotencyKey string               `json:"id_mensagem,omitempty"`
}

// Identity returns the customer identity used for logging: the tax ID when
// present, otherwise the name|email pair. Matches the dedup rule in storage.
func (d *DTO) Identity() string {
	if d.Customer.TaxID != "" {
		return d.Customer.TaxID
	}

	return d.Customer.Name + "|" + d.Customer.Email
}
