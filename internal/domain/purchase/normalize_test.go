package purchase

import (
	"testing"
	"time"

	"salesbridge/internal/domain/entity"
	domainerrors "salesbridge/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() map[string]any {
	return map[string]any{
		KeyCustomer: map[string]any{
			KeyCustomerName:    "  Ana Souza  ",
			KeyCustomerEmail:   " Ana.Souza@Example.COM ",
			KeyCustomerPhone:   "(11) 99999-0001",
			KeyCustomerTaxID:   "123.456.789-09",
			KeyCustomerAddress: " Rua das Flores, 10 - Sao Paulo ",
		},
		KeyProduct: map[string]any{
			KeyProductName: " Teclado Mecanico ",
		},
		KeyQuantity:      2,
		KeyUnitPrice:     "150.00",
		KeyTotalPrice:    "300.00",
		KeyOccurredAt:    "2026-08-01T10:30:00Z",
		KeyPaymentMethod: "pix",
	}
}

func TestNormalize_ValidRecord(t *testing.T) {
	dto, err := Normalize(validRaw(), nil)
	require.NoError(t, err)

	assert.Equal(t, "Ana Souza", dto.Customer.Name)
	assert.Equal(t, "ana.souza@example.com", dto.Customer.Email)
	assert.Equal(t, "11999990001", dto.Customer.Phone)
	assert.Equal(t, "12345678909", dto.Customer.TaxID)
	assert.Equal(t, "Rua das Flores, 10 - Sao Paulo", dto.Customer.Address)
	assert.Equal(t, "Teclado Mecanico", dto.Product.Name)
	assert.Equal(t, 2, dto.Quantity)
	assert.Equal(t, "150", dto.UnitPrice.String())
	assert.Equal(t, "300", dto.TotalPrice.String())
	assert.Equal(t, entity.PaymentPix, dto.PaymentMethod)
	assert.Equal(t, time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC), dto.OccurredAt.UTC())
}

func TestNormalize_MissingCustomerName(t *testing.T) {
	raw := validRaw()
	raw[KeyCustomer].(map[string]any)[KeyCustomerName] = "   "

	_, err := Normalize(raw, nil)
	require.Error(t, err)
	assert.True(t, domainerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "customer.name")
}

func TestNormalize_MissingProductName(t *testing.T) {
	raw := validRaw()
	raw[KeyProduct] = map[string]any{}

	_, err := Normalize(raw, nil)
	require.Error(t, err)
	assert.True(t, domainerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "product.name")
}

func TestNormalize_MissingIdentity(t *testing.T) {
	raw := validRaw()
	customer := raw[KeyCustomer].(map[string]any)
	customer[KeyCustomerEmail] = ""
	customer[KeyCustomerTaxID] = ""

	_, err := Normalize(raw, nil)
	require.ErrorIs(t, err, domainerrors.ErrMissingIdentity)
}

func TestNormalize_TaxIDLengthBounds(t *testing.T) {
	tests := []struct {
		name  string
		taxID string
		ok    bool
	}{
		{name: "cpf 11 digits", taxID: "123.456.789-09", ok: true},
		{name: "cnpj 14 digits", taxID: "12.345.678/0001-95", ok: true},
		{name: "too short", taxID: "123456", ok: false},
		{name: "too long", taxID: "123456789012345", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			raw[KeyCustomer].(map[string]any)[KeyCustomerTaxID] = tt.taxID

			_, err := Normalize(raw, nil)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, domainerrors.IsValidation(err))
			}
		})
	}
}

func TestNormalize_QuantityMustBePositiveInteger(t *testing.T) {
	for _, bad := range []any{0, -3, "abc", 1.5, nil} {
		raw := validRaw()
		raw[KeyQuantity] = bad

		_, err := Normalize(raw, nil)
		assert.True(t, domainerrors.IsValidation(err), "quantity=%v", bad)
	}
}

func TestNormalize_PriceDecodedWithoutFloats(t *testing.T) {
	raw := validRaw()
	raw[KeyUnitPrice] = "19.90"
	raw[KeyTotalPrice] = "39.80"

	dto, err := Normalize(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "19.90", dto.UnitPrice.StringFixed(2))
	assert.Equal(t, "39.80", dto.TotalPrice.StringFixed(2))
}

func TestNormalize_InvalidPrice(t *testing.T) {
	raw := validRaw()
	raw[KeyUnitPrice] = "R$ 10,00"

	_, err := Normalize(raw, nil)
	require.Error(t, err)
	assert.True(t, domainerrors.IsValidation(err))
}

func TestNormalize_NaiveTimestampGetsDefaultLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	raw := validRaw()
	raw[KeyOccurredAt] = "2026-08-01T10:30:00"

	dto, err := Normalize(raw, loc)
	require.NoError(t, err)
	assert.Equal(t, loc, dto.OccurredAt.Location())

	// An explicit offset always wins over the default.
	raw[KeyOccurredAt] = "2026-08-01T10:30:00-03:00"
	withOffset, err := Normalize(raw, loc)
	require.NoError(t, err)
	_, offset := withOffset.OccurredAt.Zone()
	assert.Equal(t, -3*60*60, offset)
}

func TestNormalize_InvalidTimestamp(t *testing.T) {
	raw := validRaw()
	raw[KeyOccurredAt] = "01/08/2026 10:30"

	_, err := Normalize(raw, nil)
	require.Error(t, err)
	assert.True(t, domainerrors.IsValidation(err))
}

func TestNormalize_PaymentMethodCoercion(t *testing.T) {
	tests := map[string]entity.PaymentMethod{
		"pix":          entity.PaymentPix,
		"CREDITO":      entity.PaymentCreditCard,
		"debito":       entity.PaymentDebitCard,
		"DINHEIRO":     entity.PaymentCash,
		"boleto":       entity.PaymentInvoice,
		"":             entity.PaymentOther,
		"cryptocoinzz": entity.PaymentOther,
	}

	for input, want := range tests {
		raw := validRaw()
		raw[KeyPaymentMethod] = input

		dto, err := Normalize(raw, nil)
		require.NoError(t, err, "input=%q", input)
		assert.Equal(t, want, dto.PaymentMethod, "input=%q", input)
	}
}

func TestNormalizeJSON_PreservesMoneyPrecision(t *testing.T) {
	payload := []byte(`{
		"cliente": {"nome": "Bruno Lima", "email": "bruno@example.com"},
		"produto": {"nome_produto": "Mouse"},
		"quantidade": 3,
		"valor_unitario": 19.90,
		"valor_total": 59.70,
		"data_hora": "2026-08-01T10:30:00Z",
		"forma_pagamento": "PIX"
	}`)

	dto, err := NormalizeJSON(payload, nil)
	require.NoError(t, err)
	assert.Equal(t, "19.90", dto.UnitPrice.StringFixed(2))
	assert.Equal(t, "59.70", dto.TotalPrice.StringFixed(2))
}

func TestNormalizeJSON_InvalidJSON(t *testing.T) {
	_, err := NormalizeJSON([]byte("{not json"), nil)
	require.Error(t, err)
	assert.True(t, domainerrors.IsValidation(err))
}
