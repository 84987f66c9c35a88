package purchase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"salesbridge/internal/domain/entity"
	domainerrors "salesbridge/internal/domain/errors"

	"github.com/shopspring/decimal"
)

// Timestamp layouts accepted for data_hora, tried in order. A trailing "Z" is
// covered by the RFC 3339 layouts; the offset-less layouts produce a naive
// timestamp that gets the process default timezone attached.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Normalize turns a raw mapping (a JSON-decoded body, or one spreadsheet row
// converted to a mapping) into a canonical DTO. Failures are *ValidationError
// values carrying the offending field and a human-readable reason.
//
// defaultLoc is attached to timestamps that carry no timezone; nil means UTC.
func Normalize(raw map[string]any, defaultLoc *time.Location) (*DTO, error) {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}

	customer := subMapping(raw, KeyCustomer)
	product := subMapping(raw, KeyProduct)

	dto := &DTO{}

	dto.Customer.Name = strings.TrimSpace(stringField(customer, KeyCustomerName))
	if dto.Customer.Name == "" {
		return nil, domainerrors.NewEmptyFieldError("customer.name")
	}

	dto.Customer.Email = strings.ToLower(strings.TrimSpace(stringField(customer, KeyCustomerEmail)))
	dto.Customer.Phone = onlyDigits(stringField(customer, KeyCustomerPhone))
	dto.Customer.TaxID = onlyDigits(stringField(customer, KeyCustomerTaxID))
	dto.Customer.Address = strings.TrimSpace(stringField(customer, KeyCustomerAddress))

	if dto.Customer.TaxID != "" && (len(dto.Customer.TaxID) < 11 || len(dto.Customer.TaxID) > 14) {
		return nil, domainerrors.NewInvalidValueError("customer.tax_id", "must contain 11 to 14 digits")
	}

	dto.Product.Name = strings.TrimSpace(stringField(product, KeyProductName))
	if dto.Product.Name == "" {
		return nil, domainerrors.NewEmptyFieldError("product.name")
	}

	quantity, err := intField(raw, KeyQuantity)
	if err != nil || quantity <= 0 {
		return nil, domainerrors.NewInvalidValueError("quantity", "positive integer expected")
	}
	dto.Quantity = quantity

	dto.UnitPrice, err = decimalField(raw, KeyUnitPrice)
	if err != nil {
		return nil, domainerrors.NewInvalidValueError("price", "valor_unitario: decimal expected")
	}
	dto.TotalPrice, err = decimalField(raw, KeyTotalPrice)
	if err != nil {
		return nil, domainerrors.NewInvalidValueError("price", "valor_total: decimal expected")
	}

	dto.OccurredAt, err = parseTimestamp(raw[KeyOccurredAt], defaultLoc)
	if err != nil {
		return nil, domainerrors.NewInvalidValueError("occurred_at", err.Error())
	}

	dto.PaymentMethod = entity.ParsePaymentMethod(stringField(raw, KeyPaymentMethod))

	// Identity rule: without a tax ID or an email there is no stable way to
	// deduplicate the customer downstream.
	if dto.Customer.TaxID == "" && dto.Customer.Email == "" {
		return nil, domainerrors.ErrMissingIdentity
	}

	return dto, nil
}

// NormalizeJSON decodes a JSON payload and normalizes it. Numbers are decoded
// with json.Number so money values never round-trip through float64.
func NormalizeJSON(data []byte, defaultLoc *time.Location) (*DTO, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, domainerrors.NewInvalidValueError("payload", "invalid JSON: "+err.Error())
	}

	return Normalize(raw, defaultLoc)
}

// subMapping extracts a nested mapping; a missing sub-mapping is treated as empty.
func subMapping(raw map[string]any, key string) map[string]any {
	if nested, ok := raw[key].(map[string]any); ok {
		return nested
	}

	return map[string]any{}
}

func stringField(raw map[string]any, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprint(value)
}

// onlyDigits strips every non-digit character; an all-stripped value is empty.
func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

func intField(raw map[string]any, key string) (int, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return 0, fmt.Errorf("%s missing", key)
	}

	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s is not an integer", key)
		}

		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, err
		}

		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, err
		}

		return n, nil
	default:
		return 0, fmt.Errorf("%s has unsupported type %T", key, value)
	}
}

// decimalField parses a fixed-point decimal from its string or numeric
// representation. Money never goes through floating-point arithmetic.
func decimalField(raw map[string]any, key string) (decimal.Decimal, error) {
	value, ok := raw[key]
	if !ok || value == nil {
		return decimal.Zero, fmt.Errorf("%s missing", key)
	}

	switch v := value.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromString(strconv.FormatFloat(v, 'f', -1, 64))
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Zero, fmt.Errorf("%s has unsupported type %T", key, value)
	}
}

func parseTimestamp(value any, defaultLoc *time.Location) (time.Time, error) {
	if value == nil {
		return time.Time{}, fmt.Errorf("data_hora missing")
	}

	if t, ok := value.(time.Time); ok {
		return t, nil
	}

	raw := strings.TrimSpace(fmt.Sprint(value))
	if raw == "" {
		return time.Time{}, fmt.Errorf("data_hora missing")
	}

	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, raw, defaultLoc)
		if err != nil {
			continue
		}

		return t, nil
	}

	return time.Time{}, fmt.Errorf("data_hora %q is not ISO-8601", raw)
}
