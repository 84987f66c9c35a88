package purchase

import (
	"fmt"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"salesbridge/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDTO() *DTO {
	return &DTO{
		Customer: CustomerInfo{
			Name:  "Ana Souza",
			Email: "ana@example.com",
			TaxID: "12345678909",
		},
		Product:       ProductInfo{Name: "Teclado"},
		Quantity:      2,
		UnitPrice:     decimal.RequireFromString("150.00"),
		TotalPrice:    decimal.RequireFromString("300.00"),
		OccurredAt:    time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC),
		PaymentMethod: entity.PaymentPix,
	}
}

func TestFingerprint_Shape(t *testing.T) {
	key := Fingerprint(sampleDTO())
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), key)
}

func TestFingerprint_Deterministic(t *testing.T) {
	assert.Equal(t, Fingerprint(sampleDTO()), Fingerprint(sampleDTO()))
}

func TestFingerprint_MoneyRepresentationCollapses(t *testing.T) {
	a := sampleDTO()
	b := sampleDTO()
	a.UnitPrice = decimal.RequireFromString("150.0")
	b.UnitPrice = decimal.RequireFromString("150.00")

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_SensitiveToEveryCanonicalField(t *testing.T) {
	base := Fingerprint(sampleDTO())

	mutations := map[string]func(*DTO){
		"tax id":         func(d *DTO) { d.Customer.TaxID = "98765432100" },
		"email":          func(d *DTO) { d.Customer.Email = "other@example.com" },
		"product":        func(d *DTO) { d.Product.Name = "Mouse" },
		"quantity":       func(d *DTO) { d.Quantity = 3 },
		"unit price":     func(d *DTO) { d.UnitPrice = decimal.RequireFromString("150.01") },
		"total price":    func(d *DTO) { d.TotalPrice = decimal.RequireFromString("300.01") },
		"occurred at":    func(d *DTO) { d.OccurredAt = d.OccurredAt.Add(time.Second) },
		"payment method": func(d *DTO) { d.PaymentMethod = entity.PaymentCash },
	}

	for name, mutate := range mutations {
		d := sampleDTO()
		mutate(d)
		assert.NotEqual(t, base, Fingerprint(d), "mutated %s", name)
	}
}

func TestFingerprint_SubsecondTimestampsDiffer(t *testing.T) {
	a := sampleDTO()
	b := sampleDTO()
	b.OccurredAt = b.OccurredAt.Add(100 * time.Millisecond)

	// File-mtime timestamps carry nanosecond precision; two purchases that
	// close together are still distinct purchases.
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_RandomizedFieldDifferences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	mutations := []func(*DTO){
		func(d *DTO) { d.Customer.TaxID = fmt.Sprintf("%011d", rng.Int63n(99999999999)) },
		func(d *DTO) { d.Customer.Email = fmt.Sprintf("user%d@example.com", rng.Int()) },
		func(d *DTO) { d.Product.Name = fmt.Sprintf("%s-%d", d.Product.Name, rng.Int()) },
		func(d *DTO) { d.Quantity += 1 + rng.Intn(50) },
		func(d *DTO) { d.UnitPrice = d.UnitPrice.Add(decimal.New(int64(1+rng.Intn(9999)), -2)) },
		func(d *DTO) { d.TotalPrice = d.TotalPrice.Add(decimal.New(int64(1+rng.Intn(9999)), -2)) },
		func(d *DTO) { d.OccurredAt = d.OccurredAt.Add(time.Duration(1+rng.Intn(1_000_000_000))) },
		func(d *DTO) { d.PaymentMethod = entity.PaymentCash },
	}

	for i := 0; i < 200; i++ {
		a := sampleDTO()
		a.Quantity = 1 + rng.Intn(100)
		a.UnitPrice = decimal.New(int64(1+rng.Intn(100000)), -2)
		a.TotalPrice = a.UnitPrice.Mul(decimal.NewFromInt(int64(a.Quantity)))
		a.OccurredAt = a.OccurredAt.Add(time.Duration(rng.Int63n(int64(24 * time.Hour))))

		b := *a
		mutations[rng.Intn(len(mutations))](&b)

		// Each mutation changes one canonical field by a nonzero amount.
		require.NotEqual(t, Canonical(a), Canonical(&b), "sample %d", i)
		assert.NotEqual(t, Fingerprint(a), Fingerprint(&b), "sample %d", i)
	}
}

func TestFingerprint_IgnoresNonCanonicalFields(t *testing.T) {
	a := sampleDTO()
	b := sampleDTO()
	b.Customer.Phone = "11999990001"
	b.Customer.Address = "Rua A, 10"
	b.Customer.Name = "A. Souza"

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestCanonical_FieldOrderAndPadding(t *testing.T) {
	d := sampleDTO()
	d.Customer.Email = ""

	// A missing optional field keeps its position as an empty segment.
	want := "12345678909||Teclado|2|150.00|300.00|2026-08-01T10:30:00Z|PIX"
	assert.Equal(t, want, Canonical(d))
}

func TestWithFingerprint_AttachesKey(t *testing.T) {
	d := sampleDTO()
	key := WithFingerprint(d)

	require.NotEmpty(t, key)
	assert.Equal(t, key, d.IdempotencyKey)
	assert.Equal(t, Fingerprint(d), key)
}
