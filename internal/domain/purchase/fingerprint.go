package purchase

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// canonicalFields builds the ordered field list the idempotency key is
// derived from. Missing optional fields become empty strings, not omissions:
// position matters. Money is canonicalized to two decimal places so "10.0"
// and "10.00" collapse onto the same key. The timestamp renders as RFC 3339
// with its offset and full sub-second precision; RFC3339Nano drops trailing
// fractional zeros, so whole-second values keep their plain form while
// timestamps that differ below the second still produce distinct keys.
func canonicalFields(d *DTO) []string {
	return []string{
		d.Customer.TaxID,
		d.Customer.Email,
		d.Product.Name,
		strconv.Itoa(d.Quantity),
		d.UnitPrice.StringFixed(2),
		d.TotalPrice.StringFixed(2),
		d.OccurredAt.Format(time.RFC3339Nano),
		d.PaymentMethod.String(),
	}
}

// Canonical returns the pipe-joined canonical text the fingerprint hashes.
func Canonical(d *DTO) string {
	return strings.Join(canonicalFields(d), "|")
}

// Fingerprint derives the stable idempotency key for a canonical DTO:
// SHA-256 over the canonical text, rendered as lowercase hex. Two DTOs with
// byte-identical canonical fields always yield the identical key.
func Fingerprint(d *DTO) string {
	sum := sha256.Sum256([]byte(Canonical(d)))

	return hex.EncodeToString(sum[:])
}

// WithFingerprint derives and attaches the idempotency key, returning it.
func WithFingerprint(d *DTO) string {
	d.IdempotencyKey = Fingerprint(d)

	return d.IdempotencyKey
}
