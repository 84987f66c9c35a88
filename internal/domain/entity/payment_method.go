package entity

import "strings"

// PaymentMethod enumerates the payment methods a purchase can carry.
type PaymentMethod string

const (
	PaymentPix        PaymentMethod = "PIX"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard  PaymentMethod = "DEBIT_CARD"
	PaymentCash       PaymentMethod = "CASH"
	PaymentInvoice    PaymentMethod = "INVOICE"
	PaymentOther      PaymentMethod = "OTHER"
)

// paymentAliases maps legacy upstream codes to canonical payment methods.
// Batch files produced by the older ingestion stack still carry these.
var paymentAliases = map[string]PaymentMethod{
	"PIX":         PaymentPix,
	"CREDIT_CARD": PaymentCreditCard,
	"CREDITO":     PaymentCreditCard,
	"DEBIT_CARD":  PaymentDebitCard,
	"DEBITO":      PaymentDebitCard,
	"CASH":        PaymentCash,
	"DINHEIRO":    PaymentCash,
	"INVOICE":     PaymentInvoice,
	"BOLETO":      PaymentInvoice,
	"OTHER":       PaymentOther,
	"OUTROS":      PaymentOther,
}

// ParsePaymentMethod normalizes a raw payment method string to its canonical
// enum value. Blank and unrecognized values coerce to PaymentOther, so the
// fingerprint and the stored row always agree on the same canonical text.
func ParsePaymentMethod(raw string) PaymentMethod {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return PaymentOther
	}
	if method, ok := paymentAliases[code]; ok {
		return method
	}

	return PaymentOther
}

// String returns the canonical text form used on the wire and in storage.
func (m PaymentMethod) String() string {
	return string(m)
}
