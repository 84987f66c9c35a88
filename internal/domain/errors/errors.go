// Package errors defines the application-level error taxonomy for the
// ingestion and persistence pipeline.
package errors

import (
	"fmt"

	"salesbridge/internal/errors"
)

// ValidationError reports a malformed or missing field in a raw purchase
// record. It is row-level: the watcher logs and skips the record, the
// consumer rejects the message so the broker's redelivery policy applies.
type ValidationError struct {
	Field  string // Dotted path of the offending field, e.g. "customer.name".
	Reason string // Human-readable reason for diagnosis.
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewEmptyFieldError reports a required field that is empty after trimming.
func NewEmptyFieldError(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "must not be empty"}
}

// NewInvalidValueError reports a field whose value could not be decoded.
func NewInvalidValueError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ErrMissingIdentity is returned when a record carries neither a tax ID nor
// an email, leaving no way to deduplicate the customer.
var ErrMissingIdentity = &ValidationError{
	Field:  "customer",
	Reason: "at least one of tax_id or email is required",
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

// StorageError wraps a transaction failure unrelated to the idempotency race.
// It surfaces to the consumer, which nacks the message for redelivery.
type StorageError struct {
	Op  string // The persistence step that failed, e.g. "resolve customer".
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err with the failed operation name.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsStorage reports whether err is (or wraps) a StorageError.
func IsStorage(err error) bool {
	var se *StorageError

	return errors.As(err, &se)
}
