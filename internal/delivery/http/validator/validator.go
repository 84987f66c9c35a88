// Package validator adapts go-playground/validator to echo's Validator
// interface.
package validator

import (
	playground "github.com/go-playground/validator/v10"
)

type echoValidator struct {
	validate *playground.Validate
}

// New creates an echo-compatible request validator.
func New() *echoValidator {
	return &echoValidator{validate: playground.New()}
}

// Validate implements echo.Validator.
func (v *echoValidator) Validate(i any) error {
	return v.validate.Struct(i)
}
