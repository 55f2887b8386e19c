package domain

import "errors"

// Sentinel errors shared by services and handlers. Services wrap these with
// fmt.Errorf("...: %w", err); handlers map them to HTTP statuses with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrResetTokenInvalid  = errors.New("invalid or expired reset token")
	ErrProductNotInCart   = errors.New("product not found in cart")
)
