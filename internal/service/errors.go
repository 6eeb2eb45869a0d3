package service

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 99")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrInvalidResetToken = errors.New("reset token is invalid or expired")
	ErrSamePassword      = errors.New("new password must differ from the current one")
)
