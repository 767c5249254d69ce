package model

import "errors"

var (
	// Lifecycle errors
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrExhaustedRetries  = errors.New("exhausted slug allocation retries")
	ErrSlugTaken         = errors.New("slug already taken")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")

	// Payment errors
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentFailed   = errors.New("payment capture failed")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
