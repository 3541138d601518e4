package models

import "errors"

// Lead pipeline errors. Callers wrap them with context and match with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrUnrecognizedPayload = errors.New("unrecognized webhook payload")
	ErrStorage             = errors.New("storage error")
	ErrLeadNotFound        = errors.New("lead not found")
	ErrDuplicateLead       = errors.New("lead already exists")
)

// Phone verification errors
var (
	ErrInvalidAddress    = errors.New("invalid phone number")
	ErrDeliveryFailed    = errors.New("verification code delivery failed")
	ErrChallengeNotFound = errors.New("verification code not found")
	ErrChallengeExpired  = errors.New("verification code expired")
	ErrCodeMismatch      = errors.New("verification code does not match")
	ErrTooManyAttempts   = errors.New("too many verification attempts")
	ErrRateLimited       = errors.New("too many verification code requests")
)
