package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	all := []error{
		ErrValidation, ErrUnrecognizedPayload, ErrStorage, ErrLeadNotFound, ErrDuplicateLead,
		ErrInvalidAddress, ErrDeliveryFailed, ErrChallengeNotFound,
		ErrChallengeExpired, ErrCodeMismatch, ErrTooManyAttempts, ErrRateLimited,
	}

	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("insert lead: %w", ErrStorage)
	assert.True(t, errors.Is(wrapped, ErrStorage))
	assert.Contains(t, wrapped.Error(), "storage error")
}
