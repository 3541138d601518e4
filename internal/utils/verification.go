package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// GenerateVerificationCode returns a numeric code of the given length with
// every digit drawn uniformly from crypto/rand.
func GenerateVerificationCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length: %d", length)
	}

	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for range length {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate verification code: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// RenderVerificationMessage fills the {name}, {code} and {minutes}
// placeholders of a message template
func RenderVerificationMessage(template, name, code string, minutes int) string {
	return strings.NewReplacer(
		"{name}", name,
		"{code}", code,
		"{minutes}", fmt.Sprintf("%d", minutes),
	).Replace(template)
}
