package observability

import (
	"strings"

	"github.com/agencia-digital/app-leads/internal/logging"
)

// Logger returns the global safe logger instance
func Logger() *logging.SafeLogger {
	return logging.Logger
}

// MaskPhone keeps the country/area prefix and last two digits of a phone
func MaskPhone(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 6 {
		return "****"
	}
	return string(digits[:4]) + strings.Repeat("*", len(digits)-6) + string(digits[len(digits)-2:])
}

// MaskEmail masks the local part of an email address
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "****"
	}
	return email[:1] + "***" + email[at:]
}
