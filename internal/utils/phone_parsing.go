package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agencia-digital/app-leads/internal/models"
	"github.com/nyaruka/phonenumbers"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

var (
	phoneShapeRegex = regexp.MustCompile(`^\+?[0-9 ().\-]+$`)
	phoneSeparators = strings.NewReplacer(" ", "", "(", "", ")", "", "-", "", ".", "")
)

// NormalizePhone validates a phone-like destination and returns it as
// digits only (country code included, no "+"). The check is permissive:
// anything shaped like a phone with 10 to 15 digits is accepted, and numbers
// libphonenumber can parse are rewritten to their E.164 digits.
func NormalizePhone(raw, defaultRegion string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !phoneShapeRegex.MatchString(trimmed) {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidAddress, raw)
	}

	cleaned := phoneSeparators.Replace(trimmed)
	digits := strings.TrimPrefix(cleaned, "+")
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits || strings.Contains(digits, "+") {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidAddress, raw)
	}

	region := defaultRegion
	if strings.HasPrefix(cleaned, "+") {
		region = ""
	}
	if num, err := phonenumbers.Parse(cleaned, region); err == nil && phonenumbers.IsValidNumber(num) {
		return strings.TrimPrefix(phonenumbers.Format(num, phonenumbers.E164), "+"), nil
	}

	return digits, nil
}
