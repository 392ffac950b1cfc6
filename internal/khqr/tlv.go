// Package khqr builds and verifies KHQR (EMVCo merchant-presented) payment
// payloads. All functions are pure: merchant data is passed in explicitly so
// the codec can be tested against fixed vectors without any surrounding
// service or configuration.
package khqr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// EMVCo tag identifiers used by the KHQR profile.
const (
	tagPayloadFormat    = "00"
	tagInitiationMethod = "01"
	tagMerchantAccount  = "29"
	tagMCC              = "52"
	tagCurrency         = "53"
	tagAmount           = "54"
	tagCountryCode      = "58"
	tagMerchantName     = "59"
	tagMerchantCity     = "60"
	tagAdditionalData   = "62"
	tagCRC              = "63"
	tagTimestamp        = "99"
)

// Sub-tags nested inside composite fields.
const (
	subTagBankAccount   = "00" // inside tag 29
	subTagEpochMillis   = "00" // inside tag 99
	subTagBillNumber    = "01" // inside tag 62
	subTagMobileNumber  = "02" // inside tag 62
	subTagStoreLabel    = "03" // inside tag 62
	subTagTerminalLabel = "07" // inside tag 62
)

// maxValueLen is the largest value a two-digit decimal length field can carry.
const maxValueLen = 99

var (
	// ErrValueTooLong is returned when a field value cannot be represented
	// by the two-digit length prefix. Overflow is a fatal encoding error,
	// never silent truncation.
	ErrValueTooLong = errors.New("khqr: field value exceeds 99 characters")

	// ErrAmountRequired is returned when a dynamic QR is built without an amount.
	ErrAmountRequired = errors.New("Amount required for dynamic QR")

	// ErrInvalidAmount is returned when an amount string is not a valid number.
	ErrInvalidAmount = errors.New("khqr: amount is not a valid number")

	// ErrUnsupportedCurrency is returned for currencies outside the KHQR profile.
	ErrUnsupportedCurrency = errors.New("khqr: unsupported currency")
)

// encode renders one tag-length-value field: tag + zero-padded two-digit
// length + value. Nested fields are built by encoding the inner fields first
// and passing the concatenation as the outer value.
func encode(tag, value string) (string, error) {
	if len(value) > maxValueLen {
		return "", fmt.Errorf("%w: tag %s carries %d characters", ErrValueTooLong, tag, len(value))
	}
	return fmt.Sprintf("%s%02d%s", tag, len(value), value), nil
}

// ParseAmount parses a decimal amount string, rejecting non-numeric input.
func ParseAmount(s string) (decimal.Decimal, error) {
	amt, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return amt, nil
}

// formatAmount renders an amount to at most two decimal places with trailing
// zeros and a trailing decimal point stripped: 5.00 -> "5", 5.50 -> "5.5".
func formatAmount(amt decimal.Decimal) string {
	s := amt.StringFixed(2)
	// Strip trailing zeros, then a dangling decimal point.
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
