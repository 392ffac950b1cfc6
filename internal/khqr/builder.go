package khqr

import (
	"crypto/md5" //nolint:gosec // digest is a payment reference id, not a security primitive
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 alphabetic code supported by the KHQR profile.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyKHR Currency = "KHR"
)

// numericCode maps a supported currency to its ISO 4217 numeric code.
func (c Currency) numericCode() (string, error) {
	switch c {
	case CurrencyUSD:
		return "840", nil
	case CurrencyKHR:
		return "116", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, c)
	}
}

// Constant field values of the KHQR profile.
const (
	payloadFormatValue = "01"
	initiationStatic   = "11"
	initiationDynamic  = "12"
	mccValue           = "5999"
	countryValue       = "KH"
)

// Options carries everything needed to build one payload. Merchant defaults
// come from configuration owned by the caller; the builder treats them as
// plain inputs.
type Options struct {
	BankAccount  string
	MerchantName string
	MerchantCity string

	// Static selects a reusable QR without an amount. Dynamic QRs (Static
	// false) must carry a positive Amount.
	Static   bool
	Amount   *decimal.Decimal
	Currency Currency

	// Optional additional-data sub-fields (tag 62).
	BillNumber    string
	MobileNumber  string
	StoreLabel    string
	TerminalLabel string

	// Timestamp is embedded as epoch milliseconds under tag 99. The zero
	// value means "now"; tests pass a fixed instant.
	Timestamp time.Time
}

// Build assembles the full payload string in the fixed KHQR tag order and
// closes it with the CRC field. Hashing the result into a payment reference
// id is the caller's concern, see Digest.
func Build(opts Options) (string, error) {
	if !opts.Static && opts.Amount == nil {
		return "", ErrAmountRequired
	}
	if opts.Amount != nil && !opts.Amount.IsPositive() {
		return "", fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	currency, err := opts.Currency.numericCode()
	if err != nil {
		return "", err
	}

	initiation := initiationDynamic
	if opts.Static {
		initiation = initiationStatic
	}

	ts := opts.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	account, err := encode(subTagBankAccount, opts.BankAccount)
	if err != nil {
		return "", err
	}
	epoch, err := encode(subTagEpochMillis, strconv.FormatInt(ts.UnixMilli(), 10))
	if err != nil {
		return "", err
	}

	fields := []struct {
		tag   string
		value string
	}{
		{tagPayloadFormat, payloadFormatValue},
		{tagInitiationMethod, initiation},
		{tagMerchantAccount, account},
		{tagMCC, mccValue},
		{tagCountryCode, countryValue},
		{tagMerchantName, opts.MerchantName},
		{tagMerchantCity, opts.MerchantCity},
		{tagTimestamp, epoch},
	}

	var body string
	for _, f := range fields {
		enc, err := encode(f.tag, f.value)
		if err != nil {
			return "", err
		}
		body += enc
	}

	// Amount is emitted only for dynamic QRs; static payloads never carry tag 54.
	if !opts.Static {
		enc, err := encode(tagAmount, formatAmount(*opts.Amount))
		if err != nil {
			return "", err
		}
		body += enc
	}

	enc, err := encode(tagCurrency, currency)
	if err != nil {
		return "", err
	}
	body += enc

	additional, err := buildAdditionalData(opts)
	if err != nil {
		return "", err
	}
	body += additional

	return body + crcPrefix + Checksum(body), nil
}

// buildAdditionalData assembles the optional tag 62 composite. An empty
// result means no optional sub-field was supplied and the tag is omitted.
func buildAdditionalData(opts Options) (string, error) {
	subs := []struct {
		tag   string
		value string
	}{
		{subTagBillNumber, opts.BillNumber},
		{subTagMobileNumber, opts.MobileNumber},
		{subTagStoreLabel, opts.StoreLabel},
		{subTagTerminalLabel, opts.TerminalLabel},
	}

	var inner string
	for _, s := range subs {
		if s.value == "" {
			continue
		}
		enc, err := encode(s.tag, s.value)
		if err != nil {
			return "", err
		}
		inner += enc
	}
	if inner == "" {
		return "", nil
	}
	return encode(tagAdditionalData, inner)
}

// Digest returns the 32-character lowercase hex MD5 of a payload, used as the
// external payment reference id exchanged with the gateway.
func Digest(payload string) string {
	sum := md5.Sum([]byte(payload)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
