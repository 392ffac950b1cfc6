package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how a payment was initiated.
type PaymentMethod string

const (
	PaymentMethodKHQR PaymentMethod = "KHQR"
)

// PaymentStatus is the lifecycle state of a payment.
// PENDING -> COMPLETED or PENDING -> FAILED; both are terminal.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// GatewayStatus is the provider's answer to a status poll.
type GatewayStatus string

const (
	GatewayStatusPaid   GatewayStatus = "PAID"
	GatewayStatusUnpaid GatewayStatus = "UNPAID"
)

// Payment records one QR checkout exchanged with the external gateway.
// QRDigest is the MD5 of the payload string and doubles as the provider-side
// reference id. Tokens is the credit amount granted on completion.
type Payment struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Method      PaymentMethod   `json:"method"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Tokens      decimal.Decimal `json:"tokens"`
	Status      PaymentStatus   `json:"status"`
	QRDigest    string          `json:"qr_digest"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// IsTerminal returns true if the payment is in a final state.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed
}
