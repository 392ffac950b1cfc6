package ports

import (
	"context"
	"time"

	"tokenpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GatewayClient talks to the external payment provider. Both calls are
// single-attempt; retry policy belongs to the caller.
type GatewayClient interface {
	// GenerateDeeplink exchanges a QR payload for a short link that opens
	// the payer's banking app. Returns "" when the provider omits one.
	GenerateDeeplink(ctx context.Context, qr string) (string, error)
	// CheckPayment polls the provider by the payload's MD5 digest.
	CheckPayment(ctx context.Context, md5 string) (domain.GatewayStatus, error)
}

// PaymentStatusCache is a short-lived cache absorbing client status polling.
type PaymentStatusCache interface {
	// Get returns the cached status, or "" if absent.
	Get(ctx context.Context, digest string) (domain.PaymentStatus, error)
	Set(ctx context.Context, digest string, status domain.PaymentStatus, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// WalletService is the token wallet ledger's inbound surface.
type WalletService interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*domain.TokenWallet, error)
	GetHistory(ctx context.Context, userID uuid.UUID) ([]domain.WalletTransaction, error)
	Credit(ctx context.Context, req CreditRequest) (*domain.WalletTransaction, error)
	Debit(ctx context.Context, req DebitRequest) (*domain.WalletTransaction, error)
}

// CreditRequest holds validated input for adding tokens.
type CreditRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Type        domain.TransactionType
	Description string
	PaymentID   *uuid.UUID
}

// DebitRequest holds validated input for spending tokens.
type DebitRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	Description string
}

// CheckoutService builds QR checkouts and settles them against the gateway.
type CheckoutService interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	// ConfirmPayment polls the gateway and, on the first PAID observation,
	// transitions the payment to COMPLETED and credits the purchased tokens
	// exactly once.
	ConfirmPayment(ctx context.Context, digest string) (domain.PaymentStatus, error)
	FailPayment(ctx context.Context, digest string) error
}

// CheckoutRequest holds validated input for a QR checkout.
type CheckoutRequest struct {
	UserID        uuid.UUID
	Static        bool
	Amount        *decimal.Decimal
	Currency      string
	Tokens        decimal.Decimal
	BillNumber    string
	StoreLabel    string
	TerminalLabel string
}

// CheckoutResult is the outcome of building a checkout.
type CheckoutResult struct {
	Payload   string
	Digest    string
	ShortLink string
	PaymentID uuid.UUID
}
