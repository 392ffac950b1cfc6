package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TokenWallet holds a user's purchasable AI-usage credit balance. One row per
// user, created lazily on first access; the balance never goes negative.
type TokenWallet struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewTokenWallet returns a zero-balance wallet for a user.
func NewTokenWallet(userID uuid.UUID, now time.Time) *TokenWallet {
	return &TokenWallet{
		ID:        uuid.New(),
		UserID:    userID,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanDebit reports whether the wallet covers the requested amount.
func (w *TokenWallet) CanDebit(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
