package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of token movement.
type TransactionType string

const (
	TransactionTypePurchase TransactionType = "PURCHASE"
	TransactionTypeSpend    TransactionType = "SPEND"
	TransactionTypeRefund   TransactionType = "REFUND"
	TransactionTypeGift     TransactionType = "GIFT"
	TransactionTypeBonus    TransactionType = "BONUS"
)

// IsCredit reports whether the type adds tokens to a wallet.
func (t TransactionType) IsCredit() bool {
	return t != TransactionTypeSpend
}

// WalletTransaction is an immutable, append-only ledger row. Amount is signed
// (negative for SPEND); BalanceAfter snapshots the wallet balance immediately
// after the row was appended, so the running sum of Amounts always equals the
// current balance.
type WalletTransaction struct {
	ID           uuid.UUID       `json:"id"`
	WalletID     uuid.UUID       `json:"wallet_id"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Description  string          `json:"description"`
	PaymentID    *uuid.UUID      `json:"payment_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
