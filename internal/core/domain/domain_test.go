package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewTokenWallet(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC()
	w := NewTokenWallet(userID, now)

	assert.Equal(t, userID, w.UserID)
	assert.True(t, w.Balance.IsZero())
	assert.Equal(t, now, w.CreatedAt)
	assert.NotEqual(t, uuid.Nil, w.ID)
}

func TestTokenWallet_CanDebit(t *testing.T) {
	w := &TokenWallet{Balance: decimal.RequireFromString("10")}

	assert.True(t, w.CanDebit(decimal.RequireFromString("10")))
	assert.True(t, w.CanDebit(decimal.RequireFromString("9.99")))
	assert.False(t, w.CanDebit(decimal.RequireFromString("10.01")))
}

func TestTransactionType_IsCredit(t *testing.T) {
	assert.True(t, TransactionTypePurchase.IsCredit())
	assert.True(t, TransactionTypeRefund.IsCredit())
	assert.True(t, TransactionTypeGift.IsCredit())
	assert.True(t, TransactionTypeBonus.IsCredit())
	assert.False(t, TransactionTypeSpend.IsCredit())
}

func TestPayment_IsTerminal(t *testing.T) {
	p := &Payment{Status: PaymentStatusPending}
	assert.False(t, p.IsTerminal())

	p.Status = PaymentStatusCompleted
	assert.True(t, p.IsTerminal())

	p.Status = PaymentStatusFailed
	assert.True(t, p.IsTerminal())
}
