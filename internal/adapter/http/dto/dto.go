// Package dto defines the JSON request/response shapes of the API.
package dto

import (
	"time"

	"tokenpay/internal/core/domain"

	"github.com/shopspring/decimal"
)

// QRRequest is the request body for building a QR checkout.
// Amount is required for dynamic QRs and forbidden meaning ignored for
// static ones; Tokens is the credit granted when a dynamic QR settles.
type QRRequest struct {
	UserID        string           `json:"user_id" binding:"required,uuid"`
	Static        bool             `json:"static"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      string           `json:"currency" binding:"required,oneof=USD KHR"`
	Tokens        decimal.Decimal  `json:"tokens"`
	BillNumber    string           `json:"bill_number,omitempty" binding:"max=25"`
	StoreLabel    string           `json:"store_label,omitempty" binding:"max=25"`
	TerminalLabel string           `json:"terminal_label,omitempty" binding:"max=25"`
}

// QRResponse is the response body for a built checkout.
type QRResponse struct {
	Payload   string `json:"payload"`
	Digest    string `json:"digest"`
	ShortLink string `json:"short_link,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
}

// PaymentStatusResponse reports the settlement state of a checkout.
type PaymentStatusResponse struct {
	Digest string `json:"digest"`
	Status string `json:"status"`
}

// CreditRequest is the request body for adding tokens to a wallet.
type CreditRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Type        string          `json:"type" binding:"required,oneof=PURCHASE REFUND GIFT BONUS"`
	Description string          `json:"description" binding:"max=255"`
}

// DebitRequest is the request body for spending tokens.
type DebitRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=255"`
}

// WalletResponse is the response for a balance query.
type WalletResponse struct {
	WalletID  string          `json:"wallet_id"`
	UserID    string          `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt string          `json:"updated_at"`
}

// TransactionResponse is one ledger entry in API form.
type TransactionResponse struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Description  string          `json:"description,omitempty"`
	PaymentID    string          `json:"payment_id,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

// FromWallet converts a domain wallet to its API form.
func FromWallet(w *domain.TokenWallet) WalletResponse {
	return WalletResponse{
		WalletID:  w.ID.String(),
		UserID:    w.UserID.String(),
		Balance:   w.Balance,
		UpdatedAt: w.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// FromTransaction converts a domain ledger entry to its API form.
func FromTransaction(t *domain.WalletTransaction) TransactionResponse {
	resp := TransactionResponse{
		ID:           t.ID.String(),
		Type:         string(t.Type),
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		Description:  t.Description,
		CreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.PaymentID != nil {
		resp.PaymentID = t.PaymentID.String()
	}
	return resp
}

// FromTransactions converts a ledger slice, preserving order.
func FromTransactions(txns []domain.WalletTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, FromTransaction(&txns[i]))
	}
	return out
}
