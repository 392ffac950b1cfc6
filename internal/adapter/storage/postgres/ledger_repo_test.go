package postgres

import (
	"context"
	"testing"
	"time"

	"tokenpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedgerEntry(walletID uuid.UUID) *domain.WalletTransaction {
	return &domain.WalletTransaction{
		ID:           uuid.New(),
		WalletID:     walletID,
		Type:         domain.TransactionTypePurchase,
		Amount:       decimal.NewFromInt(10),
		BalanceAfter: decimal.NewFromInt(60),
		Description:  "KHQR top-up",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func ledgerColumns() []string {
	return []string{"id", "wallet_id", "type", "amount", "balance_after", "description", "payment_id", "created_at"}
}

func TestLedgerRepo_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	entry := newTestLedgerEntry(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallet_transactions").
		WithArgs(entry.ID, entry.WalletID, entry.Type, entry.Amount,
			entry.BalanceAfter, entry.Description, entry.PaymentID, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Append(context.Background(), tx, entry)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ListByWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	walletID := uuid.New()

	newer := newTestLedgerEntry(walletID)
	older := newTestLedgerEntry(walletID)
	older.Type = domain.TransactionTypeSpend
	older.Amount = decimal.NewFromInt(-5)
	older.BalanceAfter = decimal.NewFromInt(45)
	older.CreatedAt = newer.CreatedAt.Add(-time.Minute)

	rows := pgxmock.NewRows(ledgerColumns()).
		AddRow(newer.ID, newer.WalletID, newer.Type, newer.Amount,
			newer.BalanceAfter, newer.Description, newer.PaymentID, newer.CreatedAt).
		AddRow(older.ID, older.WalletID, older.Type, older.Amount,
			older.BalanceAfter, older.Description, older.PaymentID, older.CreatedAt)

	mock.ExpectQuery("SELECT .+ FROM wallet_transactions WHERE wallet_id .+ ORDER BY created_at DESC").
		WithArgs(walletID).
		WillReturnRows(rows)

	result, err := repo.ListByWallet(context.Background(), walletID)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, newer.ID, result[0].ID)
	assert.Equal(t, older.ID, result[1].ID)
	assert.True(t, result[1].Amount.IsNegative())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ListByWallet_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	walletID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM wallet_transactions").
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows(ledgerColumns()))

	result, err := repo.ListByWallet(context.Background(), walletID)
	require.NoError(t, err)
	assert.Empty(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
