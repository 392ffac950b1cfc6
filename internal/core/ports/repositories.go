package ports

import (
	"context"

	"tokenpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepository defines persistence operations for token wallets.
// Methods accepting pgx.Tx run inside transaction blocks for pessimistic
// locking. Insert is an insert-or-ignore keyed on the user id's unique
// constraint, so concurrent first-access creation cannot produce two rows.
type WalletRepository interface {
	Insert(ctx context.Context, wallet *domain.TokenWallet) error
	InsertTx(ctx context.Context, tx pgx.Tx, wallet *domain.TokenWallet) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.TokenWallet, error)
	GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.TokenWallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error
}

// LedgerRepository defines persistence for the append-only transaction log.
type LedgerRepository interface {
	Append(ctx context.Context, tx pgx.Tx, txn *domain.WalletTransaction) error
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.WalletTransaction, error)
}

// PaymentRepository defines persistence for gateway payment records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByDigest(ctx context.Context, digest string) (*domain.Payment, error)
	// MarkCompleted transitions PENDING -> COMPLETED. Returns false when the
	// payment was already terminal, which makes confirmation exactly-once
	// under concurrent polling.
	MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
	// MarkFailed transitions PENDING -> FAILED with the same conditional
	// update semantics.
	MarkFailed(ctx context.Context, id uuid.UUID) (bool, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
