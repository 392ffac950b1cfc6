package postgres

import (
	"context"
	"errors"
	"fmt"

	"tokenpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

const insertWalletQuery = `INSERT INTO token_wallets (id, user_id, balance, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id) DO NOTHING`

// Insert creates a wallet row for a user. A concurrent insert for the same
// user is not an error: the conflict clause makes the statement a no-op and
// the caller re-reads the surviving row.
func (r *WalletRepo) Insert(ctx context.Context, w *domain.TokenWallet) error {
	_, err := r.pool.Exec(ctx, insertWalletQuery,
		w.ID, w.UserID, w.Balance, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// InsertTx is Insert executed on an open transaction, so the subsequent
// locking read observes the row.
func (r *WalletRepo) InsertTx(ctx context.Context, tx pgx.Tx, w *domain.TokenWallet) error {
	_, err := tx.Exec(ctx, insertWalletQuery,
		w.ID, w.UserID, w.Balance, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet tx: %w", err)
	}
	return nil
}

// GetByUserID fetches a wallet by owner (without locking).
func (r *WalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.TokenWallet, error) {
	query := `SELECT id, user_id, balance, created_at, updated_at
		FROM token_wallets WHERE user_id = $1`

	w := &domain.TokenWallet{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by user id: %w", err)
	}
	return w, nil
}

// GetByUserIDForUpdate fetches a wallet by owner with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.TokenWallet, error) {
	query := `SELECT id, user_id, balance, created_at, updated_at
		FROM token_wallets WHERE user_id = $1 FOR UPDATE`

	w := &domain.TokenWallet{}
	err := tx.QueryRow(ctx, query, userID).Scan(
		&w.ID, &w.UserID, &w.Balance, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet for update: %w", err)
	}
	return w, nil
}

// UpdateBalance writes a wallet's new balance within a transaction. The
// caller must hold the row lock taken by GetByUserIDForUpdate.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE token_wallets SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, balance, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}
