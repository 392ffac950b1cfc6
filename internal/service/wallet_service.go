// Package service holds the business logic between the HTTP handlers and the
// storage/gateway adapters.
package service

import (
	"context"
	"fmt"
	"time"

	"tokenpay/internal/core/domain"
	"tokenpay/internal/core/ports"
	"tokenpay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// WalletServiceImpl implements ports.WalletService with pessimistic locking.
// Every balance mutation runs in one database transaction: lock the wallet
// row FOR UPDATE, mutate, append the ledger entry, commit.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	ledgerRepo ports.LedgerRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		transactor: transactor,
		log:        log,
	}
}

// GetBalance returns the user's wallet, creating a zero-balance one on first
// access. The insert is an insert-or-ignore keyed on user_id, so two
// simultaneous first reads converge on a single row.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, userID uuid.UUID) (*domain.TokenWallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.StorageError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet != nil {
		return wallet, nil
	}

	fresh := domain.NewTokenWallet(userID, time.Now().UTC())
	if err := s.walletRepo.Insert(ctx, fresh); err != nil {
		return nil, apperror.StorageError(fmt.Errorf("create wallet: %w", err))
	}

	// Re-read: a concurrent creator may have won the insert race.
	wallet, err = s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.StorageError(fmt.Errorf("reload wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	s.log.Info().Str("user_id", userID.String()).Msg("wallet created on first access")
	return wallet, nil
}

// GetHistory returns the user's ledger entries, newest first.
func (s *WalletServiceImpl) GetHistory(ctx context.Context, userID uuid.UUID) ([]domain.WalletTransaction, error) {
	wallet, err := s.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	txns, err := s.ledgerRepo.ListByWallet(ctx, wallet.ID)
	if err != nil {
		return nil, apperror.StorageError(fmt.Errorf("list ledger: %w", err))
	}
	return txns, nil
}

// Credit adds tokens to the user's wallet. Runs through the same lock-or-create
// path as Debit so concurrent movements on one wallet serialize on the row lock.
func (s *WalletServiceImpl) Credit(ctx context.Context, req ports.CreditRequest) (*domain.WalletTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("Credit amount must be positive")
	}
	if !req.Type.IsCredit() {
		return nil, apperror.Validation("Invalid credit transaction type")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.StorageError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	txn, err := creditWallet(ctx, dbTx, s.walletRepo, s.ledgerRepo, req)
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.StorageError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("user_id", req.UserID.String()).
		Str("type", string(req.Type)).
		Str("amount", req.Amount.String()).
		Str("balance_after", txn.BalanceAfter.String()).
		Msg("wallet credited")

	return txn, nil
}

// Debit spends tokens from the user's wallet. The balance check happens while
// holding the row lock, so two concurrent debits cannot both pass it.
func (s *WalletServiceImpl) Debit(ctx context.Context, req ports.DebitRequest) (*domain.WalletTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("Debit amount must be positive")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.StorageError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := lockOrCreateWallet(ctx, dbTx, s.walletRepo, req.UserID)
	if err != nil {
		return nil, err
	}

	if !wallet.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	newBalance := wallet.Balance.Sub(req.Amount)
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return nil, apperror.StorageError(fmt.Errorf("update balance: %w", err))
	}

	txn := &domain.WalletTransaction{
		ID:           uuid.New(),
		WalletID:     wallet.ID,
		Type:         domain.TransactionTypeSpend,
		Amount:       req.Amount.Neg(),
		BalanceAfter: newBalance,
		Description:  req.Description,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.ledgerRepo.Append(ctx, dbTx, txn); err != nil {
		return nil, apperror.StorageError(fmt.Errorf("append ledger: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.StorageError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("user_id", req.UserID.String()).
		Str("amount", req.Amount.String()).
		Str("balance_after", newBalance.String()).
		Msg("wallet debited")

	return txn, nil
}

// creditWallet applies a credit inside a caller-owned transaction. Shared by
// Credit and by the checkout confirmation flow, where the token grant must
// commit atomically with the payment's status transition.
func creditWallet(ctx context.Context, dbTx pgx.Tx, walletRepo ports.WalletRepository, ledgerRepo ports.LedgerRepository, req ports.CreditRequest) (*domain.WalletTransaction, error) {
	wallet, err := lockOrCreateWallet(ctx, dbTx, walletRepo, req.UserID)
	if err != nil {
		return nil, err
	}

	newBalance := wallet.Balance.Add(req.Amount)
	if err := walletRepo.UpdateBalance(ctx, dbTx, wallet.ID, newBalance); err != nil {
		return nil, apperror.StorageError(fmt.Errorf("update balance: %w", err))
	}

	txn := &domain.WalletTransaction{
		ID:           uuid.New(),
		WalletID:     wallet.ID,
		Type:         req.Type,
		Amount:       req.Amount,
		BalanceAfter: newBalance,
		Description:  req.Description,
		PaymentID:    req.PaymentID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := ledgerRepo.Append(ctx, dbTx, txn); err != nil {
		return nil, apperror.StorageError(fmt.Errorf("append ledger: %w", err))
	}
	return txn, nil
}

// lockOrCreateWallet acquires the user's wallet row FOR UPDATE, creating the
// row first if it does not exist yet.
func lockOrCreateWallet(ctx context.Context, dbTx pgx.Tx, walletRepo ports.WalletRepository, userID uuid.UUID) (*domain.TokenWallet, error) {
	wallet, err := walletRepo.GetByUserIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.StorageError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet != nil {
		return wallet, nil
	}

	fresh := domain.NewTokenWallet(userID, time.Now().UTC())
	if err := walletRepo.InsertTx(ctx, dbTx, fresh); err != nil {
		return nil, apperror.StorageError(fmt.Errorf("create wallet: %w", err))
	}

	wallet, err = walletRepo.GetByUserIDForUpdate(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.StorageError(fmt.Errorf("lock wallet after create: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}
