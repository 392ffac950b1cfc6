package postgres

import (
	"context"
	"errors"
	"fmt"

	"tokenpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentRepo implements ports.PaymentRepository.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Create inserts a new payment in PENDING state.
func (r *PaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (id, user_id, method, amount, currency, tokens, status, qr_digest, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.UserID, p.Method, p.Amount, p.Currency,
		p.Tokens, p.Status, p.QRDigest, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByDigest fetches a payment by its QR payload digest.
func (r *PaymentRepo) GetByDigest(ctx context.Context, digest string) (*domain.Payment, error) {
	query := `SELECT id, user_id, method, amount, currency, tokens, status, qr_digest, created_at, completed_at
		FROM payments WHERE qr_digest = $1`

	p := &domain.Payment{}
	err := r.pool.QueryRow(ctx, query, digest).Scan(
		&p.ID, &p.UserID, &p.Method, &p.Amount, &p.Currency,
		&p.Tokens, &p.Status, &p.QRDigest, &p.CreatedAt, &p.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by digest: %w", err)
	}
	return p, nil
}

// MarkCompleted flips a payment from PENDING to COMPLETED within a
// transaction. Returns false when the payment was already terminal, which
// lets concurrent confirmations settle exactly once.
func (r *PaymentRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	query := `UPDATE payments SET status = 'COMPLETED', completed_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark payment completed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkFailed flips a payment from PENDING to FAILED. Returns false when the
// payment was already terminal.
func (r *PaymentRepo) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `UPDATE payments SET status = 'FAILED', completed_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("mark payment failed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
