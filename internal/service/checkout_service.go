package service

import (
	"context"
	"fmt"
	"time"

	"tokenpay/config"
	"tokenpay/internal/core/domain"
	"tokenpay/internal/core/ports"
	"tokenpay/internal/khqr"
	"tokenpay/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// statusCacheTTL bounds how long a terminal payment status is served from
// Redis before clients fall through to the database.
const statusCacheTTL = time.Hour

// CheckoutServiceImpl implements ports.CheckoutService. It builds KHQR
// payloads from the merchant profile, records payments, and settles them
// against the gateway.
type CheckoutServiceImpl struct {
	paymentRepo ports.PaymentRepository
	walletRepo  ports.WalletRepository
	ledgerRepo  ports.LedgerRepository
	gateway     ports.GatewayClient
	statusCache ports.PaymentStatusCache
	transactor  ports.DBTransactor
	merchant    config.MerchantConfig
	log         zerolog.Logger
}

// NewCheckoutService creates a new CheckoutServiceImpl.
func NewCheckoutService(
	paymentRepo ports.PaymentRepository,
	walletRepo ports.WalletRepository,
	ledgerRepo ports.LedgerRepository,
	gateway ports.GatewayClient,
	statusCache ports.PaymentStatusCache,
	transactor ports.DBTransactor,
	merchant config.MerchantConfig,
	log zerolog.Logger,
) *CheckoutServiceImpl {
	return &CheckoutServiceImpl{
		paymentRepo: paymentRepo,
		walletRepo:  walletRepo,
		ledgerRepo:  ledgerRepo,
		gateway:     gateway,
		statusCache: statusCache,
		transactor:  transactor,
		merchant:    merchant,
		log:         log,
	}
}

// CreateCheckout builds a QR payload for the configured merchant, persists a
// PENDING payment for dynamic QRs, and asks the gateway for a deeplink. The
// gateway call happens outside any database transaction; a missing deeplink
// degrades the checkout, it does not fail it.
func (s *CheckoutServiceImpl) CreateCheckout(ctx context.Context, req ports.CheckoutRequest) (*ports.CheckoutResult, error) {
	payload, err := khqr.Build(khqr.Options{
		BankAccount:   s.merchant.BankAccount,
		MerchantName:  s.merchant.Name,
		MerchantCity:  s.merchant.City,
		Static:        req.Static,
		Amount:        req.Amount,
		Currency:      khqr.Currency(req.Currency),
		BillNumber:    req.BillNumber,
		MobileNumber:  s.merchant.Phone,
		StoreLabel:    req.StoreLabel,
		TerminalLabel: req.TerminalLabel,
	})
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	digest := khqr.Digest(payload)
	result := &ports.CheckoutResult{
		Payload: payload,
		Digest:  digest,
	}

	// Static QRs are reusable posters: no payment record, nothing to settle.
	if req.Static {
		return result, nil
	}

	if !req.Tokens.IsPositive() {
		return nil, apperror.Validation("Token amount must be positive")
	}

	payment := &domain.Payment{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Method:    domain.PaymentMethodKHQR,
		Amount:    *req.Amount,
		Currency:  req.Currency,
		Tokens:    req.Tokens,
		Status:    domain.PaymentStatusPending,
		QRDigest:  digest,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, apperror.StorageError(fmt.Errorf("create payment: %w", err))
	}
	result.PaymentID = payment.ID

	shortLink, err := s.gateway.GenerateDeeplink(ctx, payload)
	if err != nil {
		s.log.Warn().Err(err).Str("digest", digest).Msg("deeplink generation failed, returning QR only")
	} else {
		result.ShortLink = shortLink
	}

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("digest", digest).
		Str("amount", payment.Amount.String()).
		Str("currency", payment.Currency).
		Msg("checkout created")

	return result, nil
}

// ConfirmPayment polls the gateway for the payment identified by the QR
// digest. The first PAID observation transitions the payment to COMPLETED and
// credits the purchased tokens; both writes share one database transaction,
// and the conditional status update guarantees the credit happens exactly
// once under concurrent confirmation.
func (s *CheckoutServiceImpl) ConfirmPayment(ctx context.Context, digest string) (domain.PaymentStatus, error) {
	// Terminal statuses are cached; a hit skips both DB and gateway.
	if cached, err := s.statusCache.Get(ctx, digest); err != nil {
		s.log.Warn().Err(err).Str("digest", digest).Msg("status cache read failed, falling through")
	} else if cached != "" {
		return cached, nil
	}

	payment, err := s.paymentRepo.GetByDigest(ctx, digest)
	if err != nil {
		return "", apperror.StorageError(fmt.Errorf("get payment: %w", err))
	}
	if payment == nil {
		return "", apperror.ErrNotFound("payment")
	}
	if payment.IsTerminal() {
		s.cacheStatus(ctx, digest, payment.Status)
		return payment.Status, nil
	}

	gwStatus, err := s.gateway.CheckPayment(ctx, digest)
	if err != nil {
		return "", err
	}
	if gwStatus != domain.GatewayStatusPaid {
		return domain.PaymentStatusPending, nil
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return "", apperror.StorageError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	won, err := s.paymentRepo.MarkCompleted(ctx, dbTx, payment.ID)
	if err != nil {
		return "", apperror.StorageError(fmt.Errorf("mark completed: %w", err))
	}
	if !won {
		// A concurrent confirmation got there first; it owns the credit.
		return domain.PaymentStatusCompleted, nil
	}

	if _, err := creditWallet(ctx, dbTx, s.walletRepo, s.ledgerRepo, ports.CreditRequest{
		UserID:      payment.UserID,
		Amount:      payment.Tokens,
		Type:        domain.TransactionTypePurchase,
		Description: fmt.Sprintf("KHQR purchase %s %s", payment.Amount.String(), payment.Currency),
		PaymentID:   &payment.ID,
	}); err != nil {
		return "", err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return "", apperror.StorageError(fmt.Errorf("commit tx: %w", err))
	}

	s.cacheStatus(ctx, digest, domain.PaymentStatusCompleted)

	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("digest", digest).
		Str("tokens", payment.Tokens.String()).
		Msg("payment confirmed and tokens credited")

	return domain.PaymentStatusCompleted, nil
}

// FailPayment abandons a pending payment, e.g. when the payer closed the QR
// screen. Already-terminal payments are left untouched.
func (s *CheckoutServiceImpl) FailPayment(ctx context.Context, digest string) error {
	payment, err := s.paymentRepo.GetByDigest(ctx, digest)
	if err != nil {
		return apperror.StorageError(fmt.Errorf("get payment: %w", err))
	}
	if payment == nil {
		return apperror.ErrNotFound("payment")
	}

	won, err := s.paymentRepo.MarkFailed(ctx, payment.ID)
	if err != nil {
		return apperror.StorageError(fmt.Errorf("mark failed: %w", err))
	}
	if won {
		s.cacheStatus(ctx, digest, domain.PaymentStatusFailed)
		s.log.Info().Str("payment_id", payment.ID.String()).Str("digest", digest).Msg("payment marked failed")
	}
	return nil
}

// cacheStatus stores a terminal status best-effort; cache errors only log.
func (s *CheckoutServiceImpl) cacheStatus(ctx context.Context, digest string, status domain.PaymentStatus) {
	if err := s.statusCache.Set(ctx, digest, status, statusCacheTTL); err != nil {
		s.log.Warn().Err(err).Str("digest", digest).Msg("failed to cache payment status")
	}
}
