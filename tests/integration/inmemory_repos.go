package integration

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"tokenpay/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// memDB is the shared state behind the in-memory repos. Row-level FOR UPDATE
// locking is emulated with a single lock mutex held from the first ForUpdate
// read until the transaction commits or rolls back, so read-modify-write
// sequences are serialised the way they would be against real PostgreSQL.
type memDB struct {
	mu       sync.RWMutex
	wallets  map[uuid.UUID]*domain.TokenWallet
	byUser   map[uuid.UUID]uuid.UUID
	ledger   []domain.WalletTransaction
	payments map[uuid.UUID]*domain.Payment
	byDigest map[string]uuid.UUID

	lockMu sync.Mutex
}

func newMemDB() *memDB {
	return &memDB{
		wallets:  make(map[uuid.UUID]*domain.TokenWallet),
		byUser:   make(map[uuid.UUID]uuid.UUID),
		payments: make(map[uuid.UUID]*domain.Payment),
		byDigest: make(map[string]uuid.UUID),
	}
}

// --- In-Memory Transactor ---

type memTransactor struct {
	db *memDB
}

func newMemTransactor(db *memDB) *memTransactor {
	return &memTransactor{db: db}
}

func (t *memTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &memTx{db: t.db}, nil
}

// memTx implements pgx.Tx over memDB. lockRows is idempotent per transaction;
// the lock is released exactly once, by whichever of Commit or Rollback runs
// first.
type memTx struct {
	db   *memDB
	held bool
}

func (t *memTx) lockRows() {
	if !t.held {
		t.db.lockMu.Lock()
		t.held = true
	}
}

func (t *memTx) release() {
	if t.held {
		t.held = false
		t.db.lockMu.Unlock()
	}
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.release(); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.release(); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	db *memDB
}

func newInMemoryWalletRepo(db *memDB) *inMemoryWalletRepo {
	return &inMemoryWalletRepo{db: db}
}

// Insert is insert-or-ignore keyed on user id, matching the ON CONFLICT
// DO NOTHING semantics of the real repo.
func (r *inMemoryWalletRepo) Insert(ctx context.Context, w *domain.TokenWallet) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, exists := r.db.byUser[w.UserID]; exists {
		return nil
	}
	cp := *w
	r.db.wallets[w.ID] = &cp
	r.db.byUser[w.UserID] = w.ID
	return nil
}

func (r *inMemoryWalletRepo) InsertTx(ctx context.Context, tx pgx.Tx, w *domain.TokenWallet) error {
	return r.Insert(ctx, w)
}

func (r *inMemoryWalletRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.TokenWallet, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	id, ok := r.db.byUser[userID]
	if !ok {
		return nil, nil
	}
	cp := *r.db.wallets[id]
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByUserIDForUpdate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.TokenWallet, error) {
	if mt, ok := tx.(*memTx); ok {
		mt.lockRows()
	}
	return r.GetByUserID(ctx, userID)
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, balance decimal.Decimal) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	w, ok := r.db.wallets[walletID]
	if !ok {
		return pgx.ErrNoRows
	}
	w.Balance = balance
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Ledger Repo ---

type inMemoryLedgerRepo struct {
	db *memDB
}

func newInMemoryLedgerRepo(db *memDB) *inMemoryLedgerRepo {
	return &inMemoryLedgerRepo{db: db}
}

func (r *inMemoryLedgerRepo) Append(ctx context.Context, tx pgx.Tx, txn *domain.WalletTransaction) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.ledger = append(r.db.ledger, *txn)
	return nil
}

func (r *inMemoryLedgerRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.WalletTransaction, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var result []domain.WalletTransaction
	for i := len(r.db.ledger) - 1; i >= 0; i-- {
		if r.db.ledger[i].WalletID == walletID {
			result = append(result, r.db.ledger[i])
		}
	}
	// Newest first; ties keep reverse insertion order.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// --- In-Memory Payment Repo ---

type inMemoryPaymentRepo struct {
	db *memDB
}

func newInMemoryPaymentRepo(db *memDB) *inMemoryPaymentRepo {
	return &inMemoryPaymentRepo{db: db}
}

func (r *inMemoryPaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *p
	r.db.payments[p.ID] = &cp
	r.db.byDigest[p.QRDigest] = p.ID
	return nil
}

func (r *inMemoryPaymentRepo) GetByDigest(ctx context.Context, digest string) (*domain.Payment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	id, ok := r.db.byDigest[digest]
	if !ok {
		return nil, nil
	}
	cp := *r.db.payments[id]
	return &cp, nil
}

// MarkCompleted mirrors the conditional UPDATE of the real repo: only a
// PENDING payment transitions, and exactly one caller observes true.
func (r *inMemoryPaymentRepo) MarkCompleted(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payments[id]
	if !ok || p.Status != domain.PaymentStatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	p.Status = domain.PaymentStatusCompleted
	p.CompletedAt = &now
	return true, nil
}

func (r *inMemoryPaymentRepo) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.payments[id]
	if !ok || p.Status != domain.PaymentStatusPending {
		return false, nil
	}
	p.Status = domain.PaymentStatusFailed
	return true, nil
}

// --- Stub Gateway ---

// stubGateway answers status polls with a configurable verdict and counts
// outbound calls, so tests can assert the cache absorbs repeat polling.
type stubGateway struct {
	status     atomic.Value // domain.GatewayStatus
	shortLink  string
	checkCalls atomic.Int64
}

func newStubGateway(shortLink string) *stubGateway {
	g := &stubGateway{shortLink: shortLink}
	g.status.Store(domain.GatewayStatusUnpaid)
	return g
}

func (g *stubGateway) setStatus(s domain.GatewayStatus) {
	g.status.Store(s)
}

func (g *stubGateway) GenerateDeeplink(ctx context.Context, qr string) (string, error) {
	return g.shortLink, nil
}

func (g *stubGateway) CheckPayment(ctx context.Context, md5 string) (domain.GatewayStatus, error) {
	g.checkCalls.Add(1)
	return g.status.Load().(domain.GatewayStatus), nil
}
