package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tokenpay/config"
	httpHandler "tokenpay/internal/adapter/http/handler"
	redisStorage "tokenpay/internal/adapter/storage/redis"
	"tokenpay/internal/core/ports"
	"tokenpay/internal/service"
	"tokenpay/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack: real HTTP layer, middleware,
// handlers, and services over in-memory repos, a stubbed gateway, and a
// miniredis-backed status cache.

type testApp struct {
	server  *httptest.Server
	redis   *miniredis.Miniredis
	db      *memDB
	gateway *stubGateway
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	statusCache := redisStorage.NewStatusCache(rdb)

	db := newMemDB()
	walletRepo := newInMemoryWalletRepo(db)
	ledgerRepo := newInMemoryLedgerRepo(db)
	paymentRepo := newInMemoryPaymentRepo(db)
	transactor := newMemTransactor(db)
	gateway := newStubGateway("https://pay.example/t/abc123")

	merchant := config.MerchantConfig{
		BankAccount: "john_smith@devb",
		Name:        "John Smith",
		City:        "Phnom Penh",
		Phone:       "85512345678",
	}

	log := logger.New("debug", false)
	walletSvc := service.NewWalletService(walletRepo, ledgerRepo, transactor, log)
	checkoutSvc := service.NewCheckoutService(
		paymentRepo, walletRepo, ledgerRepo, gateway, statusCache, transactor, merchant, log,
	)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		CheckoutSvc:    checkoutSvc,
		HealthCheckers: []ports.HealthChecker{redisStorage.NewHealthCheck(rdb)},
		Logger:         log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server:  server,
		redis:   mr,
		db:      db,
		gateway: gateway,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

func (a *testApp) postJSON(t *testing.T, path, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Post(a.server.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (a *testApp) get(t *testing.T, path string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Get(a.server.URL + path)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]json.RawMessage {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func dataField[T any](t *testing.T, body map[string]json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(body["data"], &out))
	return out
}

func (a *testApp) balance(t *testing.T, userID string) decimal.Decimal {
	t.Helper()
	resp, body := a.get(t, "/api/v1/wallets/"+userID+"/balance")
	require.Equal(t, 200, resp.StatusCode)
	data := dataField[map[string]string](t, body)
	return decimal.RequireFromString(data["balance"])
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)

	var health struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
}

func TestIntegration_CheckoutSettlement(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := "a3bb189e-8bf9-3888-9912-ace4e6543002"

	// Create a dynamic checkout
	resp, body := app.postJSON(t, "/api/v1/qr",
		`{"user_id":"`+userID+`","amount":"5.5","currency":"USD","tokens":"55"}`)
	require.Equal(t, 201, resp.StatusCode)

	qr := dataField[map[string]string](t, body)
	digest := qr["digest"]
	require.Len(t, digest, 32)
	assert.Equal(t, "https://pay.example/t/abc123", qr["short_link"])
	assert.NotEmpty(t, qr["payment_id"])

	// Gateway has not seen the money yet
	resp, body = app.get(t, "/api/v1/payments/"+digest)
	require.Equal(t, 200, resp.StatusCode)
	status := dataField[map[string]string](t, body)
	assert.Equal(t, "PENDING", status["status"])

	// Payer settles through the banking app
	app.gateway.setStatus("PAID")

	resp, body = app.get(t, "/api/v1/payments/"+digest)
	require.Equal(t, 200, resp.StatusCode)
	status = dataField[map[string]string](t, body)
	assert.Equal(t, "COMPLETED", status["status"])

	// Tokens landed in the wallet
	assert.True(t, app.balance(t, userID).Equal(decimal.NewFromInt(55)))

	// Ledger records the purchase against the payment
	resp, body = app.get(t, "/api/v1/wallets/"+userID+"/transactions")
	require.Equal(t, 200, resp.StatusCode)
	txns := dataField[[]map[string]any](t, body)
	require.Len(t, txns, 1)
	assert.Equal(t, "PURCHASE", txns[0]["type"])
	assert.Equal(t, qr["payment_id"], txns[0]["payment_id"])

	// Repeat polling is served from the cache, not the gateway
	callsAfterSettle := app.gateway.checkCalls.Load()
	resp, body = app.get(t, "/api/v1/payments/"+digest)
	require.Equal(t, 200, resp.StatusCode)
	status = dataField[map[string]string](t, body)
	assert.Equal(t, "COMPLETED", status["status"])
	assert.Equal(t, callsAfterSettle, app.gateway.checkCalls.Load())

	// And the balance did not move again
	assert.True(t, app.balance(t, userID).Equal(decimal.NewFromInt(55)))
}

func TestIntegration_StaticQR(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, body := app.postJSON(t, "/api/v1/qr",
		`{"user_id":"a3bb189e-8bf9-3888-9912-ace4e6543002","static":true,"currency":"KHR"}`)
	require.Equal(t, 201, resp.StatusCode)

	qr := dataField[map[string]string](t, body)
	require.Len(t, qr["digest"], 32)
	assert.NotContains(t, qr, "payment_id")

	// No payment record exists for a static QR
	resp, _ = app.get(t, "/api/v1/payments/"+qr["digest"])
	assert.Equal(t, 404, resp.StatusCode)
}

func TestIntegration_WalletCreditDebit(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := "c7f2dd11-3b41-4a05-9d3b-5f8a2a1be901"

	resp, _ := app.postJSON(t, "/api/v1/wallets/"+userID+"/credit",
		`{"amount":"100","type":"BONUS","description":"signup bonus"}`)
	require.Equal(t, 201, resp.StatusCode)

	resp, _ = app.postJSON(t, "/api/v1/wallets/"+userID+"/debit",
		`{"amount":"30","description":"avatar unlock"}`)
	require.Equal(t, 201, resp.StatusCode)

	assert.True(t, app.balance(t, userID).Equal(decimal.NewFromInt(70)))

	// Overdraft is refused and leaves the balance untouched
	resp, body := app.postJSON(t, "/api/v1/wallets/"+userID+"/debit", `{"amount":"100"}`)
	require.Equal(t, 402, resp.StatusCode)
	var errCode string
	require.NoError(t, json.Unmarshal(body["error_code"], &errCode))
	assert.Equal(t, "WAL_001", errCode)
	assert.True(t, app.balance(t, userID).Equal(decimal.NewFromInt(70)))

	// History is newest first: the spend, then the bonus
	resp, body = app.get(t, "/api/v1/wallets/"+userID+"/transactions")
	require.Equal(t, 200, resp.StatusCode)
	txns := dataField[[]map[string]any](t, body)
	require.Len(t, txns, 2)
	assert.Equal(t, "SPEND", txns[0]["type"])
	assert.Equal(t, "-30", txns[0]["amount"])
	assert.Equal(t, "BONUS", txns[1]["type"])
}

func TestIntegration_FailPayment(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userID := "a3bb189e-8bf9-3888-9912-ace4e6543002"

	resp, body := app.postJSON(t, "/api/v1/qr",
		`{"user_id":"`+userID+`","amount":"1200","currency":"KHR","tokens":"3"}`)
	require.Equal(t, 201, resp.StatusCode)
	digest := dataField[map[string]string](t, body)["digest"]

	req, _ := http.NewRequest("POST", app.server.URL+"/api/v1/payments/"+digest+"/fail", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	// Status polls now short-circuit on the terminal state
	callsBefore := app.gateway.checkCalls.Load()
	resp, body = app.get(t, "/api/v1/payments/"+digest)
	require.Equal(t, 200, resp.StatusCode)
	status := dataField[map[string]string](t, body)
	assert.Equal(t, "FAILED", status["status"])
	assert.Equal(t, callsBefore, app.gateway.checkCalls.Load())

	// A failed payment never credits tokens
	assert.True(t, app.balance(t, userID).IsZero())
}

func TestIntegration_Validation(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Unsupported currency
	resp, _ := app.postJSON(t, "/api/v1/qr",
		`{"user_id":"a3bb189e-8bf9-3888-9912-ace4e6543002","amount":"5","currency":"EUR","tokens":"5"}`)
	assert.Equal(t, 400, resp.StatusCode)

	// Dynamic QR without an amount
	resp, _ = app.postJSON(t, "/api/v1/qr",
		`{"user_id":"a3bb189e-8bf9-3888-9912-ace4e6543002","currency":"USD","tokens":"5"}`)
	assert.Equal(t, 400, resp.StatusCode)

	// Digest must be 32 hex characters
	resp, _ = app.get(t, "/api/v1/payments/deadbeef")
	assert.Equal(t, 400, resp.StatusCode)

	// Malformed user id
	resp, _ = app.get(t, "/api/v1/wallets/not-a-uuid/balance")
	assert.Equal(t, 400, resp.StatusCode)
}
