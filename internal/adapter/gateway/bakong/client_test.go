package bakong

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tokenpay/config"
	"tokenpay/internal/core/domain"
	"tokenpay/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) config.BakongConfig {
	return config.BakongConfig{
		APIURL:              url,
		Token:               "test-token",
		Timeout:             5 * time.Second,
		AppName:             "TokenPay",
		AppIconURL:          "https://example.com/icon.png",
		AppDeepLinkCallback: "https://example.com/callback",
	}
}

func TestClient_GenerateDeeplink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/generate_deeplink_by_qr", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req deeplinkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "00020101021229190015john_smith@devb", req.QR)
		assert.Equal(t, "TokenPay", req.SourceInfo.AppName)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"responseCode":0,"responseMessage":"Success","data":{"shortLink":"https://pay.example/abc"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())

	link, err := client.GenerateDeeplink(context.Background(), "00020101021229190015john_smith@devb")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/abc", link)
}

func TestClient_GenerateDeeplink_NoShortLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responseCode":0,"responseMessage":"Success","data":{}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())

	link, err := client.GenerateDeeplink(context.Background(), "qr")
	require.NoError(t, err)
	assert.Empty(t, link)
}

func TestClient_GenerateDeeplink_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responseCode":1,"responseMessage":"Invalid QR","data":{"message":"QR string is malformed"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())

	_, err := client.GenerateDeeplink(context.Background(), "not-a-qr")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GW_001", appErr.Code)
	assert.Equal(t, "QR string is malformed", appErr.Message)
	assert.False(t, appErr.Retryable)
}

func TestClient_GenerateDeeplink_FallbackMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responseCode":5,"responseMessage":"Unauthorized"}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())

	_, err := client.GenerateDeeplink(context.Background(), "qr")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Unauthorized", appErr.Message)
}

func TestClient_CheckPayment_Paid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/check_transaction_by_md5", r.URL.Path)

		var req checkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "7b4b73731194673447891ed24fffcf36", req.MD5)

		_, _ = w.Write([]byte(`{"responseCode":0,"responseMessage":"Success","data":{"hash":"abc"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())

	status, err := client.CheckPayment(context.Background(), "7b4b73731194673447891ed24fffcf36")
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayStatusPaid, status)
}

func TestClient_CheckPayment_NotFoundMeansUnpaid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responseCode":1,"responseMessage":"Transaction could not be found","errorCode":1}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())

	status, err := client.CheckPayment(context.Background(), "0f343b0931126a20f133d67c2b018a3b")
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayStatusUnpaid, status)
}

func TestClient_ServerError_Retryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())

	_, err := client.CheckPayment(context.Background(), "digest")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GW_002", appErr.Code)
	assert.True(t, appErr.Retryable)
	assert.True(t, apperror.IsRetryable(err))
}

func TestClient_TransportError_Retryable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:0")
	failing := &failingHTTPClient{err: errors.New("connection refused")}
	client := NewClientWithHTTP(cfg, failing, zerolog.Nop())

	_, err := client.CheckPayment(context.Background(), "digest")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GW_002", appErr.Code)
	assert.True(t, appErr.Retryable)
}

func TestClient_BadRequest_NotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"responseCode":6,"responseMessage":"Unauthorized token"}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zerolog.Nop())

	_, err := client.CheckPayment(context.Background(), "digest")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "GW_001", appErr.Code)
	assert.False(t, appErr.Retryable)
}

type failingHTTPClient struct {
	err error
}

func (f *failingHTTPClient) Do(*http.Request) (*http.Response, error) {
	return nil, f.err
}
