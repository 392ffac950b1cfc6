// Package bakong implements ports.GatewayClient against the Bakong open API.
package bakong

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"tokenpay/config"
	"tokenpay/internal/core/domain"
	"tokenpay/pkg/apperror"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Bakong open API over HTTPS with a bearer token.
type Client struct {
	cfg        config.BakongConfig
	httpClient HTTPClient
	log        zerolog.Logger
}

// NewClient creates a gateway client. The underlying http.Client carries the
// configured timeout so a stalled gateway cannot hang a request forever.
func NewClient(cfg config.BakongConfig, log zerolog.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// NewClientWithHTTP creates a gateway client with a caller-supplied HTTP
// client. Used in tests.
func NewClientWithHTTP(cfg config.BakongConfig, httpClient HTTPClient, log zerolog.Logger) *Client {
	return &Client{cfg: cfg, httpClient: httpClient, log: log}
}

type sourceInfo struct {
	AppIconURL          string `json:"appIconUrl"`
	AppName             string `json:"appName"`
	AppDeepLinkCallback string `json:"appDeepLinkCallback"`
}

type deeplinkRequest struct {
	QR         string     `json:"qr"`
	SourceInfo sourceInfo `json:"sourceInfo"`
}

type checkRequest struct {
	MD5 string `json:"md5"`
}

type apiResponse struct {
	ResponseCode    int             `json:"responseCode"`
	ResponseMessage string          `json:"responseMessage"`
	ErrorCode       *int            `json:"errorCode"`
	Data            json.RawMessage `json:"data"`
}

type deeplinkData struct {
	ShortLink string `json:"shortLink"`
}

type errorData struct {
	Message string `json:"message"`
}

// GenerateDeeplink requests a payment deeplink for a generated QR payload.
// Returns the short link, or "" when the gateway response carries none.
func (c *Client) GenerateDeeplink(ctx context.Context, qr string) (string, error) {
	body := deeplinkRequest{
		QR: qr,
		SourceInfo: sourceInfo{
			AppIconURL:          c.cfg.AppIconURL,
			AppName:             c.cfg.AppName,
			AppDeepLinkCallback: c.cfg.AppDeepLinkCallback,
		},
	}

	resp, err := c.post(ctx, "/generate_deeplink_by_qr", body)
	if err != nil {
		return "", err
	}

	if resp.ResponseCode != 0 {
		return "", apperror.ErrGatewayRejected(c.bestMessage(resp), nil)
	}

	var data deeplinkData
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return "", apperror.ErrGatewayRejected("Unknown error", err)
		}
	}
	return data.ShortLink, nil
}

// CheckPayment polls the gateway for the settlement state of a QR payload,
// identified by the MD5 digest of the payload string.
func (c *Client) CheckPayment(ctx context.Context, md5 string) (domain.GatewayStatus, error) {
	resp, err := c.post(ctx, "/check_transaction_by_md5", checkRequest{MD5: md5})
	if err != nil {
		return "", err
	}

	// Code 0 means the transaction exists and is settled. Any other code,
	// including "transaction not found", means not paid yet.
	if resp.ResponseCode == 0 {
		return domain.GatewayStatusPaid, nil
	}
	return domain.GatewayStatusUnpaid, nil
}

// post issues one request; there is deliberately no retry here, callers poll.
func (c *Client) post(ctx context.Context, path string, body any) (*apiResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperror.InternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("gateway request failed")
		return nil, apperror.ErrGatewayUnavailable("Payment gateway unreachable", err)
	}
	defer httpResp.Body.Close() //nolint:errcheck

	if httpResp.StatusCode >= http.StatusInternalServerError {
		c.log.Warn().Int("status", httpResp.StatusCode).Str("path", path).Msg("gateway returned server error")
		return nil, apperror.ErrGatewayUnavailable(fmt.Sprintf("Payment gateway returned status %d", httpResp.StatusCode), nil)
	}

	var resp apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, apperror.ErrGatewayRejected("Unknown error", err)
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, apperror.ErrGatewayRejected(c.bestMessage(&resp), nil)
	}
	return &resp, nil
}

// bestMessage picks the most specific error text the gateway gave us.
func (c *Client) bestMessage(resp *apiResponse) string {
	if resp != nil && len(resp.Data) > 0 {
		var data errorData
		if jsonErr := json.Unmarshal(resp.Data, &data); jsonErr == nil && data.Message != "" {
			return data.Message
		}
	}
	if resp != nil && resp.ResponseMessage != "" {
		return resp.ResponseMessage
	}
	return "Unknown error"
}
