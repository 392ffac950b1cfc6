// Package handler wires the HTTP routes to the core services.
package handler

import (
	"tokenpay/internal/adapter/http/dto"
	"tokenpay/internal/core/ports"
	"tokenpay/pkg/apperror"
	"tokenpay/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentHandler handles QR checkout and payment status endpoints.
type PaymentHandler struct {
	checkoutSvc ports.CheckoutService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(checkoutSvc ports.CheckoutService) *PaymentHandler {
	return &PaymentHandler{checkoutSvc: checkoutSvc}
}

// CreateQR handles POST /api/v1/qr.
func (h *PaymentHandler) CreateQR(c *gin.Context) {
	var req dto.QRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.Error(c, apperror.Validation("Invalid user id"))
		return
	}

	result, err := h.checkoutSvc.CreateCheckout(c.Request.Context(), ports.CheckoutRequest{
		UserID:        userID,
		Static:        req.Static,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Tokens:        req.Tokens,
		BillNumber:    req.BillNumber,
		StoreLabel:    req.StoreLabel,
		TerminalLabel: req.TerminalLabel,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.QRResponse{
		Payload:   result.Payload,
		Digest:    result.Digest,
		ShortLink: result.ShortLink,
	}
	if result.PaymentID != uuid.Nil {
		resp.PaymentID = result.PaymentID.String()
	}
	response.Created(c, resp)
}

// GetStatus handles GET /api/v1/payments/:md5. Each call may settle the
// payment: the first poll observing PAID performs the token credit.
func (h *PaymentHandler) GetStatus(c *gin.Context) {
	digest := c.Param("md5")
	if len(digest) != 32 {
		response.Error(c, apperror.Validation("Invalid payment digest"))
		return
	}

	status, err := h.checkoutSvc.ConfirmPayment(c.Request.Context(), digest)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PaymentStatusResponse{
		Digest: digest,
		Status: string(status),
	})
}

// Fail handles POST /api/v1/payments/:md5/fail, abandoning a pending payment.
func (h *PaymentHandler) Fail(c *gin.Context) {
	digest := c.Param("md5")
	if len(digest) != 32 {
		response.Error(c, apperror.Validation("Invalid payment digest"))
		return
	}

	if err := h.checkoutSvc.FailPayment(c.Request.Context(), digest); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.PaymentStatusResponse{
		Digest: digest,
		Status: "FAILED",
	})
}
