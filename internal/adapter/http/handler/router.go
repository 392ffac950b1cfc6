package handler

import (
	"tokenpay/internal/adapter/http/middleware"
	"tokenpay/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	CheckoutSvc    ports.CheckoutService
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// API documentation
	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	paymentHandler := NewPaymentHandler(deps.CheckoutSvc)
	walletHandler := NewWalletHandler(deps.WalletSvc)

	// API v1 routes
	v1 := r.Group("/api/v1")

	v1.POST("/qr", paymentHandler.CreateQR)

	payments := v1.Group("/payments")
	{
		payments.GET("/:md5", paymentHandler.GetStatus)
		payments.POST("/:md5/fail", paymentHandler.Fail)
	}

	wallets := v1.Group("/wallets")
	{
		wallets.GET("/:userID/balance", walletHandler.GetBalance)
		wallets.GET("/:userID/transactions", walletHandler.GetTransactions)
		wallets.POST("/:userID/credit", walletHandler.Credit)
		wallets.POST("/:userID/debit", walletHandler.Debit)
	}

	return r
}
