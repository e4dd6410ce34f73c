package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/api/middleware"
	"github.com/bazaarhub/marketplace-api/internal/service"
)

// CreatePaymentOrderRequest represents the create-payment-order payload
type CreatePaymentOrderRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
}

// HandleCreatePaymentOrder handles POST /v1/payment/order
func HandleCreatePaymentOrder(payments *service.PaymentService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req CreatePaymentOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		resp, err := payments.CreatePaymentOrder(c.Request.Context(), userID, req.OrderID)
		if err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// HandleVerifyPayment handles POST /v1/payment/verify
func HandleVerifyPayment(payments *service.PaymentService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.VerifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		order, err := payments.VerifyAndFinalize(c.Request.Context(), userID, req)
		if err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(order)})
	}
}
