package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/api/middleware"
	"github.com/bazaarhub/marketplace-api/internal/domain"
	"github.com/bazaarhub/marketplace-api/internal/service"
)

// UpdateOrderStatusRequest represents the status-update payload
type UpdateOrderStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

// HandleCreateOrder handles POST /v1/orders
func HandleCreateOrder(orders *service.OrderService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		order, err := orders.CreateFromCart(c.Request.Context(), userID, role, req)
		if err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"order": toOrderResponse(order)})
	}
}

// HandleCreateB2BOrder handles POST /v1/b2b-orders
func HandleCreateB2BOrder(orders *service.OrderService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req service.CreateB2BOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		order, err := orders.CreateB2B(c.Request.Context(), userID, req)
		if err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"order": toOrderResponse(order)})
	}
}

// HandleGetOrder handles GET /v1/orders/:id
func HandleGetOrder(orders *service.OrderService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		order, err := orders.GetForUser(c.Request.Context(), userID, role, orderID)
		if err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(order)})
	}
}

// HandleListOrders handles GET /v1/orders
func HandleListOrders(orders *service.OrderService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit, offset := parsePaging(c)
		list, err := orders.ListForCustomer(c.Request.Context(), userID, limit, offset)
		if err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		respondOrderList(c, list, limit, offset)
	}
}

// HandleListSellerOrders handles GET /v1/seller/orders
func HandleListSellerOrders(orders *service.OrderService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		limit, offset := parsePaging(c)
		list, err := orders.ListForSeller(c.Request.Context(), userID, limit, offset)
		if err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		respondOrderList(c, list, limit, offset)
	}
}

// HandleUpdateOrderStatus handles PUT /v1/orders/:id/status
func HandleUpdateOrderStatus(orders *service.OrderService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		order, err := orders.UpdateStatus(c.Request.Context(), userID, role, orderID, req.Status)
		if err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(order)})
	}
}

// HandleCancelOrder handles PUT /v1/orders/:id/cancel
func HandleCancelOrder(orders *service.OrderService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		order, err := orders.CancelOrder(c.Request.Context(), userID, orderID)
		if err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"order": toOrderResponse(order)})
	}
}

func parsePaging(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 50
	}

	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	return limit, offset
}

func respondOrderList(c *gin.Context, list []*domain.Order, limit, offset int) {
	responses := make([]OrderResponse, len(list))
	for i, order := range list {
		responses[i] = toOrderResponse(order)
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": responses,
		"limit":  limit,
		"offset": offset,
	})
}
