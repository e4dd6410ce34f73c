package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/api/middleware"
	"github.com/bazaarhub/marketplace-api/internal/service"
)

// AddCartItemRequest represents the add-to-cart payload
type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// SetCartQuantityRequest represents the set-quantity payload; zero removes
// the line
type SetCartQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// HandleGetCart handles GET /v1/cart
func HandleGetCart(carts *service.CartService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		view, err := carts.Read(c.Request.Context(), userID)
		if err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

// HandleAddCartItem handles POST /v1/cart/items
func HandleAddCartItem(carts *service.CartService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req AddCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		if err := carts.AddItem(c.Request.Context(), userID, role, req.ProductID, req.Quantity); err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		view, err := carts.Read(c.Request.Context(), userID)
		if err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

// HandleSetCartQuantity handles PUT /v1/cart/items/:productId
func HandleSetCartQuantity(carts *service.CartService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		productID, err := uuid.Parse(c.Param("productId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		var req SetCartQuantityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": err.Error(),
			})
			return
		}

		if err := carts.SetQuantity(c.Request.Context(), userID, role, productID, *req.Quantity); err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		view, err := carts.Read(c.Request.Context(), userID)
		if err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

// HandleRemoveCartItem handles DELETE /v1/cart/items/:productId
func HandleRemoveCartItem(carts *service.CartService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		productID, err := uuid.Parse(c.Param("productId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
			return
		}

		if err := carts.RemoveItem(c.Request.Context(), userID, productID); err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// HandleClearCart handles DELETE /v1/cart
func HandleClearCart(carts *service.CartService, logger *zap.Logger, devMode bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if err := carts.Clear(c.Request.Context(), userID); err != nil {
			respondError(c, logger, devMode, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}
