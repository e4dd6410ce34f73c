package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/api/handlers"
	"github.com/bazaarhub/marketplace-api/internal/api/middleware"
	"github.com/bazaarhub/marketplace-api/internal/config"
	"github.com/bazaarhub/marketplace-api/internal/domain"
	"github.com/bazaarhub/marketplace-api/internal/service"
)

// Services groups the workflow services the router exposes
type Services struct {
	Cart    *service.CartService
	Order   *service.OrderService
	Payment *service.PaymentService
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, services *Services, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	devMode := cfg.Environment != "production"

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	v1.Use(middleware.Auth(cfg.JWT.Secret, logger))
	{
		// Cart routes (buyers only)
		cart := v1.Group("/cart")
		cart.Use(middleware.RequireRole(domain.RoleCustomer, domain.RoleRetailer))
		{
			cart.GET("", handlers.HandleGetCart(services.Cart, logger, devMode))
			cart.POST("/items", handlers.HandleAddCartItem(services.Cart, logger, devMode))
			cart.PUT("/items/:productId", handlers.HandleSetCartQuantity(services.Cart, logger, devMode))
			cart.DELETE("/items/:productId", handlers.HandleRemoveCartItem(services.Cart, logger, devMode))
			cart.DELETE("", handlers.HandleClearCart(services.Cart, logger, devMode))
		}

		// Order routes
		v1.POST("/orders",
			middleware.RequireRole(domain.RoleCustomer, domain.RoleRetailer),
			handlers.HandleCreateOrder(services.Order, logger, devMode))
		v1.POST("/b2b-orders",
			middleware.RequireRole(domain.RoleRetailer),
			handlers.HandleCreateB2BOrder(services.Order, logger, devMode))
		v1.GET("/orders", handlers.HandleListOrders(services.Order, logger, devMode))
		v1.GET("/orders/:id", handlers.HandleGetOrder(services.Order, logger, devMode))
		v1.PUT("/orders/:id/status",
			middleware.RequireRole(domain.RoleRetailer, domain.RoleWholesaler, domain.RoleAdmin),
			handlers.HandleUpdateOrderStatus(services.Order, logger, devMode))
		v1.PUT("/orders/:id/cancel", handlers.HandleCancelOrder(services.Order, logger, devMode))
		v1.GET("/seller/orders",
			middleware.RequireRole(domain.RoleRetailer, domain.RoleWholesaler, domain.RoleAdmin),
			handlers.HandleListSellerOrders(services.Order, logger, devMode))

		// Payment routes
		v1.POST("/payment/order", handlers.HandleCreatePaymentOrder(services.Payment, logger, devMode))
		v1.POST("/payment/verify", handlers.HandleVerifyPayment(services.Payment, logger, devMode))
	}

	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
