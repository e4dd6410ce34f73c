package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarhub/marketplace-api/internal/domain"
)

// CreateOrderRequest places a B2C order from the caller's cart
type CreateOrderRequest struct {
	PaymentMethod   domain.PaymentMethod   `json:"payment_method" binding:"required"`
	DeliveryAddress domain.DeliveryAddress `json:"delivery_address" binding:"required"`
	CustomerNotes   *string                `json:"customer_notes,omitempty"`
}

// B2BOrderItem is one explicit line of a wholesale order
type B2BOrderItem struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreateB2BOrderRequest places a wholesale order from an explicit item list
type CreateB2BOrderRequest struct {
	Items           []B2BOrderItem         `json:"items" binding:"required,min=1"`
	PaymentMethod   domain.PaymentMethod   `json:"payment_method" binding:"required"`
	DeliveryAddress domain.DeliveryAddress `json:"delivery_address" binding:"required"`
	CustomerNotes   *string                `json:"customer_notes,omitempty"`
}

// VerifyPaymentRequest carries the gateway's checkout confirmation
type VerifyPaymentRequest struct {
	RazorpayOrderID   string    `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string    `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string    `json:"razorpay_signature" binding:"required"`
	OrderID           uuid.UUID `json:"order_id" binding:"required"`
}

// PaymentOrderResponse is what the storefront needs to open the checkout
type PaymentOrderResponse struct {
	GatewayOrderID string          `json:"gateway_order_id"`
	KeyID          string          `json:"key_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
}

// CartLine is one revalidated cart line with its current product state
type CartLine struct {
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LineTotal      decimal.Decimal `json:"line_total"`
	QuantityOnHand int             `json:"quantity_on_hand"`
}

// CartWarning reports a line the revalidation dropped or adjusted
type CartWarning struct {
	ProductID        uuid.UUID `json:"product_id"`
	ProductName      string    `json:"product_name,omitempty"`
	Message          string    `json:"message"`
	AdjustedQuantity *int      `json:"adjusted_quantity,omitempty"`
}

// CartView is the revalidated cart returned by every cart read
type CartView struct {
	CartID         uuid.UUID       `json:"cart_id"`
	Lines          []CartLine      `json:"lines"`
	Warnings       []CartWarning   `json:"warnings,omitempty"`
	TotalItemCount int             `json:"total_item_count"`
	TotalPrice     decimal.Decimal `json:"total_price"`
}
