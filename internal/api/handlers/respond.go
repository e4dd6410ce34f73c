package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/domain"
	"github.com/bazaarhub/marketplace-api/pkg/errors"
)

// respondError maps the error taxonomy onto HTTP statuses. Unexpected errors
// are logged and surfaced as a generic 500; the detail leaks only in
// development mode.
func respondError(c *gin.Context, logger *zap.Logger, devMode bool, err error) {
	switch e := err.(type) {
	case *errors.ErrValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": e.Error()})
	case *errors.ErrInsufficientStock:
		c.JSON(http.StatusBadRequest, gin.H{"error": e.Error()})
	case *errors.ErrSignatureMismatch:
		c.JSON(http.StatusBadRequest, gin.H{"error": e.Error()})
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": e.Error()})
	case *errors.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": e.Error()})
	case *errors.ErrUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": e.Error()})
	case *errors.ErrInvalidStateTransition:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error()})
	default:
		logger.Error("Unexpected error", zap.Error(err))
		if devMode {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// OrderResponse represents the order response
type OrderResponse struct {
	ID                   string                 `json:"id"`
	Kind                 domain.OrderKind       `json:"kind"`
	Status               domain.OrderStatus     `json:"status"`
	Items                []OrderItemResponse    `json:"items"`
	Subtotal             decimal.Decimal        `json:"subtotal"`
	Tax                  decimal.Decimal        `json:"tax"`
	DeliveryFee          decimal.Decimal        `json:"delivery_fee"`
	Discount             decimal.Decimal        `json:"discount"`
	TotalAmount          decimal.Decimal        `json:"total_amount"`
	PaymentMethod        domain.PaymentMethod   `json:"payment_method"`
	PaymentStatus        domain.PaymentStatus   `json:"payment_status"`
	PaymentTransactionID *string                `json:"payment_transaction_id,omitempty"`
	DeliveryAddress      domain.DeliveryAddress `json:"delivery_address"`
	CustomerNotes        *string                `json:"customer_notes,omitempty"`
	DeliveredAt          *string                `json:"delivered_at,omitempty"`
	CreatedAt            string                 `json:"created_at"`
	UpdatedAt            string                 `json:"updated_at"`
}

type OrderItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	SellerID    string          `json:"seller_id"`
	SellerRole  domain.Role     `json:"seller_role"`
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func toOrderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderItemResponse{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
			SellerID:    item.SellerID.String(),
			SellerRole:  item.SellerRole,
		}
	}

	resp := OrderResponse{
		ID:                   order.ID.String(),
		Kind:                 order.Kind,
		Status:               order.Status,
		Items:                items,
		Subtotal:             order.Subtotal,
		Tax:                  order.Tax,
		DeliveryFee:          order.DeliveryFee,
		Discount:             order.Discount,
		TotalAmount:          order.TotalAmount,
		PaymentMethod:        order.PaymentMethod,
		PaymentStatus:        order.PaymentStatus,
		PaymentTransactionID: order.PaymentTransactionID,
		DeliveryAddress:      order.DeliveryAddress,
		CustomerNotes:        order.CustomerNotes,
		CreatedAt:            order.CreatedAt.Format(timeFormat),
		UpdatedAt:            order.UpdatedAt.Format(timeFormat),
	}

	if order.DeliveredAt != nil {
		delivered := order.DeliveredAt.Format(timeFormat)
		resp.DeliveredAt = &delivered
	}

	return resp
}
