package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/domain"
	"github.com/bazaarhub/marketplace-api/internal/notify"
	"github.com/bazaarhub/marketplace-api/internal/repository"
	"github.com/bazaarhub/marketplace-api/pkg/errors"
)

// PaymentGateway is the capability the payment workflow needs from the
// gateway client
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (string, error)
	Refund(ctx context.Context, paymentID string, amount decimal.Decimal) error
	VerifySignature(gatewayOrderID, paymentID, signature string) bool
	KeyID() string
}

// PaymentService verifies gateway confirmations and finalizes online-payment
// orders
type PaymentService struct {
	repos    *repository.Repositories
	gateway  PaymentGateway
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(repos *repository.Repositories, gateway PaymentGateway, notifier notify.Notifier, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		repos:    repos,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
	}
}

// CreatePaymentOrder registers a pending online order with the gateway and
// returns what the storefront needs to open the checkout. Calling it again
// for the same order returns the already-registered gateway order.
func (s *PaymentService) CreatePaymentOrder(ctx context.Context, callerID, orderID uuid.UUID) (*PaymentOrderResponse, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.CustomerID != callerID {
		return nil, &errors.ErrForbidden{Message: "only the order's customer may pay for it"}
	}
	if !order.PaymentMethod.Deferred() {
		return nil, &errors.ErrValidation{Message: "order does not use online payment"}
	}
	if order.PaymentStatus == domain.PaymentStatusCompleted {
		return nil, &errors.ErrValidation{Message: "order is already paid"}
	}

	if order.GatewayOrderID != nil {
		return &PaymentOrderResponse{
			GatewayOrderID: *order.GatewayOrderID,
			KeyID:          s.gateway.KeyID(),
			Amount:         order.TotalAmount,
			Currency:       "INR",
		}, nil
	}

	gatewayOrderID, err := s.gateway.CreateOrder(ctx, order.TotalAmount, "INR", order.ID.String())
	if err != nil {
		return nil, err
	}

	if err := s.repos.Order.SetGatewayOrderID(ctx, order.ID, gatewayOrderID); err != nil {
		return nil, err
	}

	return &PaymentOrderResponse{
		GatewayOrderID: gatewayOrderID,
		KeyID:          s.gateway.KeyID(),
		Amount:         order.TotalAmount,
		Currency:       "INR",
	}, nil
}

// VerifyAndFinalize checks the gateway's signature over the order/payment id
// pair and, on a match, reserves stock and settles the order in a single
// transaction. Stock reservation happens here, not at order creation, for
// online payments: a paid order decrements the ledger exactly once, and an
// abandoned checkout never decrements it at all. If stock ran out between
// checkout and payment, the order is cancelled and the captured payment
// refunded.
func (s *PaymentService) VerifyAndFinalize(ctx context.Context, callerID uuid.UUID, req VerifyPaymentRequest) (*domain.Order, error) {
	if !s.gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		return nil, &errors.ErrSignatureMismatch{}
	}

	order, err := s.repos.Order.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if order.CustomerID != callerID {
		return nil, &errors.ErrForbidden{Message: "only the order's customer may confirm its payment"}
	}
	if order.GatewayOrderID == nil || *order.GatewayOrderID != req.RazorpayOrderID {
		return nil, &errors.ErrValidation{Message: "payment does not belong to this order"}
	}
	if !order.PaymentMethod.Deferred() {
		return nil, &errors.ErrValidation{Message: "order does not use online payment"}
	}

	// A retried callback must not reserve stock a second time.
	if order.PaymentStatus == domain.PaymentStatusCompleted {
		return order, nil
	}

	if !order.Status.CanTransitionTo(domain.OrderStatusConfirmed) {
		return nil, &errors.ErrInvalidStateTransition{From: order.Status, To: domain.OrderStatusConfirmed}
	}

	paymentID := req.RazorpayPaymentID
	var alreadySettled bool
	err = s.repos.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		// Re-read under the row lock: a concurrent retry of the same callback
		// may have settled the order after the check above.
		current, err := s.repos.Order.GetForUpdate(txCtx, order.ID)
		if err != nil {
			return err
		}
		if current.PaymentStatus == domain.PaymentStatusCompleted {
			alreadySettled = true
			return nil
		}
		if !current.Status.CanTransitionTo(domain.OrderStatusConfirmed) {
			return &errors.ErrInvalidStateTransition{From: current.Status, To: domain.OrderStatusConfirmed}
		}

		for _, item := range current.Items {
			product, err := s.repos.Product.GetForUpdate(txCtx, item.ProductID)
			if err != nil {
				return err
			}
			if product.QuantityOnHand < item.Quantity {
				return &errors.ErrInsufficientStock{
					ProductName: product.Name,
					Available:   product.QuantityOnHand,
					Requested:   item.Quantity,
				}
			}
			if err := s.repos.Product.ReserveStock(txCtx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		if err := s.repos.Order.UpdatePayment(txCtx, current.ID, domain.PaymentStatusCompleted, &paymentID); err != nil {
			return err
		}
		return s.repos.Order.UpdateStatus(txCtx, current.ID, domain.OrderStatusConfirmed, nil)
	})

	if err != nil {
		if _, ok := err.(*errors.ErrInsufficientStock); ok {
			s.refundUnfulfillable(ctx, order, paymentID)
		}
		return nil, err
	}

	finalized, err := s.repos.Order.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	// The race loser returns the settled order without re-notifying.
	if alreadySettled {
		return finalized, nil
	}

	buyer, err := s.repos.User.GetByID(ctx, finalized.CustomerID)
	if err != nil {
		s.logger.Warn("Failed to load buyer for notification",
			zap.String("order_id", finalized.ID.String()),
			zap.Error(err),
		)
		buyer = nil
	}
	notify.Dispatch(s.notifier, s.logger, finalized, buyer)

	return finalized, nil
}

// refundUnfulfillable handles a payment that arrived after the stock was
// gone: the order is cancelled, the payment marked refunded, and the actual
// refund requested from the gateway off the request path.
func (s *PaymentService) refundUnfulfillable(ctx context.Context, order *domain.Order, paymentID string) {
	err := s.repos.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repos.Order.UpdatePayment(txCtx, order.ID, domain.PaymentStatusRefunded, &paymentID); err != nil {
			return err
		}
		return s.repos.Order.UpdateStatus(txCtx, order.ID, domain.OrderStatusCancelled, nil)
	})
	if err != nil {
		s.logger.Error("Failed to mark unfulfillable order refunded",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return
	}

	amount := order.TotalAmount
	go func() {
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("Refund dispatch panicked", zap.Any("panic", p))
			}
		}()
		refundCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.gateway.Refund(refundCtx, paymentID, amount); err != nil {
			s.logger.Error("Gateway refund failed; needs manual follow-up",
				zap.String("order_id", order.ID.String()),
				zap.String("payment_id", paymentID),
				zap.Error(err),
			)
		}
	}()
}
