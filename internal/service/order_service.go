package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/domain"
	"github.com/bazaarhub/marketplace-api/internal/notify"
	"github.com/bazaarhub/marketplace-api/internal/repository"
	"github.com/bazaarhub/marketplace-api/pkg/errors"
)

// Tax and delivery policy. B2C orders above the free-delivery threshold ship
// free; everything else pays the flat fee. B2B mirrors the same shape at
// wholesale scale.
var (
	taxRateB2C = decimal.New(5, -2)  // 5%
	taxRateB2B = decimal.New(18, -2) // 18%

	freeDeliveryAboveB2C = decimal.NewFromInt(500)
	freeDeliveryAboveB2B = decimal.NewFromInt(10000)
	deliveryFeeB2C       = decimal.NewFromInt(50)
	deliveryFeeB2B       = decimal.NewFromInt(500)
)

var (
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
	phonePattern   = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

// OrderService drives order placement, the status state machine, and the
// stock reservation that keeps orders and the ledger consistent
type OrderService struct {
	repos    *repository.Repositories
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(repos *repository.Repositories, notifier notify.Notifier, logger *zap.Logger) *OrderService {
	return &OrderService{
		repos:    repos,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateFromCart places a B2C order from the customer's cart. Non-deferred
// payment methods reserve stock before this returns; online payments leave
// the stock untouched until the gateway confirms (see PaymentService), so an
// abandoned checkout never locks up inventory. The cart is cleared on
// success.
func (s *OrderService) CreateFromCart(ctx context.Context, customerID uuid.UUID, buyerRole domain.Role, req CreateOrderRequest) (*domain.Order, error) {
	if err := validateOrderRequest(req.PaymentMethod, req.DeliveryAddress); err != nil {
		return nil, err
	}

	cart, err := s.repos.Cart.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, &errors.ErrValidation{Message: "cart is empty"}
	}

	var items []domain.OrderItem
	for _, line := range cart.Items {
		item, err := s.buildLine(ctx, line.ProductID, line.Quantity, buyerRole, domain.OrderKindB2C)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	order := s.assemble(customerID, domain.OrderKindB2C, items, req.PaymentMethod, req.DeliveryAddress, req.CustomerNotes)
	if err := s.place(ctx, order); err != nil {
		return nil, err
	}

	if err := s.repos.Cart.Clear(ctx, cart.ID); err != nil {
		// The order stands; an uncleaned cart is an annoyance, not a loss.
		s.logger.Warn("Failed to clear cart after order placement",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	if order.Status == domain.OrderStatusConfirmed {
		s.dispatchNotifications(ctx, order)
	}

	return order, nil
}

// CreateB2B places a wholesale order from an explicit item list. Every item
// must be wholesaler-owned and meet its wholesale minimum quantity.
func (s *OrderService) CreateB2B(ctx context.Context, retailerID uuid.UUID, req CreateB2BOrderRequest) (*domain.Order, error) {
	if err := validateOrderRequest(req.PaymentMethod, req.DeliveryAddress); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, &errors.ErrValidation{Message: "order must contain at least one item"}
	}

	var items []domain.OrderItem
	for _, line := range req.Items {
		if line.Quantity < 1 {
			return nil, &errors.ErrValidation{Message: "item quantity must be at least 1"}
		}
		item, err := s.buildLine(ctx, line.ProductID, line.Quantity, domain.RoleRetailer, domain.OrderKindB2B)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}

	order := s.assemble(retailerID, domain.OrderKindB2B, items, req.PaymentMethod, req.DeliveryAddress, req.CustomerNotes)
	if err := s.place(ctx, order); err != nil {
		return nil, err
	}

	if order.Status == domain.OrderStatusConfirmed {
		s.dispatchNotifications(ctx, order)
	}

	return order, nil
}

// dispatchNotifications looks the buyer up for contact details and fires the
// buyer and seller notifications off the request path.
func (s *OrderService) dispatchNotifications(ctx context.Context, order *domain.Order) {
	buyer, err := s.repos.User.GetByID(ctx, order.CustomerID)
	if err != nil {
		s.logger.Warn("Failed to load buyer for notification",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		buyer = nil
	}
	notify.Dispatch(s.notifier, s.logger, order, buyer)
}

// buildLine loads the product, checks stock and wholesale rules, resolves
// the unit price, and produces one immutable order line.
func (s *OrderService) buildLine(ctx context.Context, productID uuid.UUID, quantity int, buyerRole domain.Role, kind domain.OrderKind) (*domain.OrderItem, error) {
	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if kind == domain.OrderKindB2B {
		if product.SellerRole != domain.RoleWholesaler {
			return nil, &errors.ErrValidation{Message: "b2b orders may only contain wholesale products: " + product.Name}
		}
		if product.WholesaleMinQty != nil && quantity < *product.WholesaleMinQty {
			return nil, &errors.ErrValidation{Message: "quantity below wholesale minimum for " + product.Name}
		}
	}

	if product.QuantityOnHand < quantity {
		return nil, &errors.ErrInsufficientStock{
			ProductName: product.Name,
			Available:   product.QuantityOnHand,
			Requested:   quantity,
		}
	}

	tiers, err := s.repos.Product.ListTiers(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	unitPrice := domain.ResolveUnitPrice(product, tiers, quantity, buyerRole)

	return &domain.OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LineTotal:   unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		SellerID:    product.SellerID,
		SellerRole:  product.SellerRole,
	}, nil
}

func (s *OrderService) assemble(customerID uuid.UUID, kind domain.OrderKind, items []domain.OrderItem, method domain.PaymentMethod, address domain.DeliveryAddress, notes *string) *domain.Order {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal)
	}

	taxRate, freeAbove, flatFee := taxRateB2C, freeDeliveryAboveB2C, deliveryFeeB2C
	if kind == domain.OrderKindB2B {
		taxRate, freeAbove, flatFee = taxRateB2B, freeDeliveryAboveB2B, deliveryFeeB2B
	}

	deliveryFee := flatFee
	if subtotal.GreaterThan(freeAbove) {
		deliveryFee = decimal.Zero
	}

	status := domain.OrderStatusConfirmed
	if method.Deferred() {
		status = domain.OrderStatusPending
	}

	order := &domain.Order{
		CustomerID:      customerID,
		Kind:            kind,
		Items:           items,
		Subtotal:        subtotal,
		Tax:             subtotal.Mul(taxRate).Round(2),
		DeliveryFee:     deliveryFee,
		Discount:        decimal.Zero,
		Status:          status,
		PaymentMethod:   method,
		PaymentStatus:   domain.PaymentStatusPending,
		DeliveryAddress: address,
		CustomerNotes:   notes,
	}
	order.RecomputeTotal()
	return order
}

// place persists the order and, for non-deferred payment methods, reserves
// stock in a single transaction that re-reads every product row. If any
// re-validation fails, the just-created order is deleted again: an order must
// never survive without either reserved stock or a deferred-payment marker.
func (s *OrderService) place(ctx context.Context, order *domain.Order) error {
	if err := s.repos.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		return s.repos.Order.Create(txCtx, order)
	}); err != nil {
		return err
	}

	if order.PaymentMethod.Deferred() {
		return nil
	}

	if err := s.reserveAll(ctx, order); err != nil {
		if delErr := s.repos.Order.Delete(ctx, order.ID); delErr != nil {
			s.logger.Error("Compensating order delete failed",
				zap.String("order_id", order.ID.String()),
				zap.Error(delErr),
			)
		}
		return err
	}

	return nil
}

// reserveAll decrements stock for every line inside one transaction,
// re-fetching each product with a row lock so the check runs against current
// stock rather than what this request saw earlier.
func (s *OrderService) reserveAll(ctx context.Context, order *domain.Order) error {
	return s.repos.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		for _, item := range order.Items {
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
			if order.Kind == domain.OrderKindB2B && product.WholesaleMinQty != nil && item.Quantity < *product.WholesaleMinQty {
				return &errors.ErrValidation{Message: "quantity below wholesale minimum for " + product.Name}
			}
			if err := s.repos.Product.ReserveStock(txCtx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateStatus moves an order through the state machine on behalf of a
// seller or admin. Delivery stamps the timestamp and settles the payment;
// cancellation restores stock when, and only when, it was actually reserved.
func (s *OrderService) UpdateStatus(ctx context.Context, callerID uuid.UUID, callerRole domain.Role, orderID uuid.UUID, newStatus domain.OrderStatus) (*domain.Order, error) {
	if !newStatus.IsValid() {
		return nil, &errors.ErrValidation{Message: "invalid order status"}
	}

	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if callerRole != domain.RoleAdmin && !order.HasSeller(callerID) {
		return nil, &errors.ErrForbidden{Message: "only a seller on this order or an admin may update its status"}
	}

	if !order.Status.CanTransitionTo(newStatus) {
		return nil, &errors.ErrInvalidStateTransition{From: order.Status, To: newStatus}
	}

	switch newStatus {
	case domain.OrderStatusDelivered:
		// Delivery stamps the timestamp and settles the payment together.
		now := time.Now()
		if err := s.repos.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			if err := s.repos.Order.UpdateStatus(txCtx, orderID, newStatus, &now); err != nil {
				return err
			}
			return s.repos.Order.UpdatePayment(txCtx, orderID, domain.PaymentStatusCompleted, nil)
		}); err != nil {
			return nil, err
		}
	case domain.OrderStatusCancelled:
		if err := s.cancel(ctx, order); err != nil {
			return nil, err
		}
	default:
		if err := s.repos.Order.UpdateStatus(ctx, orderID, newStatus, nil); err != nil {
			return nil, err
		}
	}

	return s.repos.Order.GetByID(ctx, orderID)
}

// CancelOrder is the customer-initiated cancel. It refuses shipped and
// delivered orders; sellers can still cancel a shipped order through
// UpdateStatus.
func (s *OrderService) CancelOrder(ctx context.Context, callerID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.CustomerID != callerID {
		return nil, &errors.ErrForbidden{Message: "only the order's customer may cancel it"}
	}

	if order.Status == domain.OrderStatusShipped ||
		order.Status == domain.OrderStatusDelivered ||
		order.Status == domain.OrderStatusCancelled {
		return nil, &errors.ErrInvalidStateTransition{From: order.Status, To: domain.OrderStatusCancelled}
	}

	if err := s.cancel(ctx, order); err != nil {
		return nil, err
	}

	return s.repos.Order.GetByID(ctx, orderID)
}

// cancel flips the order to cancelled, restoring stock only if it was ever
// reserved: cash/card/upi orders reserve at creation, online orders reserve
// at payment completion. An unpaid online order never decremented the ledger,
// so restoring for it would inflate stock out of thin air. The order is
// re-read under a row lock so of two racing cancels only the one that flips
// the status restores stock.
func (s *OrderService) cancel(ctx context.Context, order *domain.Order) error {
	return s.repos.Tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.repos.Order.GetForUpdate(txCtx, order.ID)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(domain.OrderStatusCancelled) {
			return &errors.ErrInvalidStateTransition{From: current.Status, To: domain.OrderStatusCancelled}
		}

		restore := current.PaymentStatus == domain.PaymentStatusCompleted || !current.PaymentMethod.Deferred()
		if restore {
			for _, item := range current.Items {
				if err := s.repos.Product.RestoreStock(txCtx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return s.repos.Order.UpdateStatus(txCtx, current.ID, domain.OrderStatusCancelled, nil)
	})
}

// GetForUser returns one order, visible to its customer, a seller on one of
// its lines, or an admin.
func (s *OrderService) GetForUser(ctx context.Context, callerID uuid.UUID, callerRole domain.Role, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if callerRole != domain.RoleAdmin && order.CustomerID != callerID && !order.HasSeller(callerID) {
		return nil, &errors.ErrForbidden{}
	}

	return order, nil
}

// ListForCustomer returns the caller's own orders, newest first
func (s *OrderService) ListForCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	return s.repos.Order.ListByCustomer(ctx, customerID, limit, offset)
}

// ListForSeller returns orders containing at least one of the seller's items
func (s *OrderService) ListForSeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	return s.repos.Order.ListBySeller(ctx, sellerID, limit, offset)
}

func validateOrderRequest(method domain.PaymentMethod, address domain.DeliveryAddress) error {
	if !method.IsValid() {
		return &errors.ErrValidation{Message: "invalid payment method"}
	}
	return validateDeliveryAddress(address)
}

func validateDeliveryAddress(a domain.DeliveryAddress) error {
	if len(strings.TrimSpace(a.Street)) < 5 {
		return &errors.ErrValidation{Message: "street must be at least 5 characters"}
	}
	if len(strings.TrimSpace(a.City)) < 2 {
		return &errors.ErrValidation{Message: "city is required"}
	}
	if len(strings.TrimSpace(a.State)) < 2 {
		return &errors.ErrValidation{Message: "state is required"}
	}
	if !pincodePattern.MatchString(a.Pincode) {
		return &errors.ErrValidation{Message: "pincode must be 6 digits"}
	}
	if !phonePattern.MatchString(a.Phone) {
		return &errors.ErrValidation{Message: "phone must be 10 digits starting with 6-9"}
	}
	return nil
}
