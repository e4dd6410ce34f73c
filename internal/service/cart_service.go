package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/domain"
	"github.com/bazaarhub/marketplace-api/internal/repository"
	"github.com/bazaarhub/marketplace-api/pkg/errors"
)

// CartService owns the per-customer cart and its revalidation against
// current stock
type CartService struct {
	repos  *repository.Repositories
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(repos *repository.Repositories, logger *zap.Logger) *CartService {
	return &CartService{
		repos:  repos,
		logger: logger,
	}
}

// Read returns the customer's cart, revalidating every line against the
// current catalog. Lines whose product disappeared or sold out are dropped;
// lines exceeding available stock are clamped down. Adjustments are persisted
// before returning so subsequent reads are stable, and each one is reported
// as a warning.
func (s *CartService) Read(ctx context.Context, customerID uuid.UUID) (*CartView, error) {
	cart, err := s.repos.Cart.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		CartID:     cart.ID,
		TotalPrice: decimal.Zero,
	}

	for _, item := range cart.Items {
		product, err := s.repos.Product.GetByID(ctx, item.ProductID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				if err := s.repos.Cart.DeleteItem(ctx, cart.ID, item.ProductID); err != nil {
					return nil, err
				}
				view.Warnings = append(view.Warnings, CartWarning{
					ProductID: item.ProductID,
					Message:   "removed from cart: product is no longer available",
				})
				continue
			}
			return nil, err
		}

		if product.QuantityOnHand == 0 {
			if err := s.repos.Cart.DeleteItem(ctx, cart.ID, item.ProductID); err != nil {
				return nil, err
			}
			view.Warnings = append(view.Warnings, CartWarning{
				ProductID:   item.ProductID,
				ProductName: product.Name,
				Message:     "removed from cart: product is out of stock",
			})
			continue
		}

		if item.Quantity > product.QuantityOnHand {
			item.Quantity = product.QuantityOnHand
			if err := s.repos.Cart.UpsertItem(ctx, &item); err != nil {
				return nil, err
			}
			adjusted := item.Quantity
			view.Warnings = append(view.Warnings, CartWarning{
				ProductID:        item.ProductID,
				ProductName:      product.Name,
				Message:          "quantity reduced to available stock",
				AdjustedQuantity: &adjusted,
			})
		}

		lineTotal := item.CapturedUnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Lines = append(view.Lines, CartLine{
			ProductID:      item.ProductID,
			ProductName:    product.Name,
			Quantity:       item.Quantity,
			UnitPrice:      item.CapturedUnitPrice,
			LineTotal:      lineTotal,
			QuantityOnHand: product.QuantityOnHand,
		})
		view.TotalItemCount += item.Quantity
		view.TotalPrice = view.TotalPrice.Add(lineTotal)
	}

	return view, nil
}

// AddItem puts a product in the cart. An existing line for the same product
// is merged: its quantity grows and its captured price is overwritten with
// the freshly resolved price for the merged quantity.
func (s *CartService) AddItem(ctx context.Context, customerID uuid.UUID, buyerRole domain.Role, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return &errors.ErrValidation{Message: "quantity must be at least 1"}
	}

	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	cart, err := s.repos.Cart.GetByCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	newQuantity := quantity
	var existing *domain.CartItem
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			existing = &cart.Items[i]
			newQuantity += existing.Quantity
			break
		}
	}

	if newQuantity > product.QuantityOnHand {
		return &errors.ErrInsufficientStock{
			ProductName: product.Name,
			Available:   product.QuantityOnHand,
			Requested:   newQuantity,
		}
	}

	price, err := s.resolvePrice(ctx, product, newQuantity, buyerRole)
	if err != nil {
		return err
	}

	item := &domain.CartItem{
		CartID:            cart.ID,
		ProductID:         productID,
		Quantity:          newQuantity,
		CapturedUnitPrice: price,
	}
	if existing != nil {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
	}

	return s.repos.Cart.UpsertItem(ctx, item)
}

// SetQuantity replaces a line's quantity. Zero removes the line; any other
// value revalidates stock and re-resolves the captured price.
func (s *CartService) SetQuantity(ctx context.Context, customerID uuid.UUID, buyerRole domain.Role, productID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return &errors.ErrValidation{Message: "quantity must not be negative"}
	}

	cart, err := s.repos.Cart.GetByCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	var existing *domain.CartItem
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			existing = &cart.Items[i]
			break
		}
	}
	if existing == nil {
		return &errors.ErrNotFound{Resource: "cart item", ID: productID.String()}
	}

	if quantity == 0 {
		return s.repos.Cart.DeleteItem(ctx, cart.ID, productID)
	}

	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		return err
	}

	if quantity > product.QuantityOnHand {
		return &errors.ErrInsufficientStock{
			ProductName: product.Name,
			Available:   product.QuantityOnHand,
			Requested:   quantity,
		}
	}

	price, err := s.resolvePrice(ctx, product, quantity, buyerRole)
	if err != nil {
		return err
	}

	existing.Quantity = quantity
	existing.CapturedUnitPrice = price
	return s.repos.Cart.UpsertItem(ctx, existing)
}

// RemoveItem deletes a cart line
func (s *CartService) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) error {
	cart, err := s.repos.Cart.GetByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return s.repos.Cart.DeleteItem(ctx, cart.ID, productID)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, customerID uuid.UUID) error {
	cart, err := s.repos.Cart.GetByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	return s.repos.Cart.Clear(ctx, cart.ID)
}

func (s *CartService) resolvePrice(ctx context.Context, product *domain.Product, quantity int, buyerRole domain.Role) (decimal.Decimal, error) {
	tiers, err := s.repos.Product.ListTiers(ctx, product.ID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.ResolveUnitPrice(product, tiers, quantity, buyerRole), nil
}
