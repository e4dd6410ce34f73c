package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bazaarhub/marketplace-api/internal/domain"
)

// Transactor runs a function inside a database transaction. The transaction
// is threaded through the context, so any repository call made with the inner
// context joins it. A returned error (or panic) rolls the transaction back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository persists marketplace accounts
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ProductRepository persists catalog items and owns the stock ledger
type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	// GetForUpdate locks the product row for the enclosing transaction so the
	// stock re-validation reads current state, not what the request cached.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	ListTiers(ctx context.Context, productID uuid.UUID) ([]domain.PriceTier, error)
	// ReserveStock decrements quantity_on_hand, failing with
	// ErrInsufficientStock when fewer than qty units remain.
	ReserveStock(ctx context.Context, id uuid.UUID, qty int) error
	// RestoreStock increments quantity_on_hand unconditionally.
	RestoreStock(ctx context.Context, id uuid.UUID, qty int) error
}

// CartRepository persists per-customer carts
type CartRepository interface {
	// GetByCustomer returns the customer's cart with its items, creating an
	// empty cart on first access.
	GetByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error)
	UpsertItem(ctx context.Context, item *domain.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
}

// OrderRepository persists orders and their immutable line items
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// GetForUpdate locks the order row for the enclosing transaction. Status
	// and payment flips re-read through this so a concurrent retry of the same
	// request settles the order exactly once.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	// Delete removes a just-created order whose stock reservation failed
	// (compensating delete).
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, deliveredAt *time.Time) error
	UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, transactionID *string) error
	SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*domain.Order, error)
}

// Repositories aggregates every repository plus the transactor
type Repositories struct {
	User    UserRepository
	Product ProductRepository
	Cart    CartRepository
	Order   OrderRepository
	Tx      Transactor
}
