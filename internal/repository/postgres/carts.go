package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/domain"
	"github.com/bazaarhub/marketplace-api/pkg/errors"
)

type cartRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *sql.DB, logger *zap.Logger) *cartRepository {
	return &cartRepository{
		db:     db,
		logger: logger,
	}
}

func (r *cartRepository) GetByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	query := `
		SELECT id, customer_id, created_at, updated_at
		FROM carts
		WHERE customer_id = $1
	`

	var cart domain.Cart
	err := q(ctx, r.db).QueryRowContext(ctx, query, customerID).Scan(
		&cart.ID,
		&cart.CustomerID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		// Lazy creation on first access
		return r.create(ctx, customerID)
	}
	if err != nil {
		r.logger.Error("Failed to get cart", zap.Error(err))
		return nil, err
	}

	items, err := r.listItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return &cart, nil
}

func (r *cartRepository) create(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	query := `
		INSERT INTO carts (id, customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`

	now := time.Now()
	cart := &domain.Cart{
		ID:         uuid.New(),
		CustomerID: customerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := q(ctx, r.db).ExecContext(ctx, query,
		cart.ID,
		cart.CustomerID,
		cart.CreatedAt,
		cart.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to create cart", zap.Error(err))
		return nil, err
	}

	return cart, nil
}

func (r *cartRepository) listItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, captured_unit_price, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at
	`

	rows, err := q(ctx, r.db).QueryContext(ctx, query, cartID)
	if err != nil {
		r.logger.Error("Failed to list cart items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID,
			&item.CartID,
			&item.ProductID,
			&item.Quantity,
			&item.CapturedUnitPrice,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan cart item", zap.Error(err))
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// UpsertItem inserts a cart line, or replaces the quantity and captured price
// of the existing line for the same product.
func (r *cartRepository) UpsertItem(ctx context.Context, item *domain.CartItem) error {
	query := `
		INSERT INTO cart_items (id, cart_id, product_id, quantity, captured_unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity,
			captured_unit_price = EXCLUDED.captured_unit_price,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	if _, err := q(ctx, r.db).ExecContext(ctx, query,
		item.ID,
		item.CartID,
		item.ProductID,
		item.Quantity,
		item.CapturedUnitPrice,
		item.CreatedAt,
		item.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to upsert cart item", zap.Error(err))
		return err
	}

	return nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	result, err := q(ctx, r.db).ExecContext(ctx, query, cartID, productID)
	if err != nil {
		r.logger.Error("Failed to delete cart item", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "cart item", ID: productID.String()}
	}

	return nil
}

func (r *cartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1`

	if _, err := q(ctx, r.db).ExecContext(ctx, query, cartID); err != nil {
		r.logger.Error("Failed to clear cart", zap.Error(err))
		return err
	}

	return nil
}
