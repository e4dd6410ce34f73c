package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/domain"
	"github.com/bazaarhub/marketplace-api/pkg/errors"
)

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

const productColumns = `id, seller_id, seller_role, name, description, retail_price,
	quantity_on_hand, wholesale_price, wholesale_min_qty, created_at, updated_at`

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

func (r *productRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	return r.scanOne(ctx, query, id)
}

func (r *productRepository) scanOne(ctx context.Context, query string, id uuid.UUID) (*domain.Product, error) {
	var product domain.Product
	var description sql.NullString
	var wholesalePrice decimal.NullDecimal
	var wholesaleMinQty sql.NullInt64

	err := q(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.SellerID,
		&product.SellerRole,
		&product.Name,
		&description,
		&product.RetailPrice,
		&product.QuantityOnHand,
		&wholesalePrice,
		&wholesaleMinQty,
		&product.CreatedAt,
		&product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get product", zap.Error(err))
		return nil, err
	}

	if description.Valid {
		product.Description = description.String
	}
	if wholesalePrice.Valid {
		price := wholesalePrice.Decimal
		product.WholesalePrice = &price
	}
	if wholesaleMinQty.Valid {
		minQty := int(wholesaleMinQty.Int64)
		product.WholesaleMinQty = &minQty
	}

	return &product, nil
}

func (r *productRepository) ListTiers(ctx context.Context, productID uuid.UUID) ([]domain.PriceTier, error) {
	query := `
		SELECT id, product_id, min_quantity, unit_price, created_at
		FROM price_tiers
		WHERE product_id = $1
	`

	rows, err := q(ctx, r.db).QueryContext(ctx, query, productID)
	if err != nil {
		r.logger.Error("Failed to list price tiers", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var tiers []domain.PriceTier
	for rows.Next() {
		var tier domain.PriceTier
		if err := rows.Scan(
			&tier.ID,
			&tier.ProductID,
			&tier.MinQuantity,
			&tier.UnitPrice,
			&tier.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to scan price tier", zap.Error(err))
			return nil, err
		}
		tiers = append(tiers, tier)
	}

	return tiers, rows.Err()
}

// ReserveStock decrements quantity_on_hand if enough stock remains. The
// conditional UPDATE re-reads the current value inside the statement, so of
// two racing reservations one observes the decremented count and fails here
// rather than overselling.
func (r *productRepository) ReserveStock(ctx context.Context, id uuid.UUID, qty int) error {
	query := `
		UPDATE products
		SET quantity_on_hand = quantity_on_hand - $2, updated_at = now()
		WHERE id = $1 AND quantity_on_hand >= $2
	`

	result, err := q(ctx, r.db).ExecContext(ctx, query, id, qty)
	if err != nil {
		r.logger.Error("Failed to reserve stock", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Either the product is gone or the stock ran short; re-read to
		// report which.
		product, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return &errors.ErrInsufficientStock{
			ProductName: product.Name,
			Available:   product.QuantityOnHand,
			Requested:   qty,
		}
	}

	return nil
}

func (r *productRepository) RestoreStock(ctx context.Context, id uuid.UUID, qty int) error {
	query := `
		UPDATE products
		SET quantity_on_hand = quantity_on_hand + $2, updated_at = now()
		WHERE id = $1
	`

	result, err := q(ctx, r.db).ExecContext(ctx, query, id, qty)
	if err != nil {
		r.logger.Error("Failed to restore stock", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}

	return nil
}
