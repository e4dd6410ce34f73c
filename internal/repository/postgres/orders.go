package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/domain"
	"github.com/bazaarhub/marketplace-api/pkg/errors"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, customer_id, kind, subtotal, tax, delivery_fee, discount,
			total_amount, status, payment_method, payment_status, payment_transaction_id,
			gateway_order_id, delivery_address, customer_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	order.RecomputeTotal()

	address, err := json.Marshal(order.DeliveryAddress)
	if err != nil {
		return err
	}

	if _, err := q(ctx, r.db).ExecContext(ctx, query,
		order.ID,
		order.CustomerID,
		order.Kind,
		order.Subtotal,
		order.Tax,
		order.DeliveryFee,
		order.Discount,
		order.TotalAmount,
		order.Status,
		order.PaymentMethod,
		order.PaymentStatus,
		order.PaymentTransactionID,
		order.GatewayOrderID,
		address,
		order.CustomerNotes,
		order.CreatedAt,
		order.UpdatedAt,
	); err != nil {
		r.logger.Error("Failed to create order", zap.Error(err))
		return err
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity,
			unit_price, line_total, seller_id, seller_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}

		if _, err := q(ctx, r.db).ExecContext(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.UnitPrice,
			item.LineTotal,
			item.SellerID,
			item.SellerRole,
			item.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to create order item", zap.Error(err))
			return err
		}
	}

	return nil
}

const orderColumns = `id, customer_id, kind, subtotal, tax, delivery_fee, discount,
	total_amount, status, payment_method, payment_status, payment_transaction_id,
	gateway_order_id, delivery_address, customer_notes, delivered_at, created_at, updated_at`

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *orderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *orderRepository) getOne(ctx context.Context, query string, id uuid.UUID) (*domain.Order, error) {
	row := q(ctx, r.db).QueryRowContext(ctx, query, id)
	order, err := r.scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order", zap.Error(err))
		return nil, err
	}

	items, err := r.listItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *orderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var transactionID, gatewayOrderID, customerNotes sql.NullString
	var deliveredAt sql.NullTime
	var address []byte

	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.Kind,
		&order.Subtotal,
		&order.Tax,
		&order.DeliveryFee,
		&order.Discount,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&transactionID,
		&gatewayOrderID,
		&address,
		&customerNotes,
		&deliveredAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(address, &order.DeliveryAddress); err != nil {
		return nil, err
	}
	if transactionID.Valid {
		order.PaymentTransactionID = &transactionID.String
	}
	if gatewayOrderID.Valid {
		order.GatewayOrderID = &gatewayOrderID.String
	}
	if customerNotes.Valid {
		order.CustomerNotes = &customerNotes.String
	}
	if deliveredAt.Valid {
		order.DeliveredAt = &deliveredAt.Time
	}

	return &order, nil
}

func (r *orderRepository) listItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, quantity, unit_price,
			line_total, seller_id, seller_role, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at
	`

	rows, err := q(ctx, r.db).QueryContext(ctx, query, orderID)
	if err != nil {
		r.logger.Error("Failed to list order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.UnitPrice,
			&item.LineTotal,
			&item.SellerID,
			&item.SellerRole,
			&item.CreatedAt,
		); err != nil {
			r.logger.Error("Failed to scan order item", zap.Error(err))
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// order_items rows go with the order via ON DELETE CASCADE
	query := `DELETE FROM orders WHERE id = $1`

	result, err := q(ctx, r.db).ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete order", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, deliveredAt *time.Time) error {
	query := `
		UPDATE orders
		SET status = $2, delivered_at = COALESCE($3, delivered_at), updated_at = now()
		WHERE id = $1
	`

	result, err := q(ctx, r.db).ExecContext(ctx, query, id, status, deliveredAt)
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

func (r *orderRepository) UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, transactionID *string) error {
	query := `
		UPDATE orders
		SET payment_status = $2, payment_transaction_id = COALESCE($3, payment_transaction_id), updated_at = now()
		WHERE id = $1
	`

	result, err := q(ctx, r.db).ExecContext(ctx, query, id, status, transactionID)
	if err != nil {
		r.logger.Error("Failed to update order payment", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

func (r *orderRepository) SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	query := `
		UPDATE orders
		SET gateway_order_id = $2, updated_at = now()
		WHERE id = $1
	`

	result, err := q(ctx, r.db).ExecContext(ctx, query, id, gatewayOrderID)
	if err != nil {
		r.logger.Error("Failed to set gateway order ID", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}

	return nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.list(ctx, query, customerID, limit, offset)
}

func (r *orderRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE id IN (SELECT DISTINCT order_id FROM order_items WHERE seller_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	return r.list(ctx, query, sellerID, limit, offset)
}

func (r *orderRepository) list(ctx context.Context, query string, id uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, query, id, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			r.logger.Error("Failed to scan order", zap.Error(err))
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		items, err := r.listItems(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}

	return orders, nil
}
