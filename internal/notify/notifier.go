package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/domain"
)

// Notifier delivers order events to buyers and sellers. Implementations are
// called fire-and-forget: callers log failures and never propagate them into
// the request that triggered the notification.
type Notifier interface {
	// OrderConfirmed tells the buyer their order is confirmed. buyer may be
	// nil when the account lookup failed; implementations fall back to the
	// customer id.
	OrderConfirmed(ctx context.Context, order *domain.Order, buyer *domain.User) error
	// SellerOrderReceived tells one seller about the lines of an order that
	// belong to them.
	SellerOrderReceived(ctx context.Context, order *domain.Order, sellerID uuid.UUID, items []domain.OrderItem) error
}

// Dispatch notifies the buyer and every distinct seller about an order,
// fire-and-forget. It returns immediately; delivery runs on its own goroutine
// with its own deadline, and failures are logged rather than propagated so a
// broken notification channel can never fail an order or payment response.
func Dispatch(n Notifier, logger *zap.Logger, order *domain.Order, buyer *domain.User) {
	go func() {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("Notification dispatch panicked", zap.Any("panic", p))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := n.OrderConfirmed(ctx, order, buyer); err != nil {
			logger.Warn("Failed to notify buyer",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}

		for _, sellerID := range order.SellerIDs() {
			if err := n.SellerOrderReceived(ctx, order, sellerID, order.ItemsBySeller(sellerID)); err != nil {
				logger.Warn("Failed to notify seller",
					zap.String("order_id", order.ID.String()),
					zap.String("seller_id", sellerID.String()),
					zap.Error(err),
				)
			}
		}
	}()
}

// Nop discards all notifications. Used in development when no webhook
// endpoint is configured, and in tests.
type Nop struct{}

func (Nop) OrderConfirmed(ctx context.Context, order *domain.Order, buyer *domain.User) error {
	return nil
}

func (Nop) SellerOrderReceived(ctx context.Context, order *domain.Order, sellerID uuid.UUID, items []domain.OrderItem) error {
	return nil
}
