package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/config"
	"github.com/bazaarhub/marketplace-api/internal/domain"
)

// WebhookNotifier posts order events to the notification service, which owns
// templating and email/SMS delivery.
type WebhookNotifier struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookNotifier creates a notifier posting to the configured endpoint
func NewWebhookNotifier(cfg config.NotifyConfig, logger *zap.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		endpoint: cfg.WebhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type orderEvent struct {
	Event          string             `json:"event"`
	OrderID        string             `json:"order_id"`
	RecipientID    string             `json:"recipient_id"`
	RecipientEmail string             `json:"recipient_email,omitempty"`
	Kind           domain.OrderKind   `json:"kind"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	Items          []orderEventItem   `json:"items"`
	Status         domain.OrderStatus `json:"status"`
}

type orderEventItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

func (n *WebhookNotifier) OrderConfirmed(ctx context.Context, order *domain.Order, buyer *domain.User) error {
	event := orderEvent{
		Event:       "order_confirmed",
		OrderID:     order.ID.String(),
		RecipientID: order.CustomerID.String(),
		Kind:        order.Kind,
		TotalAmount: order.TotalAmount,
		Items:       eventItems(order.Items),
		Status:      order.Status,
	}
	if buyer != nil {
		event.RecipientEmail = buyer.Email
	}
	return n.post(ctx, event)
}

func (n *WebhookNotifier) SellerOrderReceived(ctx context.Context, order *domain.Order, sellerID uuid.UUID, items []domain.OrderItem) error {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return n.post(ctx, orderEvent{
		Event:       "seller_order_received",
		OrderID:     order.ID.String(),
		RecipientID: sellerID.String(),
		Kind:        order.Kind,
		TotalAmount: total,
		Items:       eventItems(items),
		Status:      order.Status,
	})
}

func eventItems(items []domain.OrderItem) []orderEventItem {
	out := make([]orderEventItem, len(items))
	for i, item := range items {
		out[i] = orderEventItem{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal,
		}
	}
	return out
}

func (n *WebhookNotifier) post(ctx context.Context, event orderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notification endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	n.logger.Debug("Notification delivered",
		zap.String("event", event.Event),
		zap.String("order_id", event.OrderID),
		zap.String("recipient_id", event.RecipientID),
	)
	return nil
}
