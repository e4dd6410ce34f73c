package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents a marketplace account
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Product represents a catalog item owned by a seller. QuantityOnHand is the
// stock ledger: order placement decrements it, cancellation restores it, and
// it must never go negative.
type Product struct {
	ID              uuid.UUID
	SellerID        uuid.UUID
	SellerRole      Role // retailer or wholesaler
	Name            string
	Description     string
	RetailPrice     decimal.Decimal
	QuantityOnHand  int
	WholesalePrice  *decimal.Decimal
	WholesaleMinQty *int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PriceTier is one volume-pricing step for a wholesale product
type PriceTier struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	MinQuantity int
	UnitPrice   decimal.Decimal
	CreatedAt   time.Time
}

// Cart is a customer's mutable collection of pending purchases, created
// lazily on first read
type Cart struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Items      []CartItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CartItem is one cart line; at most one line exists per product
type CartItem struct {
	ID                uuid.UUID
	CartID            uuid.UUID
	ProductID         uuid.UUID
	Quantity          int
	CapturedUnitPrice decimal.Decimal
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// DeliveryAddress is an Indian shipping address
type DeliveryAddress struct {
	Street   string  `json:"street"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	Pincode  string  `json:"pincode"`
	Phone    string  `json:"phone"`
	Landmark *string `json:"landmark,omitempty"`
}

// Order is an immutable record of a placed order; only status and payment
// fields change after creation
type Order struct {
	ID                   uuid.UUID
	CustomerID           uuid.UUID
	Kind                 OrderKind
	Items                []OrderItem
	Subtotal             decimal.Decimal
	Tax                  decimal.Decimal
	DeliveryFee          decimal.Decimal
	Discount             decimal.Decimal
	TotalAmount          decimal.Decimal
	Status               OrderStatus
	PaymentMethod        PaymentMethod
	PaymentStatus        PaymentStatus
	PaymentTransactionID *string
	GatewayOrderID       *string
	DeliveryAddress      DeliveryAddress
	CustomerNotes        *string
	DeliveredAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// RecomputeTotal derives TotalAmount from the other money fields. Every
// persist goes through this so the stored total can never drift.
func (o *Order) RecomputeTotal() {
	o.TotalAmount = o.Subtotal.Add(o.Tax).Add(o.DeliveryFee).Sub(o.Discount)
}

// SellerIDs returns the distinct sellers referenced by the order's lines,
// in first-appearance order.
func (o *Order) SellerIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(o.Items))
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		if !seen[item.SellerID] {
			seen[item.SellerID] = true
			ids = append(ids, item.SellerID)
		}
	}
	return ids
}

// ItemsBySeller returns the order lines belonging to one seller.
func (o *Order) ItemsBySeller(sellerID uuid.UUID) []OrderItem {
	var items []OrderItem
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			items = append(items, item)
		}
	}
	return items
}

// HasSeller reports whether the given user sells at least one line item.
func (o *Order) HasSeller(sellerID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

// OrderItem is one immutable order line with the name and price captured at
// placement time
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	SellerID    uuid.UUID
	SellerRole  Role
	CreatedAt   time.Time
}
