package domain

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo checks if a status transition is valid. The forward chain is
// pending → confirmed → processing → shipped → delivered; cancelled is
// reachable from every state except delivered and cancelled itself. The
// customer-facing cancel additionally refuses shipped orders; that rule lives
// in the order service, not here.
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return newStatus == OrderStatusConfirmed ||
			newStatus == OrderStatusCancelled
	case OrderStatusConfirmed:
		return newStatus == OrderStatusProcessing ||
			newStatus == OrderStatusShipped ||
			newStatus == OrderStatusCancelled
	case OrderStatusProcessing:
		return newStatus == OrderStatusShipped ||
			newStatus == OrderStatusCancelled
	case OrderStatusShipped:
		return newStatus == OrderStatusDelivered ||
			newStatus == OrderStatusCancelled
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// PaymentMethod represents how the buyer pays for an order
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodUPI    PaymentMethod = "upi"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodOnline, PaymentMethodCard, PaymentMethodUPI:
		return true
	default:
		return false
	}
}

// Deferred reports whether stock reservation waits for gateway confirmation.
// Only online payments defer; cash, card and UPI reserve at creation time.
func (m PaymentMethod) Deferred() bool {
	return m == PaymentMethodOnline
}

// PaymentStatus represents the settlement state of an order's payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Role represents a user's role in the marketplace
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleRetailer   Role = "retailer"
	RoleWholesaler Role = "wholesaler"
	RoleAdmin      Role = "admin"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleRetailer, RoleWholesaler, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsSeller reports whether the role can own catalog items.
func (r Role) IsSeller() bool {
	return r == RoleRetailer || r == RoleWholesaler
}

// OrderKind distinguishes retail from wholesale orders
type OrderKind string

const (
	OrderKindB2C OrderKind = "b2c"
	OrderKindB2B OrderKind = "b2b"
)
