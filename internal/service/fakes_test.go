package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bazaarhub/marketplace-api/internal/domain"
	"github.com/bazaarhub/marketplace-api/internal/repository"
	"github.com/bazaarhub/marketplace-api/pkg/errors"
)

// In-memory repositories for service tests. The fake transactor serializes
// transactions behind a mutex and rolls product stock back when the
// transactional function fails, mimicking what the database gives the real
// repositories.

type fakeProductRepo struct {
	mu           sync.Mutex
	products     map[uuid.UUID]*domain.Product
	tiers        map[uuid.UUID][]domain.PriceTier
	reserveCalls map[uuid.UUID]int
	restoreCalls map[uuid.UUID]int
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products:     make(map[uuid.UUID]*domain.Product),
		tiers:        make(map[uuid.UUID][]domain.PriceTier),
		reserveCalls: make(map[uuid.UUID]int),
		restoreCalls: make(map[uuid.UUID]int),
	}
}

func (r *fakeProductRepo) put(p *domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.products[p.ID] = &cp
}

func (r *fakeProductRepo) stock(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].QuantityOnHand
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeProductRepo) ListTiers(ctx context.Context, productID uuid.UUID) ([]domain.PriceTier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.PriceTier(nil), r.tiers[productID]...), nil
}

func (r *fakeProductRepo) ReserveStock(ctx context.Context, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	if p.QuantityOnHand < qty {
		return &errors.ErrInsufficientStock{
			ProductName: p.Name,
			Available:   p.QuantityOnHand,
			Requested:   qty,
		}
	}
	p.QuantityOnHand -= qty
	r.reserveCalls[id]++
	return nil
}

func (r *fakeProductRepo) RestoreStock(ctx context.Context, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	p.QuantityOnHand += qty
	r.restoreCalls[id]++
	return nil
}

func (r *fakeProductRepo) snapshotStock() map[uuid.UUID]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[uuid.UUID]int, len(r.products))
	for id, p := range r.products {
		snap[id] = p.QuantityOnHand
	}
	return snap
}

func (r *fakeProductRepo) restoreSnapshot(snap map[uuid.UUID]int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, qty := range snap {
		if p, ok := r.products[id]; ok {
			p.QuantityOnHand = qty
		}
	}
}

type fakeTx struct {
	mu       sync.Mutex
	products *fakeProductRepo
	orders   *fakeOrderRepo
}

func (t *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	stockSnap := t.products.snapshotStock()
	orderSnap := t.orders.snapshot()
	if err := fn(ctx); err != nil {
		t.products.restoreSnapshot(stockSnap)
		t.orders.restoreSnapshot(orderSnap)
		return err
	}
	return nil
}

// gate returns a function that blocks its callers until n of them have
// arrived, then lets every call through. Used to force two requests past the
// same read before either one's transaction runs.
func gate(n int) func() {
	var mu sync.Mutex
	arrived := 0
	release := make(chan struct{})
	return func() {
		mu.Lock()
		arrived++
		if arrived == n {
			close(release)
		}
		mu.Unlock()
		<-release
	}
}

type fakeCartRepo struct {
	mu         sync.Mutex
	byCustomer map[uuid.UUID]*domain.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{byCustomer: make(map[uuid.UUID]*domain.Cart)}
}

func (r *fakeCartRepo) GetByCustomer(ctx context.Context, customerID uuid.UUID) (*domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart, ok := r.byCustomer[customerID]
	if !ok {
		cart = &domain.Cart{
			ID:         uuid.New(),
			CustomerID: customerID,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		r.byCustomer[customerID] = cart
	}
	cp := *cart
	cp.Items = append([]domain.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (r *fakeCartRepo) findByCartID(cartID uuid.UUID) *domain.Cart {
	for _, cart := range r.byCustomer {
		if cart.ID == cartID {
			return cart
		}
	}
	return nil
}

func (r *fakeCartRepo) UpsertItem(ctx context.Context, item *domain.CartItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart := r.findByCartID(item.CartID)
	if cart == nil {
		return &errors.ErrNotFound{Resource: "cart", ID: item.CartID.String()}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID {
			cart.Items[i].Quantity = item.Quantity
			cart.Items[i].CapturedUnitPrice = item.CapturedUnitPrice
			return nil
		}
	}
	cart.Items = append(cart.Items, *item)
	return nil
}

func (r *fakeCartRepo) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart := r.findByCartID(cartID)
	if cart == nil {
		return &errors.ErrNotFound{Resource: "cart", ID: cartID.String()}
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return &errors.ErrNotFound{Resource: "cart item", ID: productID.String()}
}

func (r *fakeCartRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cart := r.findByCartID(cartID)
	if cart == nil {
		return &errors.ErrNotFound{Resource: "cart", ID: cartID.String()}
	}
	cart.Items = nil
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order

	// getHook, when set, runs at the top of GetByID.
	getHook func()
	// failUpdatePayment makes the next UpdatePayment call return this error.
	failUpdatePayment error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*domain.Order)}
}

func (r *fakeOrderRepo) copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	order.RecomputeTotal()
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	r.orders[order.ID] = r.copyOrder(order)
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if r.getHook != nil {
		r.getHook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return r.copyOrder(o), nil
}

func (r *fakeOrderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return r.copyOrder(o), nil
}

func (r *fakeOrderRepo) snapshot() map[uuid.UUID]*domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[uuid.UUID]*domain.Order, len(r.orders))
	for id, o := range r.orders {
		snap[id] = r.copyOrder(o)
	}
	return snap
}

func (r *fakeOrderRepo) restoreSnapshot(snap map[uuid.UUID]*domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = snap
}

func (r *fakeOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	delete(r.orders, id)
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, deliveredAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	o.Status = status
	if deliveredAt != nil {
		o.DeliveredAt = deliveredAt
	}
	o.UpdatedAt = time.Now()
	return nil
}

func (r *fakeOrderRepo) UpdatePayment(ctx context.Context, id uuid.UUID, status domain.PaymentStatus, transactionID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdatePayment != nil {
		err := r.failUpdatePayment
		r.failUpdatePayment = nil
		return err
	}
	o, ok := r.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	o.PaymentStatus = status
	if transactionID != nil {
		o.PaymentTransactionID = transactionID
	}
	o.UpdatedAt = time.Now()
	return nil
}

func (r *fakeOrderRepo) SetGatewayOrderID(ctx context.Context, id uuid.UUID, gatewayOrderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	o.GatewayOrderID = &gatewayOrderID
	o.UpdatedAt = time.Now()
	return nil
}

func (r *fakeOrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, r.copyOrder(o))
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.HasSeller(sellerID) {
			out = append(out, r.copyOrder(o))
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "user"}
}

type recordedNotification struct {
	event       string
	orderID     uuid.UUID
	recipientID uuid.UUID
	itemCount   int
}

type fakeNotifier struct {
	mu       sync.Mutex
	received []recordedNotification
}

func (n *fakeNotifier) OrderConfirmed(ctx context.Context, order *domain.Order, buyer *domain.User) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, recordedNotification{
		event:       "order_confirmed",
		orderID:     order.ID,
		recipientID: order.CustomerID,
		itemCount:   len(order.Items),
	})
	return nil
}

func (n *fakeNotifier) SellerOrderReceived(ctx context.Context, order *domain.Order, sellerID uuid.UUID, items []domain.OrderItem) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, recordedNotification{
		event:       "seller_order_received",
		orderID:     order.ID,
		recipientID: sellerID,
		itemCount:   len(items),
	})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.received)
}

func (n *fakeNotifier) events() []recordedNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedNotification(nil), n.received...)
}

type fakeGateway struct {
	mu          sync.Mutex
	valid       bool
	refunds     []string
	createCalls int
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	return "order_rzp_test_1", nil
}

func (g *fakeGateway) Refund(ctx context.Context, paymentID string, amount decimal.Decimal) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, paymentID)
	return nil
}

func (g *fakeGateway) VerifySignature(gatewayOrderID, paymentID, signature string) bool {
	return g.valid
}

func (g *fakeGateway) KeyID() string {
	return "rzp_test_key"
}

func (g *fakeGateway) refundCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.refunds)
}

// testEnv bundles the fakes behind a Repositories value
type testEnv struct {
	repos    *repository.Repositories
	products *fakeProductRepo
	carts    *fakeCartRepo
	orders   *fakeOrderRepo
	users    *fakeUserRepo
}

func newTestEnv() *testEnv {
	products := newFakeProductRepo()
	env := &testEnv{
		products: products,
		carts:    newFakeCartRepo(),
		orders:   newFakeOrderRepo(),
		users:    newFakeUserRepo(),
	}
	env.repos = &repository.Repositories{
		User:    env.users,
		Product: products,
		Cart:    env.carts,
		Order:   env.orders,
		Tx:      &fakeTx{products: products, orders: env.orders},
	}
	return env
}
