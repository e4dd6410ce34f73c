package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/domain"
	"github.com/bazaarhub/marketplace-api/pkg/errors"
)

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func retailProduct(name, price string, stock int) *domain.Product {
	return &domain.Product{
		ID:             uuid.New(),
		SellerID:       uuid.New(),
		SellerRole:     domain.RoleRetailer,
		Name:           name,
		RetailPrice:    money(price),
		QuantityOnHand: stock,
	}
}

func wholesaleCatalogProduct(name, retail, wholesale string, minQty, stock int) *domain.Product {
	wp := money(wholesale)
	mq := minQty
	return &domain.Product{
		ID:              uuid.New(),
		SellerID:        uuid.New(),
		SellerRole:      domain.RoleWholesaler,
		Name:            name,
		RetailPrice:     money(retail),
		QuantityOnHand:  stock,
		WholesalePrice:  &wp,
		WholesaleMinQty: &mq,
	}
}

func newCartService(env *testEnv) *CartService {
	return NewCartService(env.repos, zap.NewNop())
}

func TestCartAddItemAndRead(t *testing.T) {
	env := newTestEnv()
	svc := newCartService(env)
	customerID := uuid.New()

	soap := retailProduct("Soap", "40", 100)
	env.products.put(soap)

	err := svc.AddItem(context.Background(), customerID, domain.RoleCustomer, soap.ID, 3)
	require.NoError(t, err)

	view, err := svc.Read(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Empty(t, view.Warnings)
	assert.Equal(t, 3, view.Lines[0].Quantity)
	assert.True(t, view.Lines[0].UnitPrice.Equal(money("40")))
	assert.True(t, view.Lines[0].LineTotal.Equal(money("120")))
	assert.Equal(t, 3, view.TotalItemCount)
	assert.True(t, view.TotalPrice.Equal(money("120")))
}

func TestCartAddItemMergesAndReprices(t *testing.T) {
	env := newTestEnv()
	svc := newCartService(env)
	retailerID := uuid.New()

	rice := wholesaleCatalogProduct("Rice 25kg", "100", "80", 50, 500)
	env.products.put(rice)
	env.products.tiers[rice.ID] = []domain.PriceTier{
		{ID: uuid.New(), ProductID: rice.ID, MinQuantity: 10, UnitPrice: money("90")},
	}

	require.NoError(t, svc.AddItem(context.Background(), retailerID, domain.RoleRetailer, rice.ID, 6))

	view, err := svc.Read(context.Background(), retailerID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.True(t, view.Lines[0].UnitPrice.Equal(money("100")), "below every tier, retail price applies")

	// Adding more merges the line and re-resolves the price at the merged qty.
	require.NoError(t, svc.AddItem(context.Background(), retailerID, domain.RoleRetailer, rice.ID, 6))

	view, err = svc.Read(context.Background(), retailerID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 12, view.Lines[0].Quantity)
	assert.True(t, view.Lines[0].UnitPrice.Equal(money("90")))
	assert.True(t, view.TotalPrice.Equal(money("1080")))
}

func TestCartAddItemInsufficientStock(t *testing.T) {
	env := newTestEnv()
	svc := newCartService(env)
	customerID := uuid.New()

	soap := retailProduct("Soap", "40", 4)
	env.products.put(soap)

	require.NoError(t, svc.AddItem(context.Background(), customerID, domain.RoleCustomer, soap.ID, 3))

	// Merged quantity would exceed stock.
	err := svc.AddItem(context.Background(), customerID, domain.RoleCustomer, soap.ID, 2)
	var stockErr *errors.ErrInsufficientStock
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 4, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)

	view, err := svc.Read(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Quantity, "failed add must not change the line")
}

func TestCartAddItemValidation(t *testing.T) {
	env := newTestEnv()
	svc := newCartService(env)

	soap := retailProduct("Soap", "40", 10)
	env.products.put(soap)

	err := svc.AddItem(context.Background(), uuid.New(), domain.RoleCustomer, soap.ID, 0)
	var vErr *errors.ErrValidation
	assert.ErrorAs(t, err, &vErr)

	err = svc.AddItem(context.Background(), uuid.New(), domain.RoleCustomer, uuid.New(), 1)
	var nfErr *errors.ErrNotFound
	assert.ErrorAs(t, err, &nfErr)
}

func TestCartReadDropsVanishedAndSoldOutLines(t *testing.T) {
	env := newTestEnv()
	svc := newCartService(env)
	customerID := uuid.New()

	soap := retailProduct("Soap", "40", 10)
	towel := retailProduct("Towel", "150", 10)
	env.products.put(soap)
	env.products.put(towel)

	require.NoError(t, svc.AddItem(context.Background(), customerID, domain.RoleCustomer, soap.ID, 2))
	require.NoError(t, svc.AddItem(context.Background(), customerID, domain.RoleCustomer, towel.ID, 1))

	// Soap sells out, towel disappears from the catalog entirely.
	env.products.mu.Lock()
	env.products.products[soap.ID].QuantityOnHand = 0
	delete(env.products.products, towel.ID)
	env.products.mu.Unlock()

	view, err := svc.Read(context.Background(), customerID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	require.Len(t, view.Warnings, 2)
	assert.True(t, view.TotalPrice.IsZero())

	// Adjustments were persisted: a second read is clean.
	view, err = svc.Read(context.Background(), customerID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Empty(t, view.Warnings)
}

func TestCartReadClampsQuantityToStock(t *testing.T) {
	env := newTestEnv()
	svc := newCartService(env)
	customerID := uuid.New()

	soap := retailProduct("Soap", "40", 10)
	env.products.put(soap)

	require.NoError(t, svc.AddItem(context.Background(), customerID, domain.RoleCustomer, soap.ID, 8))

	env.products.mu.Lock()
	env.products.products[soap.ID].QuantityOnHand = 5
	env.products.mu.Unlock()

	view, err := svc.Read(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 5, view.Lines[0].Quantity)
	require.Len(t, view.Warnings, 1)
	require.NotNil(t, view.Warnings[0].AdjustedQuantity)
	assert.Equal(t, 5, *view.Warnings[0].AdjustedQuantity)

	view, err = svc.Read(context.Background(), customerID)
	require.NoError(t, err)
	assert.Empty(t, view.Warnings, "clamp persisted; second read has nothing to adjust")
}

func TestCartSetQuantity(t *testing.T) {
	env := newTestEnv()
	svc := newCartService(env)
	customerID := uuid.New()

	soap := retailProduct("Soap", "40", 10)
	env.products.put(soap)

	require.NoError(t, svc.AddItem(context.Background(), customerID, domain.RoleCustomer, soap.ID, 2))
	require.NoError(t, svc.SetQuantity(context.Background(), customerID, domain.RoleCustomer, soap.ID, 7))

	view, err := svc.Read(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, 7, view.Lines[0].Quantity)

	// Zero removes the line.
	require.NoError(t, svc.SetQuantity(context.Background(), customerID, domain.RoleCustomer, soap.ID, 0))
	view, err = svc.Read(context.Background(), customerID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	// Setting a line that no longer exists is not-found, not an upsert.
	err = svc.SetQuantity(context.Background(), customerID, domain.RoleCustomer, soap.ID, 1)
	var nfErr *errors.ErrNotFound
	assert.ErrorAs(t, err, &nfErr)
}

func TestCartSetQuantityRejectsExcessAndNegative(t *testing.T) {
	env := newTestEnv()
	svc := newCartService(env)
	customerID := uuid.New()

	soap := retailProduct("Soap", "40", 5)
	env.products.put(soap)

	require.NoError(t, svc.AddItem(context.Background(), customerID, domain.RoleCustomer, soap.ID, 2))

	err := svc.SetQuantity(context.Background(), customerID, domain.RoleCustomer, soap.ID, 6)
	var stockErr *errors.ErrInsufficientStock
	assert.ErrorAs(t, err, &stockErr)

	err = svc.SetQuantity(context.Background(), customerID, domain.RoleCustomer, soap.ID, -1)
	var vErr *errors.ErrValidation
	assert.ErrorAs(t, err, &vErr)
}

func TestCartRemoveAndClear(t *testing.T) {
	env := newTestEnv()
	svc := newCartService(env)
	customerID := uuid.New()

	soap := retailProduct("Soap", "40", 10)
	towel := retailProduct("Towel", "150", 10)
	env.products.put(soap)
	env.products.put(towel)

	require.NoError(t, svc.AddItem(context.Background(), customerID, domain.RoleCustomer, soap.ID, 1))
	require.NoError(t, svc.AddItem(context.Background(), customerID, domain.RoleCustomer, towel.ID, 1))

	require.NoError(t, svc.RemoveItem(context.Background(), customerID, soap.ID))
	view, err := svc.Read(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, towel.ID, view.Lines[0].ProductID)

	require.NoError(t, svc.Clear(context.Background(), customerID))
	view, err = svc.Read(context.Background(), customerID)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
}
