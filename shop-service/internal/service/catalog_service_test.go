package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

func TestCatalogService_CreateProduct(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &MockNotifier{}
	svc := NewCatalogService(st, testSellerID, WithNotifier(notifier))
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, testSeller, NewProduct{
		Name:  "  Ocean Blue ",
		Price: decimal.RequireFromString("149.499"),
		Stock: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ocean Blue", p.Name)
	assert.Equal(t, "149.5", p.Price.String())
	assert.Equal(t, testSellerID, p.SellerID)
	assert.Equal(t, []int64{testSellerID}, notifier.Calls)

	events, err := st.PendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventProductCreated, events[0].EventType)

	tests := []struct {
		name    string
		actor   domain.Actor
		in      NewProduct
		wantErr error
	}{
		{"customer", testCustomer, NewProduct{Name: "x"}, domain.ErrForbidden},
		{"blank name", testSeller, NewProduct{Name: "  "}, domain.ErrInvalidInput},
		{"negative stock", testSeller, NewProduct{Name: "x", Stock: -1}, domain.ErrInvalidInput},
		{"negative price", testSeller, NewProduct{Name: "x", Price: decimal.NewFromInt(-1)}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tt.actor, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCatalogService_AdjustStock(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewCatalogService(st, testSellerID)
	ctx := context.Background()
	p := seedProduct(t, st, 4)

	updated, err := svc.AdjustStock(ctx, testSeller, p.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Stock)

	updated, err = svc.AdjustStock(ctx, testSeller, p.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Stock)

	_, err = svc.AdjustStock(ctx, domain.Seller(2), p.ID, 3)
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	_, err = svc.AdjustStock(ctx, testCustomer, p.ID, 3)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.AdjustStock(ctx, testSeller, 99, 3)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.Equal(t, 0, stockOf(t, st, p.ID))
}

func TestCatalogService_ListProducts(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewCatalogService(st, testSellerID)
	ctx := context.Background()

	for _, name := range []string{"Ocean Blue", "Sunset", "Blue Moon"} {
		_, err := svc.CreateProduct(ctx, testSeller, NewProduct{Name: name, Price: decimal.NewFromInt(100), Stock: 1})
		require.NoError(t, err)
	}
	require.NoError(t, st.CreateProduct(ctx, &domain.Product{Name: "Blue elsewhere", SellerID: 2}))

	page, err := svc.ListProducts(ctx, testSeller, ProductQuery{Search: "blue", SortBy: "bogus", SortDir: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Ocean Blue", page.Items[0].Name)

	page, err = svc.ListProducts(ctx, testCustomer, ProductQuery{Search: "blue"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, store.PageSize, page.PageSize)
}
