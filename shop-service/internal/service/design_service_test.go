package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

func beads(n int) []domain.Bead {
	out := make([]domain.Bead, n)
	for i := range out {
		out[i] = domain.Bead{Shape: "circle", Color: "#ff0000", Size: "small"}
	}
	return out
}

func TestDesignService_CreateDesign(t *testing.T) {
	svc := NewDesignService(store.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.CreateDesign(ctx, testCustomer, NewDesign{Name: "Short", Beads: beads(10)})
	assert.ErrorIs(t, err, domain.ErrInvalidDesignSize)

	_, err = svc.CreateDesign(ctx, testCustomer, NewDesign{Name: "Long", Beads: beads(26)})
	assert.ErrorIs(t, err, domain.ErrInvalidDesignSize)

	_, err = svc.CreateDesign(ctx, testCustomer, NewDesign{Name: "", Beads: beads(20)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.CreateDesign(ctx, testSeller, NewDesign{Name: "Seller", Beads: beads(20)})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	d, err := svc.CreateDesign(ctx, testCustomer, NewDesign{Name: "Just Right", Beads: beads(20)})
	require.NoError(t, err)
	assert.NotZero(t, d.ID)
	assert.Len(t, d.Beads, 20)
	assert.Equal(t, testCustomer.UserID, d.CustomerID)

	for _, n := range []int{domain.MinDesignBeads, domain.MaxDesignBeads} {
		_, err := svc.CreateDesign(ctx, testCustomer, NewDesign{Name: fmt.Sprintf("edge %d", n), Beads: beads(n)})
		assert.NoError(t, err)
	}
}

func TestDesignService_ListAndDelete(t *testing.T) {
	svc := NewDesignService(store.NewMemoryStore())
	ctx := context.Background()

	mine, err := svc.CreateDesign(ctx, testCustomer, NewDesign{Name: "Mine", Beads: beads(15)})
	require.NoError(t, err)
	_, err = svc.CreateDesign(ctx, otherCustomer, NewDesign{Name: "Theirs", Beads: beads(15)})
	require.NoError(t, err)

	own, err := svc.ListDesigns(ctx, testCustomer)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Mine", own[0].Name)

	public, err := svc.ListPublicDesigns(ctx, testCustomer)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Theirs", public[0].Name)

	public, err = svc.ListPublicDesigns(ctx, testSeller)
	require.NoError(t, err)
	assert.Len(t, public, 2)

	assert.ErrorIs(t, svc.DeleteDesign(ctx, otherCustomer, mine.ID), domain.ErrForbidden)
	require.NoError(t, svc.DeleteDesign(ctx, testCustomer, mine.ID))
	_, err = svc.GetDesign(ctx, mine.ID)
	assert.ErrorIs(t, err, domain.ErrDesignNotFound)
}

func TestDesignService_Details(t *testing.T) {
	st := store.NewMemoryStore()
	designs := NewDesignService(st)
	orders := newOrderService(st, OrderConfig{})
	ctx := context.Background()

	in := beads(15)
	in[0] = domain.Bead{Shape: "heart", Color: "#FFD700", Size: "large", Letter: "M"}
	design, err := designs.CreateDesign(ctx, testCustomer, NewDesign{Name: "Gold", Beads: in})
	require.NoError(t, err)

	order, err := orders.OrderCustomDesign(ctx, testCustomer, design.ID, "")
	require.NoError(t, err)

	details, err := designs.Details(ctx, order)
	require.NoError(t, err)
	require.NotNil(t, details.Product)
	require.NotNil(t, details.Design)
	assert.Equal(t, design.ID, details.Design.ID)
	require.Len(t, details.DesignText, 15)
	assert.Equal(t, "1. Gold Large Heart 'M'", details.DesignText[0])

	// regular products carry no design
	p := &domain.Product{Name: "Gold", Price: decimal.NewFromInt(10), Stock: 1, SellerID: testSellerID}
	require.NoError(t, st.CreateProduct(ctx, p))
	plain, err := orders.PlaceOrder(ctx, testCustomer, p.ID, 1, "")
	require.NoError(t, err)
	details, err = designs.Details(ctx, plain)
	require.NoError(t, err)
	assert.Nil(t, details.Design)
	assert.Empty(t, details.DesignText)
}

func TestRenderDesignText(t *testing.T) {
	design := &domain.CustomBraceletDesign{Beads: []domain.Bead{
		{Shape: "circle", Color: "#FF0000", Size: "small", Letter: "A"},
		{Shape: "blob", Color: "#123456", Size: "medium"},
		{Shape: "star", Color: "", Size: ""},
	}}

	assert.Equal(t, []string{
		"1. Red Small Circle 'A'",
		"2. #123456 Medium blob",
		"3. Unknown Unknown Star",
	}, RenderDesignText(design))
}
