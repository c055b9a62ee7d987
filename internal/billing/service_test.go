package billing

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"billbuddy/pos/internal/catalog"
	"billbuddy/pos/internal/types"
)

func testBackend(t *testing.T) (*catalog.Store, *Service) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return catalog.New(client), NewService(client)
}

func TestCartMath(t *testing.T) {
	pad := types.Product{ID: "p1", Name: "Brake Pad", PurchasePrice: 300, SellingPrice: 450}

	c := &Cart{CustomerName: "Raj"}
	c.AddProduct(pad)
	c.AddProduct(pad) // same product merges into one line

	require.Len(t, c.Lines, 1)
	require.Equal(t, 2, c.Lines[0].Quantity)
	require.InDelta(t, 900.0, c.Subtotal(), 0.001)
	require.InDelta(t, 300.0, c.Profit(), 0.001)

	require.True(t, c.SetUnitPrice("p1", 400))
	require.InDelta(t, 800.0, c.Subtotal(), 0.001)
	require.False(t, c.SetUnitPrice("missing", 1))
}

func TestGenerateWritesBillAndDecrementsStock(t *testing.T) {
	cat, svc := testBackend(t)
	ctx := context.Background()

	pad := types.Product{ID: "p1", Name: "Brake Pad", PurchasePrice: 300, SellingPrice: 450, Stock: 10}
	require.NoError(t, cat.Put(ctx, pad))

	c := &Cart{CustomerName: "Raj", VehicleInfo: "Honda Activa 2020"}
	c.AddProduct(pad)
	c.AddProduct(pad)

	bill, err := svc.Generate(ctx, c)
	require.NoError(t, err)
	require.NotEmpty(t, bill.ID)
	require.Equal(t, "Raj", bill.CustomerName)
	require.Len(t, bill.Items, 1)
	require.Equal(t, 2, bill.Items[0].Quantity)

	got, err := svc.Get(ctx, bill.ID)
	require.NoError(t, err)
	require.InDelta(t, 900.0, got.Subtotal, 0.001)

	p, err := cat.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 8, p.Stock)

	bills, err := svc.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, bills, 1)
}

func TestGenerateInsufficientStockLeavesNothingBehind(t *testing.T) {
	cat, svc := testBackend(t)
	ctx := context.Background()

	pad := types.Product{ID: "p1", Name: "Brake Pad", SellingPrice: 450, Stock: 5}
	lube := types.Product{ID: "p2", Name: "Chain Lube", SellingPrice: 120, Stock: 1}
	require.NoError(t, cat.Put(ctx, pad))
	require.NoError(t, cat.Put(ctx, lube))

	c := &Cart{CustomerName: "Raj"}
	c.AddProduct(pad)
	c.AddProduct(lube)
	c.AddProduct(lube) // needs 2, only 1 in stock

	_, err := svc.Generate(ctx, c)
	require.ErrorIs(t, err, ErrInsufficientStock)

	// no partial mutation: stock untouched, no bill written
	p, err := cat.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 5, p.Stock)

	bills, err := svc.List(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, bills)
}

func TestGenerateEmptyCart(t *testing.T) {
	_, svc := testBackend(t)
	_, err := svc.Generate(context.Background(), &Cart{CustomerName: "Raj"})
	require.ErrorIs(t, err, ErrEmptyCart)
}
