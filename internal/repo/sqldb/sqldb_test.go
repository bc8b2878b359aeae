package sqldb

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GophShop/internal/model"
	"GophShop/internal/repo"
)

// newTestStores открывает отдельную in-memory SQLite (modernc.org/sqlite) на тест.
func newTestStores(t *testing.T) *Stores {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestDialector_PicksDriverByDSN(t *testing.T) {
	assert.Equal(t, "postgres", Dialector("postgres://u:p@localhost/shop").Name())
	assert.Equal(t, "postgres", Dialector("postgresql://localhost/shop").Name())
	assert.Equal(t, "sqlite", Dialector("shop.db").Name())
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestUserRepo_Contract(t *testing.T) {
	ctx := context.Background()
	st := newTestStores(t)

	a, err := st.Users.Add(ctx, model.User{Username: "anna", PasswordHash: "h", IsAdmin: true})
	require.NoError(t, err)
	b, err := st.Users.Add(ctx, model.User{Username: "annie", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)

	_, err = st.Users.Add(ctx, model.User{Username: "anna", PasswordHash: "h"})
	assert.ErrorIs(t, err, repo.ErrConflict)

	got, err := st.Users.GetByName(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, *a, *got)

	require.NoError(t, st.Users.Delete(ctx, b.ID))
	assert.ErrorIs(t, st.Users.Delete(ctx, b.ID), repo.ErrNotFound)
	_, err = st.Users.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	n, err := st.Users.CountByPrefix(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	found, err := st.Users.Search(ctx, "NN")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	require.NoError(t, st.Users.Restore(ctx, b.ID))
	assert.ErrorIs(t, st.Users.Restore(ctx, b.ID), repo.ErrNotFound)

	a.IsAdmin = false
	require.NoError(t, st.Users.Update(ctx, *a))
	got, err = st.Users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsAdmin)
}

func TestProductRepo_Contract(t *testing.T) {
	ctx := context.Background()
	st := newTestStores(t)

	p, err := st.Products.Add(ctx, "Tea", 99, 0)
	require.NoError(t, err)
	_, err = st.Products.Add(ctx, "Tea", 1, 1)
	assert.ErrorIs(t, err, repo.ErrConflict)

	n, err := st.Products.MarkOutOfStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.Products.AdjustStock(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(10), got.Stock)
	assert.Equal(t, model.ProductNormal, got.Status)

	_, err = st.Products.AdjustStock(ctx, p.ID, -11)
	assert.ErrorIs(t, err, repo.ErrConflict)
	_, err = st.Products.AdjustStock(ctx, p.ID+100, 1)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, st.Products.Delete(ctx, p.ID))
	assert.ErrorIs(t, st.Products.Delete(ctx, p.ID), repo.ErrNotFound)
	_, err = st.Products.Get(ctx, p.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	lk, err := st.Products.Lookup(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tea", lk.Name)

	list, err := st.Products.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = st.Products.Search(ctx, "te", true)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, st.Products.Restore(ctx, p.ID))
	id, err := st.Products.IDByName(ctx, "Tea")
	require.NoError(t, err)
	assert.Equal(t, p.ID, id)
}

func TestCartRepo_Contract(t *testing.T) {
	ctx := context.Background()
	st := newTestStores(t)

	_, err := st.Carts.Add(ctx, 1, 7, 2)
	require.NoError(t, err)
	c, err := st.Carts.Add(ctx, 1, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(5), c.Count)

	require.NoError(t, st.Carts.Delete(ctx, 1, 7))
	c, err = st.Carts.Add(ctx, 1, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), c.Count)

	_, err = st.Carts.Add(ctx, 1, 8, 4)
	require.NoError(t, err)
	require.NoError(t, st.Carts.Update(ctx, model.CartItem{UserID: 1, ProductID: 8, Count: 4, Delivery: model.DeliveryPriority}))

	consumed, err := st.Carts.Checkout(ctx, 1)
	require.NoError(t, err)
	require.Len(t, consumed, 1)
	assert.Equal(t, int32(8), consumed[0].ProductID)

	open, err := st.Carts.ListOpen(ctx, 1)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, int32(7), open[0].ProductID)
}

func TestOrderAndHistoryRepo_Contract(t *testing.T) {
	ctx := context.Background()
	st := newTestStores(t)
	oid := model.OrderIDFor(5000, 2)
	item := model.OrderItem{UserID: 2, ProductID: 1, OrderID: oid, Count: 3, OrderTime: 5000, Delivery: model.DeliveryExpress, Address: "Road 1"}

	require.NoError(t, st.Orders.Append(ctx, []model.OrderItem{item}))
	require.NoError(t, st.History.Append(ctx, []model.HistoryOrderItem{{OrderItem: item, ProductName: "Tea", Price: 99}}))

	ok, err := st.Orders.Exists(ctx, oid)
	require.NoError(t, err)
	assert.True(t, ok)

	d := model.DeliveryStandard
	n, err := st.History.UpdateInfo(ctx, oid, nil, &d)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = st.Orders.SetStatus(ctx, oid, []model.OrderStatus{model.OrderNotCompleted}, model.OrderCancel)
	require.NoError(t, err)
	_, err = st.History.SetStatus(ctx, oid, nil, model.OrderCancel)
	require.NoError(t, err)
	_, err = st.History.SetStatus(ctx, oid, nil, model.OrderCancel)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	lines, err := st.Orders.ListByUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, item.Address, lines[0].Address)
	assert.Equal(t, model.OrderCancel, lines[0].Status)

	hist, err := st.History.ListByUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, model.DeliveryStandard, hist[0].Delivery)
	assert.Equal(t, 99.0, hist[0].Price)

	n, err = st.History.DeleteByUser(ctx, 2, []model.OrderStatus{model.OrderCompleted, model.OrderCancel})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	hist, err = st.History.ListByUser(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestRepos_CountOverflowRejected(t *testing.T) {
	ctx := context.Background()
	st := newTestStores(t)

	_, err := st.Carts.Add(ctx, 1, 7, math.MaxInt32)
	require.NoError(t, err)
	_, err = st.Carts.Add(ctx, 1, 7, 2)
	assert.ErrorIs(t, err, repo.ErrConflict)
	c, err := st.Carts.Get(ctx, 1, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), c.Count)

	p, err := st.Products.Add(ctx, "Salt", 1, math.MaxInt32-1)
	require.NoError(t, err)
	_, err = st.Products.AdjustStock(ctx, p.ID, 2)
	assert.ErrorIs(t, err, repo.ErrConflict)
	got, err := st.Products.AdjustStock(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), got.Stock)
}
