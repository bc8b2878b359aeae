package fs

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

func openStores(t *testing.T) *Stores {
	t.Helper()
	st, err := Open(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestOpen_EmptyDir(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestUserStore_AddGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openStores(t)

	u, err := st.Users.Add(ctx, model.User{Username: "alice", PasswordHash: "hash", IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, int32(1), u.ID)

	// новый экземпляр читает то же с диска
	again, err := NewUserStore(st.Users.File().Path())
	require.NoError(t, err)
	got, err := again.GetByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, *u, *got)

	_, err = st.Users.Add(ctx, model.User{Username: "alice", PasswordHash: "x"})
	assert.ErrorIs(t, err, repo.ErrConflict)
}

func TestUserStore_SoftDeleteIdempotence(t *testing.T) {
	ctx := context.Background()
	st := openStores(t)
	u, err := st.Users.Add(ctx, model.User{Username: "bob", PasswordHash: "h"})
	require.NoError(t, err)

	require.NoError(t, st.Users.Delete(ctx, u.ID))
	assert.ErrorIs(t, st.Users.Delete(ctx, u.ID), repo.ErrNotFound)

	_, err = st.Users.GetByID(ctx, u.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	// имя удалённого пользователя свободно
	u2, err := st.Users.Add(ctx, model.User{Username: "bob", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), u2.ID)

	assert.ErrorIs(t, st.Users.Restore(ctx, u2.ID), repo.ErrNotFound)
	require.NoError(t, st.Users.Restore(ctx, u.ID))

	n, err := st.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUserStore_SearchAndPrefix(t *testing.T) {
	ctx := context.Background()
	st := openStores(t)
	for _, name := range []string{"anna", "annie", "Bob"} {
		_, err := st.Users.Add(ctx, model.User{Username: name, PasswordHash: "h"})
		require.NoError(t, err)
	}
	require.NoError(t, st.Users.Delete(ctx, 2))

	all, err := st.Users.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byID, err := st.Users.Search(ctx, "3")
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "Bob", byID[0].Username)

	sub, err := st.Users.Search(ctx, "NN")
	require.NoError(t, err)
	assert.Len(t, sub, 2)

	n, err := st.Users.CountByPrefix(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUserStore_TooLongName(t *testing.T) {
	st := openStores(t)
	_, err := st.Users.Add(context.Background(), model.User{Username: strings.Repeat("x", model.UsernameCap+1)})
	assert.ErrorIs(t, err, repo.ErrWriteFailure)
}

func TestProductStore_RoundTripAndStock(t *testing.T) {
	ctx := context.Background()
	st := openStores(t)

	p, err := st.Products.Add(ctx, "Tea", 9.5, 0)
	require.NoError(t, err)
	_, err = st.Products.Add(ctx, "Tea", 1, 1)
	assert.ErrorIs(t, err, repo.ErrConflict)

	n, err := st.Products.MarkOutOfStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = st.Products.MarkOutOfStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := st.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProductOutOfStock, got.Status)

	// пополнение возвращает в NORMAL
	got, err = st.Products.AdjustStock(ctx, p.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, int32(4), got.Stock)
	assert.Equal(t, model.ProductNormal, got.Status)

	_, err = st.Products.AdjustStock(ctx, p.ID, -5)
	assert.ErrorIs(t, err, repo.ErrConflict)

	id, err := st.Products.IDByName(ctx, "Tea")
	require.NoError(t, err)
	assert.Equal(t, p.ID, id)
}

func TestProductStore_DeleteRestoreLookup(t *testing.T) {
	ctx := context.Background()
	st := openStores(t)
	p, err := st.Products.Add(ctx, "Cup", 3, 2)
	require.NoError(t, err)
	_, err = st.Products.Add(ctx, "Mug", 4, 2)
	require.NoError(t, err)

	require.NoError(t, st.Products.Delete(ctx, p.ID))
	assert.ErrorIs(t, st.Products.Delete(ctx, p.ID), repo.ErrNotFound)

	_, err = st.Products.Get(ctx, p.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	lk, err := st.Products.Lookup(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cup", lk.Name)

	visible, err := st.Products.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, visible, 1)
	all, err := st.Products.Search(ctx, "u", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, st.Products.Restore(ctx, p.ID))
	got, err := st.Products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProductNormal, got.Status)
}

func TestCartStore_MergeReviveAppend(t *testing.T) {
	ctx := context.Background()
	st := openStores(t)

	_, err := st.Carts.Add(ctx, 1, 7, 2)
	require.NoError(t, err)
	c, err := st.Carts.Add(ctx, 1, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(5), c.Count)

	require.NoError(t, st.Carts.Delete(ctx, 1, 7))
	assert.ErrorIs(t, st.Carts.Delete(ctx, 1, 7), repo.ErrNotFound)

	c, err = st.Carts.Add(ctx, 1, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), c.Count)
	assert.False(t, c.Selected())

	_, err = st.Carts.Add(ctx, 2, 7, 1)
	require.NoError(t, err)

	all, err := st.Carts.File().Collect(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2, "revived line must reuse its slot")

	open, err := st.Carts.ListOpen(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestCartStore_CheckoutConsumesSelected(t *testing.T) {
	ctx := context.Background()
	st := openStores(t)
	for _, pid := range []int32{1, 2, 3} {
		_, err := st.Carts.Add(ctx, 5, pid, pid)
		require.NoError(t, err)
	}
	require.NoError(t, st.Carts.Update(ctx, model.CartItem{UserID: 5, ProductID: 1, Count: 1, Delivery: model.DeliveryExpress}))
	require.NoError(t, st.Carts.Update(ctx, model.CartItem{UserID: 5, ProductID: 3, Count: 3, Delivery: model.DeliveryStandard}))

	consumed, err := st.Carts.Checkout(ctx, 5)
	require.NoError(t, err)
	require.Len(t, consumed, 2)
	assert.Equal(t, model.DeliveryExpress, consumed[0].Delivery)
	assert.Equal(t, model.CartNotOrdered, consumed[0].Status)

	open, err := st.Carts.ListOpen(ctx, 5)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, int32(2), open[0].ProductID)

	again, err := st.Carts.Checkout(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestOrderStore_StatusAndInfo(t *testing.T) {
	ctx := context.Background()
	st := openStores(t)
	oid := model.OrderIDFor(1000, 3)
	items := []model.OrderItem{
		{UserID: 3, ProductID: 1, OrderID: oid, Count: 1, OrderTime: 1000, Delivery: model.DeliveryStandard, Address: "Main st"},
		{UserID: 3, ProductID: 2, OrderID: oid, Count: 2, OrderTime: 1000, Delivery: model.DeliveryStandard, Address: "Main st"},
	}
	require.NoError(t, st.Orders.Append(ctx, items))

	ok, err := st.Orders.Exists(ctx, oid)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.Orders.Exists(ctx, oid+1)
	require.NoError(t, err)
	assert.False(t, ok)

	addr := "Side st"
	n, err := st.Orders.UpdateInfo(ctx, oid, &addr, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = st.Orders.SetStatus(ctx, oid, []model.OrderStatus{model.OrderNotCompleted}, model.OrderCompleted)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = st.Orders.SetStatus(ctx, oid, []model.OrderStatus{model.OrderNotCompleted}, model.OrderCancel)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = st.Orders.UpdateInfo(ctx, oid, &addr, nil)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	got, err := st.Orders.ListByOrder(ctx, oid)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Side st", got[1].Address)
	assert.Equal(t, model.OrderCompleted, got[1].Status)
}

func TestHistoryStore_RoundTripAndClear(t *testing.T) {
	ctx := context.Background()
	st := openStores(t)
	mk := func(oid int64, pid int32, status model.OrderStatus) model.HistoryOrderItem {
		return model.HistoryOrderItem{
			OrderItem:   model.OrderItem{UserID: 4, ProductID: pid, OrderID: oid, Count: 1, OrderTime: oid - 4, Status: status},
			ProductName: "Widget",
			Price:       99,
		}
	}
	require.NoError(t, st.History.Append(ctx, []model.HistoryOrderItem{
		mk(104, 1, model.OrderCompleted),
		mk(204, 1, model.OrderNotCompleted),
		mk(304, 2, model.OrderCancel),
	}))

	list, err := st.History.ListByUser(ctx, 4)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, mk(104, 1, model.OrderCompleted), list[0])

	n, err := st.History.DeleteByUser(ctx, 4, []model.OrderStatus{model.OrderCompleted, model.OrderCancel})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err = st.History.ListByUser(ctx, 4)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(204), list[0].OrderID)
}

func TestStores_CountOverflowRejected(t *testing.T) {
	ctx := context.Background()
	st := openStores(t)

	_, err := st.Carts.Add(ctx, 1, 7, math.MaxInt32)
	require.NoError(t, err)
	_, err = st.Carts.Add(ctx, 1, 7, 1)
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
