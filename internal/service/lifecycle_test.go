package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GophShop/internal/model"
)

func historyStatus(t *testing.T, e *testEnv, orderID int64) []model.OrderStatus {
	t.Helper()
	hist, err := e.stores.History.ListByUser(context.Background(), shopper.UserID)
	require.NoError(t, err)
	var out []model.OrderStatus
	for _, h := range hist {
		if h.OrderID == orderID {
			out = append(out, h.Status)
		}
	}
	return out
}

func TestSweep_ArrivalBoundary(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.seedProducts(t, 2, 5, 10)
	e.buy(t, shopper, 1, 1, model.DeliveryStandard)
	e.buy(t, shopper, 2, 1, model.DeliveryExpress)
	fo, err := e.checkout.Checkout(ctx, shopper, "Road")
	require.NoError(t, err)

	// заказ прибывает вместе с первой строкой: express, 3 дня
	arrival := time.Unix(fo.OrderTime, 0).Add(3 * 24 * time.Hour)
	assert.Equal(t, arrival.Unix(), fo.ArrivalTime)

	e.now = arrival.Add(-time.Second)
	orders, err := e.orders.LoadOrders(ctx, shopper)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderNotCompleted, orders[0].Status)
	hist, err := e.orders.LoadHistory(ctx, shopper)
	require.NoError(t, err)
	assert.Empty(t, hist)

	e.now = arrival
	orders, err = e.orders.LoadOrders(ctx, shopper)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderCompleted, orders[0].Status)
	for _, l := range orders[0].Lines {
		assert.Equal(t, model.OrderCompleted, l.Item.Status)
	}
	assert.Equal(t, []model.OrderStatus{model.OrderCompleted, model.OrderCompleted}, historyStatus(t, e, fo.OrderID))

	assert.Zero(t, e.orders.Sweep(ctx, shopper.UserID))
}

func TestCancelOrder_RestoresStockOfEveryLine(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.seedProducts(t, 3, 2, 10)
	e.buy(t, shopper, 1, 4, model.DeliveryPriority)
	e.buy(t, shopper, 2, 6, model.DeliveryPriority)
	e.buy(t, shopper, 3, 10, model.DeliveryPriority)
	fo, err := e.checkout.Checkout(ctx, shopper, "Road")
	require.NoError(t, err)

	p3, err := e.stores.Products.Lookup(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(0), p3.Stock)

	stranger := Session{UserID: 9, Username: "eve"}
	assert.ErrorIs(t, e.orders.CancelOrder(ctx, stranger, fo.OrderID), ErrOrderNotFound)

	require.NoError(t, e.orders.CancelOrder(ctx, shopper, fo.OrderID))
	for id := int32(1); id <= 3; id++ {
		p, err := e.stores.Products.Lookup(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int32(10), p.Stock, "product %d", id)
	}
	assert.Equal(t, []model.OrderStatus{model.OrderCancel, model.OrderCancel, model.OrderCancel}, historyStatus(t, e, fo.OrderID))

	// повторная отмена не возвращает товар второй раз
	assert.ErrorIs(t, e.orders.CancelOrder(ctx, shopper, fo.OrderID), ErrOrderNotCancellable)
	p1, err := e.stores.Products.Lookup(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(10), p1.Stock)

	hist, err := e.orders.LoadHistory(ctx, shopper)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, model.OrderCancel, hist[0].Status)
	// 4*2 + 6*2 + 10*2 + доставка 6
	assert.Equal(t, 46.0, hist[0].TotalPrice)
}

func TestCancelOrder_AfterArrivalRejected(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.seedProducts(t, 1, 2, 10)
	e.buy(t, shopper, 1, 1, model.DeliveryPriority)
	fo, err := e.checkout.Checkout(ctx, shopper, "Road")
	require.NoError(t, err)

	e.now = e.now.Add(24 * time.Hour)
	assert.ErrorIs(t, e.orders.CancelOrder(ctx, shopper, fo.OrderID), ErrOrderNotCancellable)
	assert.ErrorIs(t, e.orders.CancelOrder(ctx, shopper, fo.OrderID+1000), ErrOrderNotFound)
}

func TestUpdateOrderInfo_MirroredIntoHistory(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.seedProducts(t, 1, 2, 10)
	e.buy(t, shopper, 1, 1, model.DeliveryStandard)
	fo, err := e.checkout.Checkout(ctx, shopper, "Old road")
	require.NoError(t, err)

	addr := "New road"
	d := model.DeliveryPriority
	require.NoError(t, e.orders.UpdateOrderInfo(ctx, shopper, fo.OrderID, OrderInfo{Address: &addr, Delivery: &d}))

	lines, err := e.stores.Orders.ListByOrder(ctx, fo.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "New road", lines[0].Address)
	assert.Equal(t, model.DeliveryPriority, lines[0].Delivery)
	hist, err := e.stores.History.ListByUser(ctx, shopper.UserID)
	require.NoError(t, err)
	assert.Equal(t, "New road", hist[0].Address)
	assert.Equal(t, model.DeliveryPriority, hist[0].Delivery)

	empty := " "
	assert.ErrorIs(t, e.orders.UpdateOrderInfo(ctx, shopper, fo.OrderID, OrderInfo{Address: &empty}), ErrAddressRequired)
	bad := model.Delivery(7)
	assert.ErrorIs(t, e.orders.UpdateOrderInfo(ctx, shopper, fo.OrderID, OrderInfo{Delivery: &bad}), ErrInvalidDelivery)

	// новая доставка: 1 день
	e.now = e.now.Add(24 * time.Hour)
	assert.ErrorIs(t, e.orders.UpdateOrderInfo(ctx, shopper, fo.OrderID, OrderInfo{Address: &addr}), ErrOrderNotEditable)
}

func TestClearHistory_OnlyArchived(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	e.seedProducts(t, 2, 2, 10)

	e.buy(t, shopper, 1, 1, model.DeliveryPriority)
	done, err := e.checkout.Checkout(ctx, shopper, "Road")
	require.NoError(t, err)
	e.now = e.now.Add(24 * time.Hour)
	e.buy(t, shopper, 2, 1, model.DeliveryStandard)
	open, err := e.checkout.Checkout(ctx, shopper, "Road")
	require.NoError(t, err)

	hist, err := e.orders.LoadHistory(ctx, shopper)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, done.OrderID, hist[0].OrderID)

	n, err := e.orders.ClearHistory(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hist, err = e.orders.LoadHistory(ctx, shopper)
	require.NoError(t, err)
	assert.Empty(t, hist)
	assert.Equal(t, []model.OrderStatus{model.OrderNotCompleted}, historyStatus(t, e, open.OrderID))
}
