package service

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"GophShop/internal/journal"
	"GophShop/internal/model"
	"GophShop/internal/repo/fs"
)

// testEnv: сервисы поверх настоящих файловых хранилищ во временном каталоге.
type testEnv struct {
	dir      string
	stores   *fs.Stores
	journal  *journal.Journal
	now      time.Time
	users    *UserService
	products *ProductService
	carts    *CartService
	orders   *OrderService
	checkout *CheckoutService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	st, err := fs.Open(dir)
	require.NoError(t, err)
	j, err := journal.Open(filepath.Join(dir, "checkouts.journal"))
	require.NoError(t, err)

	log := zap.NewNop().Sugar()
	e := &testEnv{dir: dir, stores: st, journal: j, now: time.Unix(1_700_000_000, 0)}
	clock := func() time.Time { return e.now }

	e.users = NewUserService(st.Users, log)
	e.users.cost = bcrypt.MinCost
	e.products = NewProductService(st.Products, log)
	e.carts = NewCartService(st.Carts, st.Products, log)
	e.orders = NewOrderService(st.Orders, st.History, st.Products, log).WithClock(clock)
	e.checkout = NewCheckoutService(st.Carts, st.Products, st.Orders, st.History, j, log).WithClock(clock)
	return e
}

var admin = Session{UserID: 1, Username: "root", IsAdmin: true}

// seedProducts adds n products named p1..pn with the given price and stock.
func (e *testEnv) seedProducts(t *testing.T, n int, price float64, stock int32) []model.Product {
	t.Helper()
	out := make([]model.Product, 0, n)
	for i := 1; i <= n; i++ {
		p, err := e.products.Add(context.Background(), admin, "p"+strconv.Itoa(i), price, stock)
		require.NoError(t, err)
		out = append(out, *p)
	}
	return out
}

// buy puts count units of productID into the cart with delivery d.
func (e *testEnv) buy(t *testing.T, sess Session, productID, count int32, d model.Delivery) {
	t.Helper()
	ctx := context.Background()
	_, err := e.carts.Add(ctx, sess, productID, count)
	require.NoError(t, err)
	require.NoError(t, e.carts.Select(ctx, sess, productID, d))
}
