// Package bootstrap собирает приложение магазина из конфигурации:
// логгер, хранилище выбранного бэкенда, журнал оформления и сервисы.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"GophShop/internal/auth"
	"GophShop/internal/config"
	"GophShop/internal/journal"
	"GophShop/internal/logging"
	"GophShop/internal/repo"
	fsrepo "GophShop/internal/repo/fs"
	"GophShop/internal/repo/sqldb"
	"GophShop/internal/service"
)

// ErrNotLoggedIn is returned by Session when no usable token is stored.
var ErrNotLoggedIn = errors.New("нет активного пользователя: выполните login/register")

// App holds the services of one CLI invocation.
type App struct {
	Log      *zap.SugaredLogger
	Users    *service.UserService
	Products *service.ProductService
	Carts    *service.CartService
	Orders   *service.OrderService
	Checkout *service.CheckoutService

	signer  *auth.Signer
	tokens  auth.TokenFile
	closers []func() error
}

// stores: пять портов одного бэкенда.
type stores struct {
	users    repo.UserRepository
	products repo.ProductRepository
	carts    repo.CartRepository
	orders   repo.OrderRepository
	history  repo.HistoryRepository
}

// LogOutput is where console logs go; tests replace it.
var LogOutput io.Writer = os.Stderr

func openStores(cfg *config.Config) (stores, func() error, error) {
	switch cfg.Backend {
	case config.BackendSQL:
		st, err := sqldb.Open(cfg.DatabaseDSN)
		if err != nil {
			return stores{}, nil, fmt.Errorf("open database: %w", err)
		}
		return stores{st.Users, st.Products, st.Carts, st.Orders, st.History}, st.Close, nil
	default:
		st, err := fsrepo.Open(cfg.DataDir)
		if err != nil {
			return stores{}, nil, fmt.Errorf("open data files: %w", err)
		}
		return stores{st.Users, st.Products, st.Carts, st.Orders, st.History}, func() error { return nil }, nil
	}
}

// Open builds the application and rolls pending checkouts forward.
// Close must be called when the command is done.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	log, syncLog, err := logging.New(cfg.LogLevel, cfg.LogFile, LogOutput)
	if err != nil {
		return nil, err
	}
	app := &App{
		Log:     log,
		signer:  auth.NewSigner(cfg.SessionSecret, cfg.SessionTTL),
		tokens:  auth.TokenFile{Path: cfg.SessionFile},
		closers: []func() error{func() error { syncLog(); return nil }},
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	st, closeStores, err := openStores(cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeStores)

	j, err := journal.Open(cfg.JournalPath())
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Users = service.NewUserService(st.users, log)
	app.Products = service.NewProductService(st.products, log)
	app.Carts = service.NewCartService(st.carts, st.products, log)
	app.Orders = service.NewOrderService(st.orders, st.history, st.products, log)
	app.Checkout = service.NewCheckoutService(st.carts, st.products, st.orders, st.history, j, log)

	n, err := app.Checkout.Recover(ctx)
	if err != nil {
		log.Errorw("pending checkouts left in journal", "recovered", n, "error", err)
	}
	if n > 0 {
		log.Infow("pending checkouts recovered", "count", n, "backend", cfg.Backend)
	}
	return app, nil
}

// Close releases storage in reverse order; the logger is flushed last.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Session resolves the stored token into a live session. Deleted users
// and changed admin rights are picked up from storage.
func (a *App) Session(ctx context.Context) (service.Session, error) {
	tok, err := a.tokens.Load()
	if errors.Is(err, auth.ErrNoSession) {
		return service.Session{}, ErrNotLoggedIn
	}
	if err != nil {
		return service.Session{}, fmt.Errorf("read session: %w", err)
	}
	claims, err := a.signer.Parse(tok)
	if err != nil {
		return service.Session{}, fmt.Errorf("%w: %v", ErrNotLoggedIn, err)
	}
	sess, err := a.Users.Resume(ctx, service.Session{UserID: claims.UserID, Username: claims.Username, IsAdmin: claims.Admin})
	if errors.Is(err, service.ErrInvalidCredentials) {
		_ = a.tokens.Clear()
		return service.Session{}, ErrNotLoggedIn
	}
	if err != nil {
		return service.Session{}, err
	}
	return sess, nil
}

// StartSession signs and stores a token for sess.
func (a *App) StartSession(sess service.Session) error {
	tok, err := a.signer.Issue(sess.UserID, sess.Username, sess.IsAdmin)
	if err != nil {
		return err
	}
	if err := a.tokens.Save(tok); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	a.Log.Debugw("session started", "user_id", sess.UserID)
	return nil
}

// EndSession removes the stored token.
func (a *App) EndSession() error {
	return a.tokens.Clear()
}
