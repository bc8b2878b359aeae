package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"GophShop/internal/journal"
	"GophShop/internal/model"
	"GophShop/internal/repo"
)

// Journal is the write-ahead log of checkouts.
type Journal interface {
	Begin(ctx context.Context, plan journal.Plan) (uuid.UUID, error)
	Mark(ctx context.Context, id uuid.UUID, step journal.Step) error
	Pending(ctx context.Context) ([]journal.Pending, error)
	Compact(ctx context.Context) error
}

// CheckoutService превращает выбранные строки корзины в заказ.
type CheckoutService struct {
	carts    repo.CartRepository
	products repo.ProductRepository
	orders   repo.OrderRepository
	history  repo.HistoryRepository
	journal  Journal
	log      *zap.SugaredLogger
	now      Clock
}

// NewCheckoutService creates a CheckoutService on the wall clock.
func NewCheckoutService(carts repo.CartRepository, products repo.ProductRepository, orders repo.OrderRepository,
	history repo.HistoryRepository, j Journal, log *zap.SugaredLogger) *CheckoutService {
	return &CheckoutService{carts: carts, products: products, orders: orders, history: history, journal: j, log: log, now: time.Now}
}

// WithClock replaces the time source.
func (s *CheckoutService) WithClock(c Clock) *CheckoutService {
	s.now = c
	return s
}

// maxOrderTimeShift bounds the search for a free order id when the user
// already has an order placed in the same second.
const maxOrderTimeShift = 60

// Checkout places an order from the selected cart lines of the user.
// Everything is validated before the cart is touched; the steps that
// follow are journaled and finished by Recover after a crash.
func (s *CheckoutService) Checkout(ctx context.Context, sess Session, address string) (*model.FullOrder, error) {
	if err := requireUser(sess); err != nil {
		return nil, err
	}
	address = strings.TrimSpace(address)
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	open, err := s.carts.ListOpen(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	var selected []model.CartItem
	for _, it := range open {
		if it.Selected() {
			selected = append(selected, it)
		}
	}
	if len(selected) == 0 {
		return nil, ErrNothingSelected
	}

	snapshot := make([]journal.Product, 0, len(selected))
	for _, it := range selected {
		if !it.Delivery.Valid() {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidDelivery, it.ProductID)
		}
		if it.Count <= 0 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidCount, it.ProductID)
		}
		p, err := s.products.Get(ctx, it.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrProductUnavailable, it.ProductID)
		}
		if err != nil {
			return nil, err
		}
		if p.Stock < it.Count {
			return nil, fmt.Errorf("%w: %s has %d, requested %d", ErrInsufficientStock, p.Name, p.Stock, it.Count)
		}
		snapshot = append(snapshot, journal.Product{ID: p.ID, Name: p.Name, Price: p.Price})
	}

	orderTime, err := s.freeOrderTime(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	plan := journal.Plan{
		UserID:    sess.UserID,
		OrderTime: orderTime,
		Address:   address,
		Lines:     selected,
		Products:  snapshot,
	}
	id, err := s.journal.Begin(ctx, plan)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, id, plan, map[journal.Step]bool{}); err != nil {
		s.log.Errorw("checkout interrupted", "checkout_id", id, "order_id", plan.OrderID(), "error", err)
		return nil, err
	}
	s.log.Infow("checkout done", "checkout_id", id, "order_id", plan.OrderID(), "user_id", sess.UserID, "lines", len(plan.Lines))
	fo := planOrder(plan)
	return &fo, nil
}

func (s *CheckoutService) freeOrderTime(ctx context.Context, userID int32) (int64, error) {
	t := s.now().Unix()
	for i := 0; i < maxOrderTimeShift; i++ {
		taken, err := s.orders.Exists(ctx, model.OrderIDFor(t, userID))
		if err != nil {
			return 0, err
		}
		if !taken {
			return t, nil
		}
		t++
	}
	return 0, fmt.Errorf("no free order id near %d for user %d", s.now().Unix(), userID)
}

// apply runs the steps of plan not yet in done, marking each one.
func (s *CheckoutService) apply(ctx context.Context, id uuid.UUID, plan journal.Plan, done map[journal.Step]bool) error {
	step := func(name journal.Step, fn func() error) error {
		if done[name] {
			return nil
		}
		if err := fn(); err != nil {
			return fmt.Errorf("checkout step %s: %w", name, err)
		}
		return s.journal.Mark(ctx, id, name)
	}

	oid := plan.OrderID()
	if err := step(journal.StepCart, func() error {
		rows, err := s.carts.Checkout(ctx, plan.UserID)
		if err == nil && !sameLines(rows, plan.Lines) {
			// заказ строится по журналу: корзину могли списать до сбоя
			s.log.Warnw("checkout: consumed cart differs from plan", "order_id", oid, "consumed", len(rows), "planned", len(plan.Lines))
		}
		return err
	}); err != nil {
		return err
	}
	if err := step(journal.StepOrder, func() error {
		if ok, err := s.orders.Exists(ctx, oid); err != nil || ok {
			return err
		}
		return s.orders.Append(ctx, planItems(plan))
	}); err != nil {
		return err
	}
	if err := step(journal.StepHistory, func() error {
		if ok, err := s.history.Exists(ctx, oid); err != nil || ok {
			return err
		}
		return s.history.Append(ctx, planHistory(plan))
	}); err != nil {
		return err
	}
	for _, l := range plan.Lines {
		if err := step(journal.StockStep(l.ProductID), func() error {
			_, err := s.products.AdjustStock(ctx, l.ProductID, -l.Count)
			if errors.Is(err, repo.ErrConflict) || errors.Is(err, repo.ErrNotFound) {
				// заказ уже принят; расхождение остатка только фиксируем
				s.log.Errorw("checkout: stock decrement skipped", "order_id", oid, "product_id", l.ProductID, "count", l.Count, "error", err)
				return nil
			}
			return err
		}); err != nil {
			return err
		}
	}
	if err := s.journal.Mark(ctx, id, journal.StepDone); err != nil {
		return err
	}
	if err := s.journal.Compact(ctx); err != nil {
		s.log.Warnw("journal compact failed", "error", err)
	}
	return nil
}

// Recover finishes checkouts interrupted by a crash and returns how many
// were completed.
func (s *CheckoutService) Recover(ctx context.Context) (int, error) {
	pending, err := s.journal.Pending(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	var errs []error
	for _, p := range pending {
		if err := s.apply(ctx, p.ID, p.Plan, p.Done); err != nil {
			// запись остается в журнале до следующего запуска
			errs = append(errs, fmt.Errorf("recover checkout %s: %w", p.ID, err))
			continue
		}
		s.log.Warnw("interrupted checkout recovered", "checkout_id", p.ID, "order_id", p.Plan.OrderID())
		n++
	}
	return n, errors.Join(errs...)
}

// sameLines reports whether the consumed rows match the planned lines.
func sameLines(rows, plan []model.CartItem) bool {
	if len(rows) != len(plan) {
		return false
	}
	for i := range rows {
		r, p := rows[i], plan[i]
		if r.ProductID != p.ProductID || r.Count != p.Count || r.Delivery != p.Delivery {
			return false
		}
	}
	return true
}

func planProduct(plan journal.Plan, id int32) journal.Product {
	for _, p := range plan.Products {
		if p.ID == id {
			return p
		}
	}
	return journal.Product{ID: id}
}

func planItems(plan journal.Plan) []model.OrderItem {
	oid := plan.OrderID()
	items := make([]model.OrderItem, 0, len(plan.Lines))
	for _, l := range plan.Lines {
		items = append(items, model.OrderItem{
			UserID:    plan.UserID,
			ProductID: l.ProductID,
			OrderID:   oid,
			Count:     l.Count,
			OrderTime: plan.OrderTime,
			Delivery:  l.Delivery,
			Address:   plan.Address,
			Status:    model.OrderNotCompleted,
		})
	}
	return items
}

func planHistory(plan journal.Plan) []model.HistoryOrderItem {
	items := planItems(plan)
	out := make([]model.HistoryOrderItem, 0, len(items))
	for _, it := range items {
		p := planProduct(plan, it.ProductID)
		out = append(out, model.HistoryOrderItem{OrderItem: it, ProductName: p.Name, Price: p.Price})
	}
	return out
}

func planOrder(plan journal.Plan) model.FullOrder {
	items := planItems(plan)
	fo := model.FullOrder{
		OrderID:     plan.OrderID(),
		UserID:      plan.UserID,
		OrderTime:   plan.OrderTime,
		ArrivalTime: orderArrival(items),
		Address:     plan.Address,
		Delivery:    items[0].Delivery,
		Status:      model.OrderNotCompleted,
	}
	counts := make([]int32, 0, len(items))
	prices := make([]float64, 0, len(items))
	for _, it := range items {
		p := planProduct(plan, it.ProductID)
		fo.Lines = append(fo.Lines, model.OrderLine{Item: it, ProductName: p.Name, UnitPrice: p.Price, Available: true})
		counts = append(counts, it.Count)
		prices = append(prices, p.Price)
	}
	fo.TotalPrice = orderTotal(counts, prices, fo.Delivery)
	return fo
}
