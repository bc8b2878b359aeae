package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"GophShop/internal/model"
	"GophShop/internal/repo"
)

// OrderService ведёт заказы и историю пользователя и переводит их статусы.
type OrderService struct {
	orders   repo.OrderRepository
	history  repo.HistoryRepository
	products repo.ProductRepository
	log      *zap.SugaredLogger
	now      Clock
}

// NewOrderService creates an OrderService on the wall clock.
func NewOrderService(orders repo.OrderRepository, history repo.HistoryRepository, products repo.ProductRepository, log *zap.SugaredLogger) *OrderService {
	return &OrderService{orders: orders, history: history, products: products, log: log, now: time.Now}
}

// WithClock replaces the time source.
func (s *OrderService) WithClock(c Clock) *OrderService {
	s.now = c
	return s
}

// groupByOrder splits lines by order id keeping first-seen order.
func groupByOrder[T any](lines []T, id func(T) int64) [][]T {
	idx := map[int64]int{}
	var groups [][]T
	for _, l := range lines {
		k := id(l)
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], l)
	}
	return groups
}

// orderArrival is the earliest arrival among the lines: the order counts as
// delivered once any of its lines is due.
func orderArrival(lines []model.OrderItem) int64 {
	var at int64
	for i, l := range lines {
		if a := l.ArrivalTime(); i == 0 || a < at {
			at = a
		}
	}
	return at
}

func orderTotal(counts []int32, prices []float64, d model.Delivery) float64 {
	total := decimal.NewFromFloat(d.Surcharge())
	for i := range counts {
		total = total.Add(decimal.NewFromInt32(counts[i]).Mul(decimal.NewFromFloat(prices[i])))
	}
	return total.Round(2).InexactFloat64()
}

// LoadOrders completes due orders and returns the user's orders with live
// product data.
func (s *OrderService) LoadOrders(ctx context.Context, sess Session) ([]model.FullOrder, error) {
	if err := requireUser(sess); err != nil {
		return nil, err
	}
	s.Sweep(ctx, sess.UserID)

	items, err := s.orders.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	cache := map[int32]*model.Product{}
	lookup := func(id int32) (*model.Product, error) {
		if p, ok := cache[id]; ok {
			return p, nil
		}
		p, err := s.products.Lookup(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			p, err = nil, nil
		}
		if err != nil {
			return nil, err
		}
		cache[id] = p
		return p, nil
	}

	groups := groupByOrder(items, func(o model.OrderItem) int64 { return o.OrderID })
	out := make([]model.FullOrder, 0, len(groups))
	for _, g := range groups {
		first := g[0]
		fo := model.FullOrder{
			OrderID:     first.OrderID,
			UserID:      first.UserID,
			OrderTime:   first.OrderTime,
			ArrivalTime: orderArrival(g),
			Address:     first.Address,
			Delivery:    first.Delivery,
			Status:      first.Status,
		}
		counts := make([]int32, 0, len(g))
		prices := make([]float64, 0, len(g))
		for _, it := range g {
			line := model.OrderLine{Item: it}
			p, err := lookup(it.ProductID)
			if err != nil {
				return nil, err
			}
			if p != nil {
				line.ProductName = p.Name
				line.UnitPrice = p.Price
				line.Available = true
			}
			fo.Lines = append(fo.Lines, line)
			counts = append(counts, it.Count)
			prices = append(prices, line.UnitPrice)
		}
		fo.TotalPrice = orderTotal(counts, prices, fo.Delivery)
		out = append(out, fo)
	}
	return out, nil
}

// LoadHistory completes due orders and returns the archived (completed or
// cancelled) orders of the user with the prices paid.
func (s *OrderService) LoadHistory(ctx context.Context, sess Session) ([]model.HistoryFullOrder, error) {
	if err := requireUser(sess); err != nil {
		return nil, err
	}
	s.Sweep(ctx, sess.UserID)

	items, err := s.history.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	archived := items[:0]
	for _, it := range items {
		if it.Status.Archived() {
			archived = append(archived, it)
		}
	}
	groups := groupByOrder(archived, func(h model.HistoryOrderItem) int64 { return h.OrderID })
	out := make([]model.HistoryFullOrder, 0, len(groups))
	for _, g := range groups {
		first := g[0]
		ho := model.HistoryFullOrder{
			OrderID:   first.OrderID,
			UserID:    first.UserID,
			OrderTime: first.OrderTime,
			Address:   first.Address,
			Delivery:  first.Delivery,
			Status:    first.Status,
			Items:     g,
		}
		counts := make([]int32, 0, len(g))
		prices := make([]float64, 0, len(g))
		for _, it := range g {
			counts = append(counts, it.Count)
			prices = append(prices, it.Price)
		}
		ho.TotalPrice = orderTotal(counts, prices, ho.Delivery)
		out = append(out, ho)
	}
	return out, nil
}
