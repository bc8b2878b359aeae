package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"GophShop/internal/model"
	"GophShop/internal/repo"
)

var (
	openStatus     = []model.OrderStatus{model.OrderNotCompleted}
	archivedStatus = []model.OrderStatus{model.OrderCompleted, model.OrderCancel}
)

// Sweep moves every due NOT_COMPLETED order of the user to COMPLETED in
// both files. An order is due once the clock reaches its arrival time.
// Failures are logged and skipped; the number of completed orders is
// returned.
func (s *OrderService) Sweep(ctx context.Context, userID int32) int {
	items, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		s.log.Warnw("order sweep: list failed", "user_id", userID, "error", err)
		return 0
	}
	open := items[:0]
	for _, it := range items {
		if it.Status == model.OrderNotCompleted {
			open = append(open, it)
		}
	}
	now := s.now().Unix()
	done := 0
	for _, g := range groupByOrder(open, func(o model.OrderItem) int64 { return o.OrderID }) {
		if now < orderArrival(g) {
			continue
		}
		oid := g[0].OrderID
		if _, err := s.orders.SetStatus(ctx, oid, openStatus, model.OrderCompleted); err != nil {
			s.log.Warnw("order sweep: complete failed", "order_id", oid, "error", err)
			continue
		}
		if _, err := s.history.SetStatus(ctx, oid, openStatus, model.OrderCompleted); err != nil && !errors.Is(err, repo.ErrNotFound) {
			s.log.Warnw("order sweep: history mirror failed", "order_id", oid, "error", err)
		}
		s.log.Infow("order completed", "order_id", oid, "user_id", userID)
		done++
	}
	return done
}

// ownedOrder loads the lines of an order that belongs to the user.
func (s *OrderService) ownedOrder(ctx context.Context, sess Session, orderID int64) ([]model.OrderItem, error) {
	lines, err := s.orders.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	var own []model.OrderItem
	for _, l := range lines {
		if l.UserID == sess.UserID && l.Status != model.OrderDeleted {
			own = append(own, l)
		}
	}
	if len(own) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}
	return own, nil
}

// CancelOrder cancels a NOT_COMPLETED order of the user and returns its
// units to stock. Lines flip to CANCEL before restocking; a second
// cancel finds nothing to flip.
func (s *OrderService) CancelOrder(ctx context.Context, sess Session, orderID int64) error {
	if err := requireUser(sess); err != nil {
		return err
	}
	s.Sweep(ctx, sess.UserID)

	lines, err := s.ownedOrder(ctx, sess, orderID)
	if err != nil {
		return err
	}
	if lines[0].Status != model.OrderNotCompleted {
		return ErrOrderNotCancellable
	}
	if _, err := s.orders.SetStatus(ctx, orderID, openStatus, model.OrderCancel); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOrderNotCancellable
		}
		return err
	}
	for _, l := range lines {
		if l.Status != model.OrderNotCompleted {
			continue
		}
		if _, err := s.products.AdjustStock(ctx, l.ProductID, l.Count); err != nil {
			s.log.Errorw("cancel: restock failed", "order_id", orderID, "product_id", l.ProductID, "count", l.Count, "error", err)
		}
	}
	if _, err := s.history.SetStatus(ctx, orderID, openStatus, model.OrderCancel); err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.log.Warnw("cancel: history mirror failed", "order_id", orderID, "error", err)
	}
	s.log.Infow("order cancelled", "order_id", orderID, "user_id", sess.UserID)
	return nil
}

// OrderInfo lists the order fields to change; nil fields stay.
type OrderInfo struct {
	Address  *string
	Delivery *model.Delivery
}

// UpdateOrderInfo rewrites address and/or delivery of a NOT_COMPLETED
// order in the order and history files.
func (s *OrderService) UpdateOrderInfo(ctx context.Context, sess Session, orderID int64, info OrderInfo) error {
	if err := requireUser(sess); err != nil {
		return err
	}
	if info.Address != nil {
		a := strings.TrimSpace(*info.Address)
		if err := validateAddress(a); err != nil {
			return err
		}
		info.Address = &a
	}
	if info.Delivery != nil && !info.Delivery.Valid() {
		return ErrInvalidDelivery
	}
	s.Sweep(ctx, sess.UserID)

	lines, err := s.ownedOrder(ctx, sess, orderID)
	if err != nil {
		return err
	}
	if lines[0].Status != model.OrderNotCompleted {
		return ErrOrderNotEditable
	}
	if info.Address == nil && info.Delivery == nil {
		return nil
	}
	if _, err := s.orders.UpdateInfo(ctx, orderID, info.Address, info.Delivery); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOrderNotEditable
		}
		return err
	}
	if _, err := s.history.UpdateInfo(ctx, orderID, info.Address, info.Delivery); err != nil && !errors.Is(err, repo.ErrNotFound) {
		s.log.Warnw("order edit: history mirror failed", "order_id", orderID, "error", err)
	}
	s.log.Infow("order updated", "order_id", orderID, "user_id", sess.UserID)
	return nil
}

// ClearHistory soft-deletes every archived history line of the user.
func (s *OrderService) ClearHistory(ctx context.Context, sess Session) (int, error) {
	if err := requireUser(sess); err != nil {
		return 0, err
	}
	n, err := s.history.DeleteByUser(ctx, sess.UserID, archivedStatus)
	if err != nil {
		return n, err
	}
	s.log.Infow("history cleared", "user_id", sess.UserID, "lines", n)
	return n, nil
}

func validateAddress(a string) error {
	if a == "" {
		return ErrAddressRequired
	}
	if len(a) > model.AddressCap {
		return ErrAddressTooLong
	}
	return nil
}
