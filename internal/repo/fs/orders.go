package fs

import (
	"context"
	"errors"

	"GophShop/internal/model"
	"GophShop/internal/repo"
	"GophShop/internal/repo/fs/recordfile"
)

// lines holds the order-line operations shared by the orders and history
// files. item projects a record onto its order part.
type lines[T any] struct {
	file *recordfile.File[T]
	item func(*T) *model.OrderItem
	name string
}

func (l lines[T]) get(rec T) model.OrderItem { return *l.item(&rec) }

func (l lines[T]) exists(ctx context.Context, orderID int64) (bool, error) {
	_, _, err := l.file.Find(ctx, func(x T) bool { return l.get(x).OrderID == orderID })
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (l lines[T]) listByUser(ctx context.Context, userID int32) ([]T, error) {
	return l.file.Collect(ctx, func(x T) bool {
		o := l.get(x)
		return o.UserID == userID && o.Status != model.OrderDeleted
	})
}

func (l lines[T]) setStatus(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (int, error) {
	n, err := l.file.MutateAll(ctx,
		func(x T) bool {
			o := l.get(x)
			return o.OrderID == orderID && repo.StatusIn(o.Status, from, to)
		},
		func(x T) (T, bool) {
			l.item(&x).Status = to
			return x, true
		})
	if err == nil && n == 0 {
		err = repo.NotFound("set "+l.name+" status", "no line of order %d can move to %s", orderID, to)
	}
	return n, err
}

func (l lines[T]) updateInfo(ctx context.Context, orderID int64, address *string, delivery *model.Delivery) (int, error) {
	if address != nil {
		if err := checkLen("update "+l.name, "address", *address, model.AddressCap); err != nil {
			return 0, err
		}
	}
	n, err := l.file.MutateAll(ctx,
		func(x T) bool {
			o := l.get(x)
			return o.OrderID == orderID && o.Status == model.OrderNotCompleted
		},
		func(x T) (T, bool) {
			o := l.item(&x)
			if address != nil {
				o.Address = *address
			}
			if delivery != nil {
				o.Delivery = *delivery
			}
			return x, true
		})
	if err == nil && n == 0 {
		err = repo.NotFound("update "+l.name, "order %d has no open lines", orderID)
	}
	return n, err
}

// OrderStore is the file of order lines.
type OrderStore struct {
	lines[model.OrderItem]
}

var _ repo.OrderRepository = (*OrderStore)(nil)

// NewOrderStore opens the orders file at path.
func NewOrderStore(path string) (*OrderStore, error) {
	f, err := recordfile.Open[model.OrderItem](path, orderCodec{})
	if err != nil {
		return nil, err
	}
	return &OrderStore{lines[model.OrderItem]{
		file: f,
		item: func(o *model.OrderItem) *model.OrderItem { return o },
		name: "order",
	}}, nil
}

// File exposes the underlying record file.
func (s *OrderStore) File() *recordfile.File[model.OrderItem] { return s.file }

func (s *OrderStore) Append(ctx context.Context, items []model.OrderItem) error {
	for _, it := range items {
		if err := checkLen("append order", "address", it.Address, model.AddressCap); err != nil {
			return err
		}
	}
	return s.file.Append(ctx, items...)
}

func (s *OrderStore) Exists(ctx context.Context, orderID int64) (bool, error) {
	return s.exists(ctx, orderID)
}

func (s *OrderStore) ListByUser(ctx context.Context, userID int32) ([]model.OrderItem, error) {
	return s.listByUser(ctx, userID)
}

func (s *OrderStore) ListByOrder(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return s.file.Collect(ctx, func(x model.OrderItem) bool { return x.OrderID == orderID })
}

func (s *OrderStore) SetStatus(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (int, error) {
	return s.setStatus(ctx, orderID, from, to)
}

func (s *OrderStore) UpdateInfo(ctx context.Context, orderID int64, address *string, delivery *model.Delivery) (int, error) {
	return s.updateInfo(ctx, orderID, address, delivery)
}
