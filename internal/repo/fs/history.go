package fs

import (
	"context"

	"GophShop/internal/model"
	"GophShop/internal/repo"
	"GophShop/internal/repo/fs/recordfile"
)

// HistoryStore is the file of order snapshots.
type HistoryStore struct {
	lines[model.HistoryOrderItem]
}

var _ repo.HistoryRepository = (*HistoryStore)(nil)

// NewHistoryStore opens the history file at path.
func NewHistoryStore(path string) (*HistoryStore, error) {
	f, err := recordfile.Open[model.HistoryOrderItem](path, historyCodec{})
	if err != nil {
		return nil, err
	}
	return &HistoryStore{lines[model.HistoryOrderItem]{
		file: f,
		item: func(h *model.HistoryOrderItem) *model.OrderItem { return &h.OrderItem },
		name: "history",
	}}, nil
}

// File exposes the underlying record file.
func (s *HistoryStore) File() *recordfile.File[model.HistoryOrderItem] { return s.file }

func (s *HistoryStore) Append(ctx context.Context, items []model.HistoryOrderItem) error {
	for _, it := range items {
		if err := checkLen("append history", "address", it.Address, model.AddressCap); err != nil {
			return err
		}
		if err := checkLen("append history", "product name", it.ProductName, model.ProductNameCap); err != nil {
			return err
		}
	}
	return s.file.Append(ctx, items...)
}

func (s *HistoryStore) Exists(ctx context.Context, orderID int64) (bool, error) {
	return s.exists(ctx, orderID)
}

func (s *HistoryStore) ListByUser(ctx context.Context, userID int32) ([]model.HistoryOrderItem, error) {
	return s.listByUser(ctx, userID)
}

func (s *HistoryStore) SetStatus(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (int, error) {
	return s.setStatus(ctx, orderID, from, to)
}

func (s *HistoryStore) UpdateInfo(ctx context.Context, orderID int64, address *string, delivery *model.Delivery) (int, error) {
	return s.updateInfo(ctx, orderID, address, delivery)
}

func (s *HistoryStore) DeleteByUser(ctx context.Context, userID int32, from []model.OrderStatus) (int, error) {
	return s.file.MutateAll(ctx,
		func(x model.HistoryOrderItem) bool {
			return x.UserID == userID && repo.StatusIn(x.Status, from, model.OrderDeleted)
		},
		func(x model.HistoryOrderItem) (model.HistoryOrderItem, bool) {
			x.Status = model.OrderDeleted
			return x, true
		})
}
