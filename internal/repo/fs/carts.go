package fs

import (
	"context"
	"math"

	"GophShop/internal/model"
	"GophShop/internal/repo"
	"GophShop/internal/repo/fs/recordfile"
)

// CartStore держит строки корзин всех пользователей в одном файле.
type CartStore struct {
	file *recordfile.File[model.CartItem]
}

var _ repo.CartRepository = (*CartStore)(nil)

// NewCartStore opens the carts file at path.
func NewCartStore(path string) (*CartStore, error) {
	f, err := recordfile.Open[model.CartItem](path, cartCodec{})
	if err != nil {
		return nil, err
	}
	return &CartStore{file: f}, nil
}

// File exposes the underlying record file.
func (s *CartStore) File() *recordfile.File[model.CartItem] { return s.file }

func openLine(userID, productID int32) func(model.CartItem) bool {
	return func(x model.CartItem) bool {
		return x.UserID == userID && x.ProductID == productID && x.Open()
	}
}

// Add prefers the open line, then a deleted line of the same pair.
func (s *CartStore) Add(ctx context.Context, userID, productID, count int32) (*model.CartItem, error) {
	rank := func(x model.CartItem) int {
		switch {
		case x.UserID != userID || x.ProductID != productID:
			return 0
		case x.Open():
			return 2
		default:
			return 1
		}
	}
	rec, err := s.file.Upsert(ctx, rank, func(prev model.CartItem, found bool) (model.CartItem, error) {
		switch {
		case found && prev.Open():
			if prev.Count > math.MaxInt32-count {
				return prev, repo.ErrConflict
			}
			prev.Count += count
			return prev, nil
		case found:
			prev.Count = count
			prev.Status = model.CartNotOrdered
			prev.Delivery = model.DeliveryUnset
			return prev, nil
		default:
			return model.CartItem{
				UserID:    userID,
				ProductID: productID,
				Count:     count,
				Status:    model.CartNotOrdered,
				Delivery:  model.DeliveryUnset,
			}, nil
		}
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *CartStore) Update(ctx context.Context, item model.CartItem) error {
	_, _, err := s.file.Mutate(ctx, openLine(item.UserID, item.ProductID),
		func(x model.CartItem) (model.CartItem, error) {
			x.Count = item.Count
			x.Delivery = item.Delivery
			return x, nil
		})
	return err
}

func (s *CartStore) Get(ctx context.Context, userID, productID int32) (*model.CartItem, error) {
	_, c, err := s.file.Find(ctx, openLine(userID, productID))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CartStore) Delete(ctx context.Context, userID, productID int32) error {
	_, _, err := s.file.Mutate(ctx, openLine(userID, productID),
		func(x model.CartItem) (model.CartItem, error) {
			x.Status = model.CartDeleted
			return x, nil
		})
	return err
}

func (s *CartStore) ListOpen(ctx context.Context, userID int32) ([]model.CartItem, error) {
	return s.file.Collect(ctx, func(x model.CartItem) bool { return x.UserID == userID && x.Open() })
}

func (s *CartStore) Checkout(ctx context.Context, userID int32) ([]model.CartItem, error) {
	var consumed []model.CartItem
	n, err := s.file.MutateAll(ctx,
		func(x model.CartItem) bool { return x.UserID == userID && x.Open() && x.Selected() },
		func(x model.CartItem) (model.CartItem, bool) {
			consumed = append(consumed, x)
			x.Status = model.CartDeleted
			return x, true
		})
	if n < len(consumed) {
		consumed = consumed[:n]
	}
	return consumed, err
}
