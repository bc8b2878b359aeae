package sqldb

import (
	"context"
	"errors"
	"math"

	"gorm.io/gorm"

	"GophShop/internal/model"
	"GophShop/internal/repo"
)

// CartRepo хранит строки корзин в таблице cart_items.
type CartRepo struct {
	db *gorm.DB
}

var _ repo.CartRepository = (*CartRepo)(nil)

func openPair(tx *gorm.DB, userID, productID int32) *gorm.DB {
	return tx.Where("user_id = ? AND product_id = ? AND status = ?", userID, productID, int32(model.CartNotOrdered))
}

func (r *CartRepo) Add(ctx context.Context, userID, productID, count int32) (*model.CartItem, error) {
	var row cartRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := openPair(tx, userID, productID).Order("row_id").First(&row).Error
		if err == nil {
			if row.Count > math.MaxInt32-count {
				return repo.ErrConflict
			}
			row.Count += count
			return tx.Save(&row).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		err = tx.Where("user_id = ? AND product_id = ?", userID, productID).Order("row_id").First(&row).Error
		switch {
		case err == nil:
			row.Count = count
			row.Status = int32(model.CartNotOrdered)
			row.Delivery = int32(model.DeliveryUnset)
			return tx.Save(&row).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = cartRow{
				UserID:    userID,
				ProductID: productID,
				Count:     count,
				Status:    int32(model.CartNotOrdered),
				Delivery:  int32(model.DeliveryUnset),
			}
			return tx.Create(&row).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, wrap(repo.CodeWriteFailure, "add cart item", err)
	}
	c := row.model()
	return &c, nil
}

func (r *CartRepo) Update(ctx context.Context, item model.CartItem) error {
	tx := openPair(r.db.WithContext(ctx).Model(&cartRow{}), item.UserID, item.ProductID).
		Updates(map[string]any{"count": item.Count, "delivery": int32(item.Delivery)})
	if tx.Error != nil {
		return wrap(repo.CodeWriteFailure, "update cart item", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return repo.NotFound("update cart item", "user %d product %d", item.UserID, item.ProductID)
	}
	return nil
}

func (r *CartRepo) Get(ctx context.Context, userID, productID int32) (*model.CartItem, error) {
	var row cartRow
	if err := openPair(r.db.WithContext(ctx), userID, productID).Order("row_id").First(&row).Error; err != nil {
		return nil, wrap(repo.CodeReadFailure, "get cart item", err)
	}
	c := row.model()
	return &c, nil
}

func (r *CartRepo) Delete(ctx context.Context, userID, productID int32) error {
	tx := openPair(r.db.WithContext(ctx).Model(&cartRow{}), userID, productID).
		Update("status", int32(model.CartDeleted))
	if tx.Error != nil {
		return wrap(repo.CodeDeleteFailure, "delete cart item", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return repo.NotFound("delete cart item", "user %d product %d", userID, productID)
	}
	return nil
}

func (r *CartRepo) ListOpen(ctx context.Context, userID int32) ([]model.CartItem, error) {
	var rows []cartRow
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, int32(model.CartNotOrdered)).
		Order("row_id").Find(&rows).Error
	if err != nil {
		return nil, wrap(repo.CodeReadFailure, "list cart", err)
	}
	return cartModels(rows), nil
}

func (r *CartRepo) Checkout(ctx context.Context, userID int32) ([]model.CartItem, error) {
	var rows []cartRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND status = ? AND delivery <> ?",
			userID, int32(model.CartNotOrdered), int32(model.DeliveryUnset)).
			Order("row_id").Find(&rows).Error
		if err != nil || len(rows) == 0 {
			return err
		}
		ids := make([]int64, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.RowID)
		}
		return tx.Model(&cartRow{}).Where("row_id IN ?", ids).Update("status", int32(model.CartDeleted)).Error
	})
	if err != nil {
		return nil, wrap(repo.CodeWriteFailure, "checkout cart", err)
	}
	return cartModels(rows), nil
}

func cartModels(rows []cartRow) []model.CartItem {
	out := make([]model.CartItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out
}
