package sqldb

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"GophShop/internal/model"
	"GophShop/internal/repo"
)

// ProductRepo keeps the catalogue in the products table.
type ProductRepo struct {
	db *gorm.DB
}

var _ repo.ProductRepository = (*ProductRepo)(nil)

func (r *ProductRepo) Add(ctx context.Context, name string, price float64, stock int32) (*model.Product, error) {
	if err := checkLen("add product", "name", name, model.ProductNameCap); err != nil {
		return nil, err
	}
	row := productRow{Name: name, Price: price, Stock: stock, Status: int32(model.ProductNormal)}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&productRow{}).
			Where("name = ? AND status <> ?", name, int32(model.ProductDeleted)).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return repo.ErrConflict
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, wrap(repo.CodeWriteFailure, "add product", err)
	}
	p := row.model()
	return &p, nil
}

// Update keeps a deleted product deleted, like the file store.
func (r *ProductRepo) Update(ctx context.Context, p model.Product) error {
	if err := checkLen("update product", "name", p.Name, model.ProductNameCap); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur productRow
		if err := tx.First(&cur, "id = ?", p.ID).Error; err != nil {
			return err
		}
		next := p.WithStock(p.Stock)
		if cur.Status == int32(model.ProductDeleted) {
			next.Status = model.ProductDeleted
		}
		return tx.Model(&productRow{}).Where("id = ?", p.ID).Updates(map[string]any{
			"name":   next.Name,
			"price":  next.Price,
			"stock":  next.Stock,
			"status": int32(next.Status),
		}).Error
	})
	return wrap(repo.CodeWriteFailure, "update product", err)
}

func (r *ProductRepo) first(ctx context.Context, query string, args ...any) (*model.Product, error) {
	var row productRow
	if err := r.db.WithContext(ctx).Where(query, args...).Order("id").First(&row).Error; err != nil {
		return nil, wrap(repo.CodeReadFailure, "get product", err)
	}
	p := row.model()
	return &p, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int32) (*model.Product, error) {
	return r.first(ctx, "id = ? AND status <> ?", id, int32(model.ProductDeleted))
}

func (r *ProductRepo) Lookup(ctx context.Context, id int32) (*model.Product, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *ProductRepo) IDByName(ctx context.Context, name string) (int32, error) {
	p, err := r.first(ctx, "name = ? AND status <> ?", name, int32(model.ProductDeleted))
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (r *ProductRepo) List(ctx context.Context, includeDeleted bool) ([]model.Product, error) {
	return r.Search(ctx, "", includeDeleted)
}

func (r *ProductRepo) Search(ctx context.Context, query string, includeDeleted bool) ([]model.Product, error) {
	q := r.db.WithContext(ctx).Order("id")
	if !includeDeleted {
		q = q.Where("status <> ?", int32(model.ProductDeleted))
	}
	if s := strings.TrimSpace(query); s != "" {
		if id, err := strconv.ParseInt(s, 10, 32); err == nil {
			q = q.Where("id = ?", id)
		} else {
			q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likeArg(s))
		}
	}
	var rows []productRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, wrap(repo.CodeReadFailure, "list products", err)
	}
	out := make([]model.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id int32) error {
	tx := r.db.WithContext(ctx).Model(&productRow{}).
		Where("id = ? AND status <> ?", id, int32(model.ProductDeleted)).
		Update("status", int32(model.ProductDeleted))
	if tx.Error != nil {
		return wrap(repo.CodeDeleteFailure, "delete product", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return repo.NotFound("delete product", "product %d", id)
	}
	return nil
}

func (r *ProductRepo) Restore(ctx context.Context, id int32) error {
	tx := r.db.WithContext(ctx).Model(&productRow{}).
		Where("id = ? AND status = ?", id, int32(model.ProductDeleted)).
		Update("status", gorm.Expr("CASE WHEN stock > 0 THEN ? ELSE ? END", int32(model.ProductNormal), int32(model.ProductOutOfStock)))
	if tx.Error != nil {
		return wrap(repo.CodeWriteFailure, "restore product", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return repo.NotFound("restore product", "product %d is not deleted", id)
	}
	return nil
}

func (r *ProductRepo) MarkOutOfStock(ctx context.Context) (int, error) {
	tx := r.db.WithContext(ctx).Model(&productRow{}).
		Where("status = ? AND stock <= 0", int32(model.ProductNormal)).
		Update("status", int32(model.ProductOutOfStock))
	return int(tx.RowsAffected), wrap(repo.CodeWriteFailure, "mark out of stock", tx.Error)
}

func (r *ProductRepo) AdjustStock(ctx context.Context, id int32, delta int32) (*model.Product, error) {
	var row productRow
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&productRow{}).
			Where("id = ? AND stock >= ? AND stock <= ?", id, -int64(delta), math.MaxInt32-int64(delta)).
			Updates(map[string]any{
				"stock": gorm.Expr("stock + ?", delta),
				"status": gorm.Expr("CASE WHEN status = ? AND stock + ? > 0 THEN ? ELSE status END",
					int32(model.ProductOutOfStock), delta, int32(model.ProductNormal)),
			})
		if res.Error != nil {
			return res.Error
		}
		if err := tx.First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return repo.ErrConflict
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, err
		}
		return nil, wrap(repo.CodeWriteFailure, "adjust stock", err)
	}
	p := row.model()
	return &p, nil
}
