package fs

import (
	"context"
	"math"

	"GophShop/internal/model"
	"GophShop/internal/repo"
	"GophShop/internal/repo/fs/recordfile"
)

// ProductStore хранит каталог товаров в файле.
type ProductStore struct {
	file *recordfile.File[model.Product]
}

var _ repo.ProductRepository = (*ProductStore)(nil)

// NewProductStore opens the products file at path.
func NewProductStore(path string) (*ProductStore, error) {
	f, err := recordfile.Open[model.Product](path, productCodec{})
	if err != nil {
		return nil, err
	}
	return &ProductStore{file: f}, nil
}

// File exposes the underlying record file.
func (s *ProductStore) File() *recordfile.File[model.Product] { return s.file }

func (s *ProductStore) Add(ctx context.Context, name string, price float64, stock int32) (*model.Product, error) {
	if err := checkLen("add product", "name", name, model.ProductNameCap); err != nil {
		return nil, err
	}
	rec, err := s.file.AppendNew(ctx,
		func(x model.Product) bool { return x.Name == name && !x.Deleted() },
		func(id uint32) model.Product {
			return model.Product{ID: int32(id), Name: name, Price: price, Stock: stock, Status: model.ProductNormal}
		})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *ProductStore) Update(ctx context.Context, p model.Product) error {
	if err := checkLen("update product", "name", p.Name, model.ProductNameCap); err != nil {
		return err
	}
	_, _, err := s.file.Mutate(ctx,
		func(x model.Product) bool { return x.ID == p.ID },
		func(x model.Product) (model.Product, error) {
			next := p.WithStock(p.Stock)
			if x.Deleted() {
				next.Status = model.ProductDeleted
			}
			return next, nil
		})
	return err
}

func (s *ProductStore) Get(ctx context.Context, id int32) (*model.Product, error) {
	_, p, err := s.file.Find(ctx, func(x model.Product) bool { return x.ID == id && !x.Deleted() })
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductStore) Lookup(ctx context.Context, id int32) (*model.Product, error) {
	_, p, err := s.file.Find(ctx, func(x model.Product) bool { return x.ID == id })
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductStore) IDByName(ctx context.Context, name string) (int32, error) {
	_, p, err := s.file.Find(ctx, func(x model.Product) bool { return x.Name == name && !x.Deleted() })
	if err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (s *ProductStore) List(ctx context.Context, includeDeleted bool) ([]model.Product, error) {
	return s.file.Collect(ctx, func(x model.Product) bool { return includeDeleted || !x.Deleted() })
}

func (s *ProductStore) Search(ctx context.Context, query string, includeDeleted bool) ([]model.Product, error) {
	return s.file.Collect(ctx, func(x model.Product) bool {
		return (includeDeleted || !x.Deleted()) && matchQuery(query, x.ID, x.Name)
	})
}

func (s *ProductStore) Delete(ctx context.Context, id int32) error {
	_, _, err := s.file.Mutate(ctx,
		func(x model.Product) bool { return x.ID == id },
		func(x model.Product) (model.Product, error) {
			if x.Deleted() {
				return x, repo.NotFound("delete product", "product %d already deleted", id)
			}
			x.Status = model.ProductDeleted
			return x, nil
		})
	return err
}

// Restore brings a deleted product back; a zero stock comes back as
// OUT_OF_STOCK.
func (s *ProductStore) Restore(ctx context.Context, id int32) error {
	_, _, err := s.file.Mutate(ctx,
		func(x model.Product) bool { return x.ID == id },
		func(x model.Product) (model.Product, error) {
			if !x.Deleted() {
				return x, repo.NotFound("restore product", "product %d is not deleted", id)
			}
			x.Status = model.ProductNormal
			if x.Stock <= 0 {
				x.Status = model.ProductOutOfStock
			}
			return x, nil
		})
	return err
}

func (s *ProductStore) MarkOutOfStock(ctx context.Context) (int, error) {
	return s.file.MutateAll(ctx,
		func(x model.Product) bool { return x.Status == model.ProductNormal && x.Stock <= 0 },
		func(x model.Product) (model.Product, bool) {
			x.Status = model.ProductOutOfStock
			return x, true
		})
}

func (s *ProductStore) AdjustStock(ctx context.Context, id int32, delta int32) (*model.Product, error) {
	_, p, err := s.file.Mutate(ctx,
		func(x model.Product) bool { return x.ID == id },
		func(x model.Product) (model.Product, error) {
			stock := int64(x.Stock) + int64(delta)
			if stock < 0 || stock > math.MaxInt32 {
				return x, repo.ErrConflict
			}
			return x.WithStock(int32(stock)), nil
		})
	if err != nil {
		return nil, err
	}
	return &p, nil
}
