package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"GophShop/internal/model"
	"GophShop/internal/repo"
)

// ProductService manages the catalogue.
type ProductService struct {
	repo repo.ProductRepository
	log  *zap.SugaredLogger
}

// NewProductService creates a ProductService.
func NewProductService(r repo.ProductRepository, log *zap.SugaredLogger) *ProductService {
	return &ProductService{repo: r, log: log}
}

// Load refreshes OUT_OF_STOCK flags and returns the catalogue. Admins
// also see deleted products.
func (s *ProductService) Load(ctx context.Context, sess Session) ([]model.Product, error) {
	s.maintain(ctx)
	return s.repo.List(ctx, sess.IsAdmin)
}

// Search matches by exact id or name substring.
func (s *ProductService) Search(ctx context.Context, sess Session, query string) ([]model.Product, error) {
	s.maintain(ctx)
	return s.repo.Search(ctx, query, sess.IsAdmin)
}

func (s *ProductService) maintain(ctx context.Context) {
	n, err := s.repo.MarkOutOfStock(ctx)
	if err != nil {
		s.log.Warnw("mark out of stock failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Debugw("products marked out of stock", "count", n)
	}
}

// Get returns a visible product.
func (s *ProductService) Get(ctx context.Context, id int32) (*model.Product, error) {
	return s.repo.Get(ctx, id)
}

// PriceByID returns the current price of a product in any status.
func (s *ProductService) PriceByID(ctx context.Context, id int32) (float64, error) {
	p, err := s.repo.Lookup(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.Price, nil
}

func validateProduct(name string, price float64, stock int32) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidProduct)
	case len(name) > model.ProductNameCap:
		return fmt.Errorf("%w: name is longer than %d bytes", ErrInvalidProduct, model.ProductNameCap)
	case price < 0 || math.IsNaN(price) || math.IsInf(price, 0):
		return fmt.Errorf("%w: price must be a non-negative number", ErrInvalidProduct)
	case stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	return nil
}

// Add creates a product (admin only).
func (s *ProductService) Add(ctx context.Context, sess Session, name string, price float64, stock int32) (*model.Product, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if err := validateProduct(name, price, stock); err != nil {
		return nil, err
	}
	p, err := s.repo.Add(ctx, name, price, stock)
	if errors.Is(err, repo.ErrConflict) {
		return nil, ErrProductExists
	}
	if err != nil {
		return nil, err
	}
	s.log.Infow("product added", "product_id", p.ID, "name", p.Name, "by", sess.UserID)
	return p, nil
}

// ProductEdit lists the fields to change; nil fields stay as they are.
type ProductEdit struct {
	Name  *string
	Price *float64
	Stock *int32
}

// Edit changes a product in any status (admin only). Past history lines
// keep the price they were bought at.
func (s *ProductService) Edit(ctx context.Context, sess Session, id int32, edit ProductEdit) (*model.Product, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	p, err := s.repo.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *p
	if edit.Name != nil {
		next.Name = strings.TrimSpace(*edit.Name)
	}
	if edit.Price != nil {
		next.Price = *edit.Price
	}
	if edit.Stock != nil {
		next.Stock = *edit.Stock
	}
	if err := validateProduct(next.Name, next.Price, next.Stock); err != nil {
		return nil, err
	}
	if next.Name != p.Name {
		if other, err := s.repo.IDByName(ctx, next.Name); err == nil && other != id {
			return nil, ErrProductExists
		} else if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return nil, err
		}
	}
	next = next.WithStock(next.Stock)
	if err := s.repo.Update(ctx, next); err != nil {
		return nil, err
	}
	s.log.Infow("product updated", "product_id", id, "by", sess.UserID)
	return s.repo.Lookup(ctx, id)
}

// Delete soft-deletes a product (admin only).
func (s *ProductService) Delete(ctx context.Context, sess Session, id int32) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Infow("product deleted", "product_id", id, "by", sess.UserID)
	return nil
}

// Restore brings a deleted product back (admin only).
func (s *ProductService) Restore(ctx context.Context, sess Session, id int32) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	p, err := s.repo.Lookup(ctx, id)
	if err != nil {
		return err
	}
	if other, err := s.repo.IDByName(ctx, p.Name); err == nil && other != id {
		return ErrProductExists
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	s.log.Infow("product restored", "product_id", id, "by", sess.UserID)
	return nil
}
