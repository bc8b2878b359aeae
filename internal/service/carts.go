package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"GophShop/internal/model"
	"GophShop/internal/repo"
)

// CartLine is an open cart line joined with the live product.
type CartLine struct {
	Item        model.CartItem
	ProductName string
	UnitPrice   float64
	Stock       int32
	Available   bool // товар существует, не удалён и есть на складе
}

// Subtotal is count × unit price, rounded to cents.
func (l CartLine) Subtotal() float64 {
	return decimal.NewFromInt32(l.Item.Count).Mul(decimal.NewFromFloat(l.UnitPrice)).Round(2).InexactFloat64()
}

// CartService manages the cart of the current user.
type CartService struct {
	carts    repo.CartRepository
	products repo.ProductRepository
	log      *zap.SugaredLogger
}

// NewCartService creates a CartService.
func NewCartService(carts repo.CartRepository, products repo.ProductRepository, log *zap.SugaredLogger) *CartService {
	return &CartService{carts: carts, products: products, log: log}
}

// Load returns the open lines of the user's cart.
func (s *CartService) Load(ctx context.Context, sess Session) ([]CartLine, error) {
	if err := requireUser(sess); err != nil {
		return nil, err
	}
	items, err := s.carts.ListOpen(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]CartLine, 0, len(items))
	for _, it := range items {
		line := CartLine{Item: it}
		p, err := s.products.Lookup(ctx, it.ProductID)
		switch {
		case err == nil:
			line.ProductName = p.Name
			line.UnitPrice = p.Price
			line.Stock = p.Stock
			line.Available = !p.Deleted() && p.Stock > 0
		case errors.Is(err, repo.ErrNotFound):
			s.log.Warnw("cart line references missing product", "user_id", sess.UserID, "product_id", it.ProductID)
		default:
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}

// SelectedTotal sums the selected lines and one delivery surcharge taken
// from the first selected line.
func SelectedTotal(lines []CartLine) float64 {
	total := decimal.Zero
	first := true
	for _, l := range lines {
		if !l.Item.Selected() {
			continue
		}
		total = total.Add(decimal.NewFromInt32(l.Item.Count).Mul(decimal.NewFromFloat(l.UnitPrice)))
		if first {
			total = total.Add(decimal.NewFromFloat(l.Item.Delivery.Surcharge()))
			first = false
		}
	}
	return total.Round(2).InexactFloat64()
}

// Add puts count units of a visible product into the cart.
func (s *CartService) Add(ctx context.Context, sess Session, productID, count int32) (*model.CartItem, error) {
	if err := requireUser(sess); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrProductUnavailable, productID)
		}
		return nil, err
	}
	item, err := s.carts.Add(ctx, sess.UserID, productID, count)
	if errors.Is(err, repo.ErrConflict) {
		return nil, fmt.Errorf("%w: product %d count overflow", ErrInvalidCount, productID)
	}
	if err != nil {
		return nil, err
	}
	s.log.Debugw("cart item added", "user_id", sess.UserID, "product_id", productID, "count", item.Count)
	return item, nil
}

// SetCount replaces the count of an open line; zero removes it.
func (s *CartService) SetCount(ctx context.Context, sess Session, productID, count int32) error {
	if err := requireUser(sess); err != nil {
		return err
	}
	if count < 0 {
		return ErrInvalidCount
	}
	if count == 0 {
		return s.carts.Delete(ctx, sess.UserID, productID)
	}
	item, err := s.carts.Get(ctx, sess.UserID, productID)
	if err != nil {
		return err
	}
	item.Count = count
	return s.carts.Update(ctx, *item)
}

// Select sets the delivery method of a line; DeliveryUnset deselects it.
func (s *CartService) Select(ctx context.Context, sess Session, productID int32, d model.Delivery) error {
	if err := requireUser(sess); err != nil {
		return err
	}
	if d != model.DeliveryUnset && !d.Valid() {
		return ErrInvalidDelivery
	}
	item, err := s.carts.Get(ctx, sess.UserID, productID)
	if err != nil {
		return err
	}
	item.Delivery = d
	return s.carts.Update(ctx, *item)
}

// Remove soft-deletes an open line.
func (s *CartService) Remove(ctx context.Context, sess Session, productID int32) error {
	if err := requireUser(sess); err != nil {
		return err
	}
	return s.carts.Delete(ctx, sess.UserID, productID)
}
