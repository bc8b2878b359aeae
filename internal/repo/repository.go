// Package repo описывает порты доступа к хранилищу сущностей магазина.
// Реализации: плоские файлы (repo/fs) и GORM (repo/sqldb).
package repo

import (
	"context"

	"GophShop/internal/model"
)

// UserRepository stores users.
type UserRepository interface {
	// Add assigns a new id and stores u with status NORMAL.
	// ErrConflict is returned when the username is taken by a visible user.
	Add(ctx context.Context, u model.User) (*model.User, error)
	// Update rewrites the whole record identified by u.ID.
	Update(ctx context.Context, u model.User) error
	GetByID(ctx context.Context, id int32) (*model.User, error)
	GetByName(ctx context.Context, username string) (*model.User, error)
	// CountByPrefix counts visible users whose name starts with prefix.
	CountByPrefix(ctx context.Context, prefix string) (int, error)
	// Search lists users including deleted ones. Empty query lists all,
	// a numeric query matches the id exactly, anything else is a
	// case-insensitive substring of the username.
	Search(ctx context.Context, query string) ([]model.User, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id int32) error
	Restore(ctx context.Context, id int32) error
}

// ProductRepository is the product catalogue.
type ProductRepository interface {
	Add(ctx context.Context, name string, price float64, stock int32) (*model.Product, error)
	Update(ctx context.Context, p model.Product) error
	// Get skips deleted products.
	Get(ctx context.Context, id int32) (*model.Product, error)
	// Lookup returns the product in any status, for read-time joins.
	Lookup(ctx context.Context, id int32) (*model.Product, error)
	IDByName(ctx context.Context, name string) (int32, error)
	List(ctx context.Context, includeDeleted bool) ([]model.Product, error)
	Search(ctx context.Context, query string, includeDeleted bool) ([]model.Product, error)
	Delete(ctx context.Context, id int32) error
	Restore(ctx context.Context, id int32) error
	// MarkOutOfStock flags every visible product with zero stock and
	// returns how many records changed.
	MarkOutOfStock(ctx context.Context) (int, error)
	// AdjustStock adds delta to the stock of a product in any status in one
	// locked step, so cancelled orders can restock a deleted product.
	// ErrConflict is returned if the stock would go negative or leave the
	// int32 range.
	AdjustStock(ctx context.Context, id int32, delta int32) (*model.Product, error)
}

// CartRepository holds the cart lines of all users.
type CartRepository interface {
	// Add merges count into the open line, revives a deleted line or
	// appends a new one. ErrConflict is returned if the merged count would
	// overflow int32.
	Add(ctx context.Context, userID, productID, count int32) (*model.CartItem, error)
	// Update rewrites the open (user, product) line.
	Update(ctx context.Context, item model.CartItem) error
	Get(ctx context.Context, userID, productID int32) (*model.CartItem, error)
	Delete(ctx context.Context, userID, productID int32) error
	ListOpen(ctx context.Context, userID int32) ([]model.CartItem, error)
	// Checkout consumes every open selected line of the user in one pass
	// and returns the consumed lines.
	Checkout(ctx context.Context, userID int32) ([]model.CartItem, error)
}

// OrderRepository holds order lines.
type OrderRepository interface {
	Append(ctx context.Context, items []model.OrderItem) error
	Exists(ctx context.Context, orderID int64) (bool, error)
	// ListByUser skips deleted lines.
	ListByUser(ctx context.Context, userID int32) ([]model.OrderItem, error)
	ListByOrder(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	// SetStatus moves every line of the order whose status is in from
	// (any status other than to, when from is empty) to status to.
	// NotFound is returned when no line changed.
	SetStatus(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (int, error)
	// UpdateInfo rewrites address and/or delivery of every NOT_COMPLETED
	// line of the order.
	UpdateInfo(ctx context.Context, orderID int64, address *string, delivery *model.Delivery) (int, error)
}

// HistoryRepository holds order snapshots for the history view.
type HistoryRepository interface {
	Append(ctx context.Context, items []model.HistoryOrderItem) error
	Exists(ctx context.Context, orderID int64) (bool, error)
	ListByUser(ctx context.Context, userID int32) ([]model.HistoryOrderItem, error)
	SetStatus(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (int, error)
	UpdateInfo(ctx context.Context, orderID int64, address *string, delivery *model.Delivery) (int, error)
	// DeleteByUser soft-deletes the user's lines whose status is in from.
	DeleteByUser(ctx context.Context, userID int32, from []model.OrderStatus) (int, error)
}

// StatusIn reports whether a line in status s should move to status to.
// An empty from allows any status; a line already in to never moves.
func StatusIn(s model.OrderStatus, from []model.OrderStatus, to model.OrderStatus) bool {
	if s == to {
		return false
	}
	if len(from) == 0 {
		return true
	}
	for _, f := range from {
		if s == f {
			return true
		}
	}
	return false
}
