// Package fs хранит сущности магазина в плоских файлах фиксированных записей.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"GophShop/internal/repo"
	"GophShop/internal/repo/fs/recordfile"
)

// Имена файлов сущностей внутри каталога данных.
const (
	UsersFile    = "users.dat"
	ProductsFile = "products.dat"
	CartsFile    = "carts.dat"
	OrdersFile   = "orders.dat"
	HistoryFile  = "history.dat"
)

// Stores bundles one file-backed repository per entity.
type Stores struct {
	Users    *UserStore
	Products *ProductStore
	Carts    *CartStore
	Orders   *OrderStore
	History  *HistoryStore
}

// Open creates dir if needed and opens (initialising headers of) every
// entity file inside it.
func Open(dir string) (*Stores, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty data directory")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, repo.Fail(repo.CodeOpenFailure, "open data dir", dir, err)
	}
	users, err := NewUserStore(filepath.Join(dir, UsersFile))
	if err != nil {
		return nil, err
	}
	products, err := NewProductStore(filepath.Join(dir, ProductsFile))
	if err != nil {
		return nil, err
	}
	carts, err := NewCartStore(filepath.Join(dir, CartsFile))
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderStore(filepath.Join(dir, OrdersFile))
	if err != nil {
		return nil, err
	}
	history, err := NewHistoryStore(filepath.Join(dir, HistoryFile))
	if err != nil {
		return nil, err
	}
	return &Stores{Users: users, Products: products, Carts: carts, Orders: orders, History: history}, nil
}

// matchQuery implements the shared search rule: empty query matches all,
// a numeric query matches the id, otherwise a case-insensitive substring.
func matchQuery(query string, id int32, name string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	if n, err := strconv.ParseInt(q, 10, 32); err == nil {
		return int32(n) == id
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(q))
}

func checkLen(op, field, s string, capacity int) error {
	if len(s) > capacity {
		return repo.Fail(repo.CodeWriteFailure, op, "", fmt.Errorf("%s: %w (%d > %d bytes)", field, recordfile.ErrFieldTooLong, len(s), capacity))
	}
	return nil
}
