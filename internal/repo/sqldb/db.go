// Package sqldb реализует порты repo поверх GORM (SQLite или Postgres).
package sqldb

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"GophShop/internal/repo"
)

// Stores bundles the GORM repositories over one connection pool.
type Stores struct {
	DB       *gorm.DB
	Users    *UserRepo
	Products *ProductRepo
	Carts    *CartRepo
	Orders   *OrderRepo
	History  *HistoryRepo
}

// Dialector picks the driver by DSN: postgres:// and postgresql:// go
// to Postgres, anything else is a SQLite path or DSN (modernc driver).
func Dialector(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.Open(dsn)
	}
	return gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
}

// Open connects, migrates the schema and builds the repositories.
func Open(dsn string) (*Stores, error) {
	if dsn == "" {
		return nil, errors.New("empty database DSN")
	}
	db, err := gorm.Open(Dialector(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, repo.Fail(repo.CodeOpenFailure, "open database", "", err)
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		// in-memory SQLite живёт, пока открыто соединение
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	return New(db)
}

// New migrates db and wraps it.
func New(db *gorm.DB) (*Stores, error) {
	if err := db.AutoMigrate(&userRow{}, &productRow{}, &cartRow{}, &orderRow{}, &historyRow{}); err != nil {
		return nil, repo.Fail(repo.CodeOpenFailure, "migrate", "", err)
	}
	return &Stores{
		DB:       db,
		Users:    &UserRepo{db: db},
		Products: &ProductRepo{db: db},
		Carts:    &CartRepo{db: db},
		Orders:   &OrderRepo{db: db},
		History:  &HistoryRepo{db: db},
	}, nil
}

// Close releases the pool.
func (s *Stores) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// wrap maps GORM errors onto the storage taxonomy.
func wrap(code repo.Code, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repo.Fail(repo.CodeNotFound, op, "", nil)
	case errors.Is(err, repo.ErrConflict), errors.As(err, new(*repo.Error)):
		return err
	default:
		return repo.Fail(code, op, "", err)
	}
}

func checkLen(op, field, s string, capacity int) error {
	if len(s) > capacity {
		return repo.Fail(repo.CodeWriteFailure, op, "", fmt.Errorf("%s too long (%d > %d bytes)", field, len(s), capacity))
	}
	return nil
}

// likeArg builds a case-insensitive substring pattern for LOWER(col) LIKE ?.
func likeArg(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}
