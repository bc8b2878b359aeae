package sqldb

import "GophShop/internal/model"

type userRow struct {
	ID           int32  `gorm:"primaryKey;autoIncrement"`
	Username     string `gorm:"size:16;index;not null"`
	PasswordHash string `gorm:"size:97;not null"`
	IsAdmin      bool
	Status       int32 `gorm:"index"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) model() model.User {
	return model.User{ID: r.ID, Username: r.Username, PasswordHash: r.PasswordHash, IsAdmin: r.IsAdmin, Status: model.UserStatus(r.Status)}
}

type productRow struct {
	ID     int32  `gorm:"primaryKey;autoIncrement"`
	Name   string `gorm:"size:99;index;not null"`
	Price  float64
	Stock  int32
	Status int32 `gorm:"index"`
}

func (productRow) TableName() string { return "products" }

func (r productRow) model() model.Product {
	return model.Product{ID: r.ID, Name: r.Name, Price: r.Price, Stock: r.Stock, Status: model.ProductStatus(r.Status)}
}

type cartRow struct {
	RowID     int64 `gorm:"primaryKey;autoIncrement"`
	UserID    int32 `gorm:"index:idx_cart_pair"`
	ProductID int32 `gorm:"index:idx_cart_pair"`
	Count     int32
	Status    int32
	Delivery  int32
}

func (cartRow) TableName() string { return "cart_items" }

func (r cartRow) model() model.CartItem {
	return model.CartItem{
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Count:     r.Count,
		Status:    model.CartStatus(r.Status),
		Delivery:  model.Delivery(r.Delivery),
	}
}

// LineColumns are the order-line columns shared by orders and history.
type LineColumns struct {
	UserID    int32 `gorm:"index"`
	ProductID int32
	OrderID   int64 `gorm:"index"`
	Count     int32
	OrderTime int64
	Delivery  int32
	Address   string `gorm:"size:49"`
	Status    int32
}

func newLineColumns(o model.OrderItem) LineColumns {
	return LineColumns{
		UserID:    o.UserID,
		ProductID: o.ProductID,
		OrderID:   o.OrderID,
		Count:     o.Count,
		OrderTime: o.OrderTime,
		Delivery:  int32(o.Delivery),
		Address:   o.Address,
		Status:    int32(o.Status),
	}
}

func (c LineColumns) model() model.OrderItem {
	return model.OrderItem{
		UserID:    c.UserID,
		ProductID: c.ProductID,
		OrderID:   c.OrderID,
		Count:     c.Count,
		OrderTime: c.OrderTime,
		Delivery:  model.Delivery(c.Delivery),
		Address:   c.Address,
		Status:    model.OrderStatus(c.Status),
	}
}

type orderRow struct {
	RowID int64 `gorm:"primaryKey;autoIncrement"`
	LineColumns `gorm:"embedded"`
}

func (orderRow) TableName() string { return "order_items" }

type historyRow struct {
	RowID       int64 `gorm:"primaryKey;autoIncrement"`
	LineColumns `gorm:"embedded"`
	ProductName string `gorm:"size:99"`
	Price       float64
}

func (historyRow) TableName() string { return "history_items" }

func (r historyRow) model() model.HistoryOrderItem {
	return model.HistoryOrderItem{OrderItem: r.LineColumns.model(), ProductName: r.ProductName, Price: r.Price}
}
