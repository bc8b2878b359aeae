package model

// OrderStatus is shared by order lines, history lines and their aggregates.
type OrderStatus int32

const (
	OrderNotCompleted OrderStatus = 0
	OrderCompleted    OrderStatus = 1
	OrderCancel       OrderStatus = -1
	OrderDeleted      OrderStatus = -2
)

func (s OrderStatus) String() string {
	switch s {
	case OrderNotCompleted:
		return "in transit"
	case OrderCompleted:
		return "completed"
	case OrderCancel:
		return "cancelled"
	case OrderDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Archived reports whether an order line belongs to the history view.
func (s OrderStatus) Archived() bool { return s == OrderCompleted || s == OrderCancel }

// AddressCap is the capacity of a delivery address in bytes.
const AddressCap = 49

// OrderIDFor derives the order id from the order time and the user id.
// Two checkouts of one user within the same second share an id.
func OrderIDFor(orderTime int64, userID int32) int64 {
	return orderTime + int64(userID)
}

// OrderItem is one product line of an order.
type OrderItem struct {
	UserID    int32
	ProductID int32
	OrderID   int64
	Count     int32
	OrderTime int64 // unix seconds
	Delivery  Delivery
	Address   string
	Status    OrderStatus
}

// ArrivalTime is the moment the line is considered delivered.
func (o OrderItem) ArrivalTime() int64 {
	return o.OrderTime + o.Delivery.Days()*SecondsPerDay
}

// HistoryOrderItem is an order line with the product name and price
// captured at order time.
type HistoryOrderItem struct {
	OrderItem
	ProductName string
	Price       float64
}

// OrderLine is an order line joined with live product data.
type OrderLine struct {
	Item        OrderItem
	ProductName string
	UnitPrice   float64
	Available   bool // false when the product no longer exists
}

// FullOrder groups the lines sharing one order id.
type FullOrder struct {
	OrderID     int64
	UserID      int32
	OrderTime   int64
	ArrivalTime int64
	Address     string
	Delivery    Delivery
	Status      OrderStatus
	TotalPrice  float64
	Lines       []OrderLine
}

// HistoryFullOrder groups history lines sharing one order id.
type HistoryFullOrder struct {
	OrderID    int64
	UserID     int32
	OrderTime  int64
	Address    string
	Delivery   Delivery
	Status     OrderStatus
	TotalPrice float64
	Items      []HistoryOrderItem
}
