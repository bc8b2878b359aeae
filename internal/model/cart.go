package model

// CartStatus is the state of a cart line.
type CartStatus int32

const (
	CartNotOrdered CartStatus = 0
	CartDeleted    CartStatus = -1
)

func (s CartStatus) String() string {
	switch s {
	case CartNotOrdered:
		return "not ordered"
	case CartDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// CartItem is one (user, product) line of the carts file.
// A line is selected for checkout when it carries a delivery method.
type CartItem struct {
	UserID    int32
	ProductID int32
	Count     int32
	Status    CartStatus
	Delivery  Delivery
}

// Selected reports whether the line will be picked up by checkout.
func (c CartItem) Selected() bool { return c.Delivery.Selected() }

// Open reports whether the line is still in the cart.
func (c CartItem) Open() bool { return c.Status == CartNotOrdered }
