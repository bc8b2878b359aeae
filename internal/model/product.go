package model

// ProductStatus описывает состояние товара в каталоге.
type ProductStatus int32

const (
	ProductDeleted    ProductStatus = -1
	ProductNormal     ProductStatus = 0
	ProductOutOfStock ProductStatus = 1
)

func (s ProductStatus) String() string {
	switch s {
	case ProductNormal:
		return "normal"
	case ProductDeleted:
		return "deleted"
	case ProductOutOfStock:
		return "out of stock"
	default:
		return "unknown"
	}
}

// ProductNameCap is the capacity of a product name in bytes.
const ProductNameCap = 99

// Product is a row of the products file.
type Product struct {
	ID     int32
	Name   string
	Price  float64
	Stock  int32
	Status ProductStatus
}

// Deleted reports whether the product was soft-deleted.
func (p Product) Deleted() bool { return p.Status == ProductDeleted }

// WithStock returns a copy with the stock replaced and the status
// reconciled: a restocked OUT_OF_STOCK product becomes NORMAL again.
func (p Product) WithStock(stock int32) Product {
	p.Stock = stock
	if p.Status == ProductOutOfStock && stock > 0 {
		p.Status = ProductNormal
	}
	return p
}
