package fs

import (
	"GophShop/internal/model"
	"GophShop/internal/repo/fs/recordfile"
)

type userCodec struct{}

func (userCodec) Size() int {
	return 4 + recordfile.StringSize(model.UsernameCap) + recordfile.StringSize(model.PasswordHashCap) + 1 + 4
}

func (userCodec) Encode(buf []byte, u model.User) error {
	e := recordfile.NewEncoder(buf)
	e.Int32(u.ID)
	e.String(u.Username, model.UsernameCap)
	e.String(u.PasswordHash, model.PasswordHashCap)
	e.Bool(u.IsAdmin)
	e.Int32(int32(u.Status))
	return e.Err()
}

func (userCodec) Decode(buf []byte) (model.User, error) {
	d := recordfile.NewDecoder(buf)
	u := model.User{
		ID:           d.Int32(),
		Username:     d.String(model.UsernameCap),
		PasswordHash: d.String(model.PasswordHashCap),
		IsAdmin:      d.Bool(),
		Status:       model.UserStatus(d.Int32()),
	}
	return u, d.Err()
}

type productCodec struct{}

func (productCodec) Size() int {
	return 4 + recordfile.StringSize(model.ProductNameCap) + 8 + 4 + 4
}

func (productCodec) Encode(buf []byte, p model.Product) error {
	e := recordfile.NewEncoder(buf)
	e.Int32(p.ID)
	e.String(p.Name, model.ProductNameCap)
	e.Float64(p.Price)
	e.Int32(p.Stock)
	e.Int32(int32(p.Status))
	return e.Err()
}

func (productCodec) Decode(buf []byte) (model.Product, error) {
	d := recordfile.NewDecoder(buf)
	p := model.Product{
		ID:     d.Int32(),
		Name:   d.String(model.ProductNameCap),
		Price:  d.Float64(),
		Stock:  d.Int32(),
		Status: model.ProductStatus(d.Int32()),
	}
	return p, d.Err()
}

type cartCodec struct{}

func (cartCodec) Size() int { return 5 * 4 }

func (cartCodec) Encode(buf []byte, c model.CartItem) error {
	e := recordfile.NewEncoder(buf)
	e.Int32(c.UserID)
	e.Int32(c.ProductID)
	e.Int32(c.Count)
	e.Int32(int32(c.Status))
	e.Int32(int32(c.Delivery))
	return e.Err()
}

func (cartCodec) Decode(buf []byte) (model.CartItem, error) {
	d := recordfile.NewDecoder(buf)
	c := model.CartItem{
		UserID:    d.Int32(),
		ProductID: d.Int32(),
		Count:     d.Int32(),
		Status:    model.CartStatus(d.Int32()),
		Delivery:  model.Delivery(d.Int32()),
	}
	return c, d.Err()
}

// orderItemSize is shared by the order and history codecs; the history
// record is an order record followed by the product snapshot.
var orderItemSize = 4 + 4 + 8 + 4 + 8 + 4 + recordfile.StringSize(model.AddressCap) + 4

func encodeOrderItem(e *recordfile.Encoder, o model.OrderItem) {
	e.Int32(o.UserID)
	e.Int32(o.ProductID)
	e.Int64(o.OrderID)
	e.Int32(o.Count)
	e.Int64(o.OrderTime)
	e.Int32(int32(o.Delivery))
	e.String(o.Address, model.AddressCap)
	e.Int32(int32(o.Status))
}

func decodeOrderItem(d *recordfile.Decoder) model.OrderItem {
	return model.OrderItem{
		UserID:    d.Int32(),
		ProductID: d.Int32(),
		OrderID:   d.Int64(),
		Count:     d.Int32(),
		OrderTime: d.Int64(),
		Delivery:  model.Delivery(d.Int32()),
		Address:   d.String(model.AddressCap),
		Status:    model.OrderStatus(d.Int32()),
	}
}

type orderCodec struct{}

func (orderCodec) Size() int { return orderItemSize }

func (orderCodec) Encode(buf []byte, o model.OrderItem) error {
	e := recordfile.NewEncoder(buf)
	encodeOrderItem(e, o)
	return e.Err()
}

func (orderCodec) Decode(buf []byte) (model.OrderItem, error) {
	d := recordfile.NewDecoder(buf)
	o := decodeOrderItem(d)
	return o, d.Err()
}

type historyCodec struct{}

func (historyCodec) Size() int {
	return orderItemSize + recordfile.StringSize(model.ProductNameCap) + 8
}

func (historyCodec) Encode(buf []byte, h model.HistoryOrderItem) error {
	e := recordfile.NewEncoder(buf)
	encodeOrderItem(e, h.OrderItem)
	e.String(h.ProductName, model.ProductNameCap)
	e.Float64(h.Price)
	return e.Err()
}

func (historyCodec) Decode(buf []byte) (model.HistoryOrderItem, error) {
	d := recordfile.NewDecoder(buf)
	h := model.HistoryOrderItem{OrderItem: decodeOrderItem(d)}
	h.ProductName = d.String(model.ProductNameCap)
	h.Price = d.Float64()
	return h, d.Err()
}
