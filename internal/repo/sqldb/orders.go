package sqldb

import (
	"context"

	"gorm.io/gorm"

	"GophShop/internal/model"
	"GophShop/internal/repo"
)

// lineTable holds the queries shared by order_items and history_items.
type lineTable struct {
	db    *gorm.DB
	model any
	name  string
}

func (t lineTable) exists(ctx context.Context, orderID int64) (bool, error) {
	var n int64
	err := t.db.WithContext(ctx).Model(t.model).Where("order_id = ?", orderID).Count(&n).Error
	return n > 0, wrap(repo.CodeReadFailure, "find "+t.name, err)
}

func (t lineTable) setStatus(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (int, error) {
	q := t.db.WithContext(ctx).Model(t.model).Where("order_id = ? AND status <> ?", orderID, int32(to))
	if len(from) > 0 {
		q = q.Where("status IN ?", statusArgs(from))
	}
	res := q.Update("status", int32(to))
	if res.Error != nil {
		return 0, wrap(repo.CodeWriteFailure, "set "+t.name+" status", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, repo.NotFound("set "+t.name+" status", "no line of order %d can move to %s", orderID, to)
	}
	return int(res.RowsAffected), nil
}

func (t lineTable) updateInfo(ctx context.Context, orderID int64, address *string, delivery *model.Delivery) (int, error) {
	set := map[string]any{}
	if address != nil {
		if err := checkLen("update "+t.name, "address", *address, model.AddressCap); err != nil {
			return 0, err
		}
		set["address"] = *address
	}
	if delivery != nil {
		set["delivery"] = int32(*delivery)
	}
	q := t.db.WithContext(ctx).Model(t.model).
		Where("order_id = ? AND status = ?", orderID, int32(model.OrderNotCompleted))
	var res *gorm.DB
	if len(set) == 0 {
		// нечего менять: только проверяем, что заказ открыт
		var n int64
		res = q.Count(&n)
		res.RowsAffected = n
	} else {
		res = q.Updates(set)
	}
	if res.Error != nil {
		return 0, wrap(repo.CodeWriteFailure, "update "+t.name, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, repo.NotFound("update "+t.name, "order %d has no open lines", orderID)
	}
	return int(res.RowsAffected), nil
}

func statusArgs(in []model.OrderStatus) []int32 {
	out := make([]int32, 0, len(in))
	for _, s := range in {
		out = append(out, int32(s))
	}
	return out
}

// OrderRepo хранит строки заказов в таблице order_items.
type OrderRepo struct {
	db *gorm.DB
}

var _ repo.OrderRepository = (*OrderRepo)(nil)

func (r *OrderRepo) table() lineTable { return lineTable{db: r.db, model: &orderRow{}, name: "order"} }

func (r *OrderRepo) Append(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]orderRow, 0, len(items))
	for _, it := range items {
		if err := checkLen("append order", "address", it.Address, model.AddressCap); err != nil {
			return err
		}
		rows = append(rows, orderRow{LineColumns: newLineColumns(it)})
	}
	return wrap(repo.CodeWriteFailure, "append order", r.db.WithContext(ctx).Create(&rows).Error)
}

func (r *OrderRepo) Exists(ctx context.Context, orderID int64) (bool, error) {
	return r.table().exists(ctx, orderID)
}

func (r *OrderRepo) find(ctx context.Context, query string, args ...any) ([]model.OrderItem, error) {
	var rows []orderRow
	if err := r.db.WithContext(ctx).Where(query, args...).Order("row_id").Find(&rows).Error; err != nil {
		return nil, wrap(repo.CodeReadFailure, "list orders", err)
	}
	out := make([]model.OrderItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID int32) ([]model.OrderItem, error) {
	return r.find(ctx, "user_id = ? AND status <> ?", userID, int32(model.OrderDeleted))
}

func (r *OrderRepo) ListByOrder(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return r.find(ctx, "order_id = ?", orderID)
}

func (r *OrderRepo) SetStatus(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (int, error) {
	return r.table().setStatus(ctx, orderID, from, to)
}

func (r *OrderRepo) UpdateInfo(ctx context.Context, orderID int64, address *string, delivery *model.Delivery) (int, error) {
	return r.table().updateInfo(ctx, orderID, address, delivery)
}

// HistoryRepo хранит снимки заказов в таблице history_items.
type HistoryRepo struct {
	db *gorm.DB
}

var _ repo.HistoryRepository = (*HistoryRepo)(nil)

func (r *HistoryRepo) table() lineTable {
	return lineTable{db: r.db, model: &historyRow{}, name: "history"}
}

func (r *HistoryRepo) Append(ctx context.Context, items []model.HistoryOrderItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]historyRow, 0, len(items))
	for _, it := range items {
		if err := checkLen("append history", "address", it.Address, model.AddressCap); err != nil {
			return err
		}
		if err := checkLen("append history", "product name", it.ProductName, model.ProductNameCap); err != nil {
			return err
		}
		rows = append(rows, historyRow{LineColumns: newLineColumns(it.OrderItem), ProductName: it.ProductName, Price: it.Price})
	}
	return wrap(repo.CodeWriteFailure, "append history", r.db.WithContext(ctx).Create(&rows).Error)
}

func (r *HistoryRepo) Exists(ctx context.Context, orderID int64) (bool, error) {
	return r.table().exists(ctx, orderID)
}

func (r *HistoryRepo) ListByUser(ctx context.Context, userID int32) ([]model.HistoryOrderItem, error) {
	var rows []historyRow
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, int32(model.OrderDeleted)).
		Order("row_id").Find(&rows).Error
	if err != nil {
		return nil, wrap(repo.CodeReadFailure, "list history", err)
	}
	out := make([]model.HistoryOrderItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *HistoryRepo) SetStatus(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (int, error) {
	return r.table().setStatus(ctx, orderID, from, to)
}

func (r *HistoryRepo) UpdateInfo(ctx context.Context, orderID int64, address *string, delivery *model.Delivery) (int, error) {
	return r.table().updateInfo(ctx, orderID, address, delivery)
}

func (r *HistoryRepo) DeleteByUser(ctx context.Context, userID int32, from []model.OrderStatus) (int, error) {
	q := r.db.WithContext(ctx).Model(&historyRow{}).
		Where("user_id = ? AND status <> ?", userID, int32(model.OrderDeleted))
	if len(from) > 0 {
		q = q.Where("status IN ?", statusArgs(from))
	}
	res := q.Update("status", int32(model.OrderDeleted))
	return int(res.RowsAffected), wrap(repo.CodeWriteFailure, "clear history", res.Error)
}
