package sqldb

import (
	"context"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"GophShop/internal/model"
	"GophShop/internal/repo"
)

// UserRepo stores users in the users table.
type UserRepo struct {
	db *gorm.DB
}

var _ repo.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Add(ctx context.Context, u model.User) (*model.User, error) {
	if err := checkLen("add user", "username", u.Username, model.UsernameCap); err != nil {
		return nil, err
	}
	row := userRow{Username: u.Username, PasswordHash: u.PasswordHash, IsAdmin: u.IsAdmin, Status: int32(model.UserNormal)}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&userRow{}).
			Where("username = ? AND status <> ?", u.Username, int32(model.UserDeleted)).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return repo.ErrConflict
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, wrap(repo.CodeWriteFailure, "add user", err)
	}
	out := row.model()
	return &out, nil
}

func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	if err := checkLen("update user", "username", u.Username, model.UsernameCap); err != nil {
		return err
	}
	tx := r.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", u.ID).Updates(map[string]any{
		"username":      u.Username,
		"password_hash": u.PasswordHash,
		"is_admin":      u.IsAdmin,
		"status":        int32(u.Status),
	})
	if tx.Error != nil {
		return wrap(repo.CodeWriteFailure, "update user", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return repo.NotFound("update user", "user %d", u.ID)
	}
	return nil
}

func (r *UserRepo) first(ctx context.Context, op string, query string, args ...any) (*model.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).Where(query, args...).Order("id").First(&row).Error; err != nil {
		return nil, wrap(repo.CodeReadFailure, op, err)
	}
	u := row.model()
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int32) (*model.User, error) {
	return r.first(ctx, "get user", "id = ? AND status <> ?", id, int32(model.UserDeleted))
}

func (r *UserRepo) GetByName(ctx context.Context, username string) (*model.User, error) {
	return r.first(ctx, "get user", "username = ? AND status <> ?", username, int32(model.UserDeleted))
}

func (r *UserRepo) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userRow{}).
		Where("status <> ? AND substr(username, 1, ?) = ?", int32(model.UserDeleted), len(prefix), prefix).
		Count(&n).Error
	return int(n), wrap(repo.CodeReadFailure, "count users", err)
}

func (r *UserRepo) Search(ctx context.Context, query string) ([]model.User, error) {
	q := r.db.WithContext(ctx).Order("id")
	if s := strings.TrimSpace(query); s != "" {
		if id, err := strconv.ParseInt(s, 10, 32); err == nil {
			q = q.Where("id = ?", id)
		} else {
			q = q.Where(`LOWER(username) LIKE ? ESCAPE '\'`, likeArg(s))
		}
	}
	var rows []userRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, wrap(repo.CodeReadFailure, "search users", err)
	}
	out := make([]model.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userRow{}).Count(&n).Error
	return int(n), wrap(repo.CodeReadFailure, "count users", err)
}

func (r *UserRepo) Delete(ctx context.Context, id int32) error {
	return r.flip(ctx, "delete user", id, model.UserNormal, model.UserDeleted)
}

func (r *UserRepo) Restore(ctx context.Context, id int32) error {
	return r.flip(ctx, "restore user", id, model.UserDeleted, model.UserNormal)
}

func (r *UserRepo) flip(ctx context.Context, op string, id int32, from, to model.UserStatus) error {
	tx := r.db.WithContext(ctx).Model(&userRow{}).
		Where("id = ? AND status = ?", id, int32(from)).
		Update("status", int32(to))
	if tx.Error != nil {
		return wrap(repo.CodeDeleteFailure, op, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return repo.NotFound(op, "user %d is not %s", id, from)
	}
	return nil
}
