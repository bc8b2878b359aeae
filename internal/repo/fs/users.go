package fs

import (
	"context"
	"strings"

	"GophShop/internal/model"
	"GophShop/internal/repo"
	"GophShop/internal/repo/fs/recordfile"
)

// UserStore is the file-backed user store.
type UserStore struct {
	file *recordfile.File[model.User]
}

var _ repo.UserRepository = (*UserStore)(nil)

// NewUserStore opens the users file at path.
func NewUserStore(path string) (*UserStore, error) {
	f, err := recordfile.Open[model.User](path, userCodec{})
	if err != nil {
		return nil, err
	}
	return &UserStore{file: f}, nil
}

// File exposes the underlying record file.
func (s *UserStore) File() *recordfile.File[model.User] { return s.file }

func (s *UserStore) Add(ctx context.Context, u model.User) (*model.User, error) {
	if err := checkLen("add user", "username", u.Username, model.UsernameCap); err != nil {
		return nil, err
	}
	if err := checkLen("add user", "password", u.PasswordHash, model.PasswordHashCap); err != nil {
		return nil, err
	}
	rec, err := s.file.AppendNew(ctx,
		func(x model.User) bool { return x.Username == u.Username && !x.Deleted() },
		func(id uint32) model.User {
			u.ID = int32(id)
			u.Status = model.UserNormal
			return u
		})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *UserStore) Update(ctx context.Context, u model.User) error {
	if err := checkLen("update user", "username", u.Username, model.UsernameCap); err != nil {
		return err
	}
	_, _, err := s.file.Mutate(ctx,
		func(x model.User) bool { return x.ID == u.ID },
		func(model.User) (model.User, error) { return u, nil })
	return err
}

func (s *UserStore) GetByID(ctx context.Context, id int32) (*model.User, error) {
	_, u, err := s.file.Find(ctx, func(x model.User) bool { return x.ID == id && !x.Deleted() })
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) GetByName(ctx context.Context, username string) (*model.User, error) {
	_, u, err := s.file.Find(ctx, func(x model.User) bool { return x.Username == username && !x.Deleted() })
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	n := 0
	err := s.file.Scan(ctx, func(_ int64, x model.User) bool {
		if !x.Deleted() && strings.HasPrefix(x.Username, prefix) {
			n++
		}
		return true
	})
	return n, err
}

func (s *UserStore) Search(ctx context.Context, query string) ([]model.User, error) {
	return s.file.Collect(ctx, func(x model.User) bool { return matchQuery(query, x.ID, x.Username) })
}

func (s *UserStore) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.file.Scan(ctx, func(int64, model.User) bool { n++; return true })
	return n, err
}

func (s *UserStore) Delete(ctx context.Context, id int32) error {
	return s.flip(ctx, "delete user", id, model.UserNormal, model.UserDeleted)
}

func (s *UserStore) Restore(ctx context.Context, id int32) error {
	return s.flip(ctx, "restore user", id, model.UserDeleted, model.UserNormal)
}

// flip moves the user from status from to status to. A user not in from
// is reported as NotFound, which makes a second delete fail.
func (s *UserStore) flip(ctx context.Context, op string, id int32, from, to model.UserStatus) error {
	_, _, err := s.file.Mutate(ctx,
		func(x model.User) bool { return x.ID == id },
		func(x model.User) (model.User, error) {
			if x.Status != from {
				return x, repo.NotFound(op, "user %d is %s", id, x.Status)
			}
			x.Status = to
			return x, nil
		})
	return err
}
