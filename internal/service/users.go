package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"GophShop/internal/model"
	"GophShop/internal/repo"
)

// UserService handles registration, login and user administration.
type UserService struct {
	repo repo.UserRepository
	log  *zap.SugaredLogger
	cost int
}

// NewUserService creates a UserService.
func NewUserService(r repo.UserRepository, log *zap.SugaredLogger) *UserService {
	return &UserService{repo: r, log: log, cost: bcrypt.DefaultCost}
}

// ValidateUsername checks the length rules of a username.
func ValidateUsername(username string) error {
	switch n := len(username); {
	case n == 0:
		return ErrUsernameEmpty
	case n < model.MinUsernameLen:
		return ErrUsernameTooShort
	case n > model.UsernameCap:
		return ErrUsernameTooLong
	}
	return nil
}

// ValidatePassword checks the length rules of a password.
func ValidatePassword(password string) error {
	switch n := len(password); {
	case n == 0:
		return ErrPasswordEmpty
	case n < model.MinPasswordLen:
		return ErrPasswordTooShort
	case n > model.MaxPasswordLen:
		return ErrPasswordTooLong
	}
	return nil
}

func (s *UserService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Register validates and creates an account. admin is honoured only
// while no account exists yet.
func (s *UserService) Register(ctx context.Context, username, password, confirm string, admin bool) (*model.User, error) {
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	if admin {
		n, err := s.repo.Count(ctx)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, fmt.Errorf("%w: administrator can only be seeded into an empty store", ErrForbidden)
		}
	}
	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}
	u, err := s.repo.Add(ctx, model.User{Username: username, PasswordHash: hash, IsAdmin: admin})
	if errors.Is(err, repo.ErrConflict) {
		return nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, err
	}
	s.log.Infow("user registered", "user_id", u.ID, "username", u.Username, "admin", u.IsAdmin)
	return u, nil
}

// Login checks the credentials and opens a session.
func (s *UserService) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		return Session{}, err
	}
	if password == "" {
		return Session{}, ErrPasswordEmpty
	}
	u, err := s.repo.GetByName(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return Session{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}, nil
}

// Resume re-reads the user behind a stored session, so deleted users
// and revoked admin rights take effect on the next command.
func (s *UserService) Resume(ctx context.Context, sess Session) (Session, error) {
	if !sess.Valid() {
		return Session{}, ErrInvalidCredentials
	}
	u, err := s.repo.GetByID(ctx, sess.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}, nil
}

// Search lists users including deleted ones (admin only).
func (s *UserService) Search(ctx context.Context, sess Session, query string) ([]model.User, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	return s.repo.Search(ctx, query)
}

// CountByPrefix counts visible users whose name starts with prefix.
func (s *UserService) CountByPrefix(ctx context.Context, sess Session, prefix string) (int, error) {
	if err := requireAdmin(sess); err != nil {
		return 0, err
	}
	return s.repo.CountByPrefix(ctx, prefix)
}

// Delete soft-deletes a user. Administrators cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, sess Session, id int32) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	if id == sess.UserID {
		return fmt.Errorf("%w: cannot delete the current user", ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Infow("user deleted", "user_id", id, "by", sess.UserID)
	return nil
}

// Restore brings a deleted user back unless the name was reused meanwhile.
func (s *UserService) Restore(ctx context.Context, sess Session, id int32) error {
	if err := requireAdmin(sess); err != nil {
		return err
	}
	all, err := s.repo.Search(ctx, fmt.Sprint(id))
	if err != nil {
		return err
	}
	if len(all) == 1 {
		if other, err := s.repo.GetByName(ctx, all[0].Username); err == nil && other.ID != id {
			return ErrUsernameTaken
		}
	}
	if err := s.repo.Restore(ctx, id); err != nil {
		return err
	}
	s.log.Infow("user restored", "user_id", id, "by", sess.UserID)
	return nil
}

// UserEdit lists the fields to change; nil fields stay as they are.
type UserEdit struct {
	Username *string
	Password *string
	IsAdmin  *bool
}

// Edit changes a visible user (admin only).
func (s *UserService) Edit(ctx context.Context, sess Session, id int32, edit UserEdit) (*model.User, error) {
	if err := requireAdmin(sess); err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if edit.Username != nil {
		name := strings.TrimSpace(*edit.Username)
		if err := ValidateUsername(name); err != nil {
			return nil, err
		}
		if name != u.Username {
			if _, err := s.repo.GetByName(ctx, name); err == nil {
				return nil, ErrUsernameTaken
			} else if !errors.Is(err, repo.ErrNotFound) {
				return nil, err
			}
		}
		u.Username = name
	}
	if edit.Password != nil {
		if err := ValidatePassword(*edit.Password); err != nil {
			return nil, err
		}
		if u.PasswordHash, err = s.hash(*edit.Password); err != nil {
			return nil, err
		}
	}
	if edit.IsAdmin != nil {
		if id == sess.UserID && !*edit.IsAdmin {
			return nil, fmt.Errorf("%w: cannot revoke own administrator rights", ErrForbidden)
		}
		u.IsAdmin = *edit.IsAdmin
	}
	if err := s.repo.Update(ctx, *u); err != nil {
		return nil, err
	}
	s.log.Infow("user updated", "user_id", id, "by", sess.UserID)
	return u, nil
}
