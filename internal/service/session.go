package service

import (
	"fmt"
	"time"
)

// Session is the current user, passed explicitly to every operation.
type Session struct {
	UserID   int32
	Username string
	IsAdmin  bool
}

// Valid reports whether the session names a user.
func (s Session) Valid() bool { return s.UserID > 0 }

func requireUser(s Session) error {
	if !s.Valid() {
		return fmt.Errorf("%w: login required", ErrForbidden)
	}
	return nil
}

func requireAdmin(s Session) error {
	if err := requireUser(s); err != nil {
		return err
	}
	if !s.IsAdmin {
		return fmt.Errorf("%w: administrator only", ErrForbidden)
	}
	return nil
}

// Clock returns the current time; tests substitute a fixed one.
type Clock func() time.Time
