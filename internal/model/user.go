package model

// UserStatus is the state of an account.
type UserStatus int32

const (
	UserNormal  UserStatus = 0
	UserDeleted UserStatus = -1
)

func (s UserStatus) String() string {
	switch s {
	case UserNormal:
		return "normal"
	case UserDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Field capacities of the user record, in bytes.
const (
	UsernameCap     = 16
	PasswordHashCap = 97

	MinUsernameLen = 3
	MinPasswordLen = 6
	MaxPasswordLen = 16
)

// User is a row of the users file.
type User struct {
	ID           int32
	Username     string
	PasswordHash string
	IsAdmin      bool
	Status       UserStatus
}

// Deleted reports whether the user was soft-deleted.
func (u User) Deleted() bool { return u.Status == UserDeleted }
