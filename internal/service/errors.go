package service

import "errors"

// Ошибки предметной области. CLI показывает их текст как есть.
var (
	ErrUsernameEmpty      = errors.New("username is empty")
	ErrUsernameTooShort   = errors.New("username is too short (at least 3 characters)")
	ErrUsernameTooLong    = errors.New("username is too long (at most 16 characters)")
	ErrPasswordEmpty      = errors.New("password is empty")
	ErrPasswordTooShort   = errors.New("password is too short (at least 6 characters)")
	ErrPasswordTooLong    = errors.New("password is too long (at most 16 characters)")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrForbidden          = errors.New("permission denied")

	ErrProductExists      = errors.New("product with this name already exists")
	ErrInvalidProduct     = errors.New("invalid product data")
	ErrProductUnavailable = errors.New("product is unavailable")
	ErrInvalidCount       = errors.New("count must be positive")
	ErrInvalidDelivery    = errors.New("unknown delivery method")

	ErrNothingSelected   = errors.New("no cart items selected for checkout")
	ErrInsufficientStock = errors.New("not enough stock")
	ErrAddressRequired   = errors.New("delivery address is required")
	ErrAddressTooLong    = errors.New("delivery address is too long")

	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrOrderNotEditable    = errors.New("order can no longer be changed")
)
