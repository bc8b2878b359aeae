package repo

import (
	"errors"
	"fmt"
)

// Code is the flat storage error taxonomy. Numeric values are stable.
type Code int

const (
	CodeUnknown       Code = -1
	CodeOK            Code = 0
	CodeNotFound      Code = 101
	CodeOpenFailure   Code = 102
	CodeWriteFailure  Code = 103
	CodeReadFailure   Code = 104
	CodeDeleteFailure Code = 105
	CodeSeekFailure   Code = 106
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeNotFound:
		return "not found"
	case CodeOpenFailure:
		return "open failure"
	case CodeWriteFailure:
		return "write failure"
	case CodeReadFailure:
		return "read failure"
	case CodeDeleteFailure:
		return "delete failure"
	case CodeSeekFailure:
		return "seek failure"
	default:
		return "unknown"
	}
}

// Error is a storage failure tagged with its Code.
type Error struct {
	Code Code
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so errors.Is(err, ErrNotFound)
// works regardless of Op/Path.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrNotFound      = &Error{Code: CodeNotFound}
	ErrOpenFailure   = &Error{Code: CodeOpenFailure}
	ErrWriteFailure  = &Error{Code: CodeWriteFailure}
	ErrReadFailure   = &Error{Code: CodeReadFailure}
	ErrDeleteFailure = &Error{Code: CodeDeleteFailure}
	ErrSeekFailure   = &Error{Code: CodeSeekFailure}
)

// ErrConflict сообщает о нарушении уникального ключа или инварианта записи
// (например, отрицательный остаток). Не входит в таксономию кодов.
var ErrConflict = errors.New("conflicting record")

// Fail builds a tagged storage error.
func Fail(code Code, op, path string, err error) error {
	return &Error{Code: code, Op: op, Path: path, Err: err}
}

// NotFound builds a NotFound error for op with a formatted detail.
func NotFound(op, format string, args ...any) error {
	return &Error{Code: CodeNotFound, Op: op, Err: fmt.Errorf(format, args...)}
}

// CodeOf maps err onto the taxonomy. nil is CodeOK.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
