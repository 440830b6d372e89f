// Package apperr defines the error kinds the services return and the HTTP
// layer maps to status codes.
package apperr

import "errors"

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuth
	KindAuthorization
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "auth"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error carries a kind, a stable machine code and a message that is safe to
// show to clients. Err holds the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind and code so sentinels compare equal to wrapped copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func NotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Code: "internal_error", Message: message, Err: cause}
}

var (
	ErrMissingFields      = Validation("missing_fields", "All fields are required")
	ErrPasswordTooLong    = Validation("password_too_long", "Password must be at most 72 bytes")
	ErrTitleRequired      = Validation("title_required", "Please add a title")
	ErrEmailTaken         = Conflict("email_taken", "User already exists")
	ErrInvalidCredentials = &Error{Kind: KindAuth, Code: "invalid_credentials", Message: "Invalid credentials"}
	ErrNoToken            = &Error{Kind: KindAuth, Code: "no_token", Message: "Not authorized, no token"}
	ErrInvalidToken       = &Error{Kind: KindAuth, Code: "unauthorized", Message: "Not authorized, token failed"}
	ErrNotOwner           = &Error{Kind: KindAuthorization, Code: "not_authorized", Message: "User not authorized"}
	ErrNoteNotFound       = NotFound("note_not_found", "Note not found")
)

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain. Anything else is reported as an
// internal error with a generic message.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("Server Error", err)
}
