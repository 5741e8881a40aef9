package user

import "errors"

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrForbidden          = errors.New("not authorized")
	// ErrInvalidToken covers expired, used, and unknown reset tokens alike;
	// callers must not distinguish them.
	ErrInvalidToken = errors.New("invalid or expired token")
)
