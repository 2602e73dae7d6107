package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotFound              = errors.New("resource not found")
	ErrConfiguration         = errors.New("configuration invalid")
	ErrStateBlocked          = errors.New("operation blocked by system state")
	ErrNoDataAvailable       = errors.New("no data available")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
