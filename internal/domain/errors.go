package domain

import "errors"

// Common errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrCacheMiss          = errors.New("cache miss")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
