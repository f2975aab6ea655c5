package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrRateLimited    = errors.New("rate limited")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidListing = errors.New("invalid listing")
	ErrBatchTooLarge  = errors.New("batch exceeds maximum size")
	ErrContextDone    = errors.New("context cancelled")
)
