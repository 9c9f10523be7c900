package domain

import "errors"

var (
	ErrInvalidURL         = errors.New("invalid url")
	ErrInvalidCode        = errors.New("invalid short code")
	ErrInvalidExpiration  = errors.New("invalid expiration")
	ErrCodeAlreadyExists  = errors.New("short code already exists")
	ErrNotFound           = errors.New("short url not found")
	ErrConflict           = errors.New("short code conflict")
	ErrCodeSpaceExhausted = errors.New("short code space exhausted")
)
