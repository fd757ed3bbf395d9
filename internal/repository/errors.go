package repository

import "errors"

var (
	// ErrNotFound indicates no link exists for the given short code.
	ErrNotFound = errors.New("link not found")

	// ErrDuplicateKey indicates the short code is already taken by an active record.
	ErrDuplicateKey = errors.New("short code already exists")
)
