package service

import "errors"

var (
	// ErrInvalidURL indicates the target is not an absolute http/https URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrInvalidShortcode indicates a custom code failed validation.
	ErrInvalidShortcode = errors.New("invalid shortcode")

	// ErrShortcodeTaken indicates a custom code is already in use.
	ErrShortcodeTaken = errors.New("shortcode already in use")

	// ErrAllocationExhausted indicates every generated candidate collided
	// within the attempt bound.
	ErrAllocationExhausted = errors.New("could not allocate a unique shortcode")

	// ErrExpired indicates the link's validity window has elapsed.
	ErrExpired = errors.New("link has expired")
)
