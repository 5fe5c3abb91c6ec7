package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Queue errors
var (
	ErrInvalidState         = errors.New("invalid token state for this action")
	ErrQueueFull            = errors.New("queue is full")
	ErrDuplicateActiveToken = errors.New("participant already holds a live token")
	ErrMissingReason        = errors.New("no-show reason is required")
)
