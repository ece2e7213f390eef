package domain

import "errors"

// Validation errors
var (
	ErrScoreOutOfRange = errors.New("score must be between 0 and 100")
	ErrInvalidRole     = errors.New("invalid turn role")
	ErrEmptyMessage    = errors.New("message cannot be empty")
)
