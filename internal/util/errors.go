package util

import "errors"

var (
	ErrInvalidID     = errors.New("invalid id")
	ErrMissingToken  = errors.New("token is required")
	ErrMissingAnswer = errors.New("either option or text is required")
)
