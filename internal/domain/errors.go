package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadySettled  = errors.New("session already settled")
	ErrActiveGame      = errors.New("user already has an active game")
	ErrInvalidInput    = errors.New("invalid input")
	ErrFeedUnavailable = errors.New("price feed unavailable")
)
