package service

import "errors"

var (
	ErrNameRequired   = errors.New("name required")
	ErrNameTooLong    = errors.New("name must be at most 50 characters")
	ErrSizeOutOfRange = errors.New("party size must be between 1 and 5")
	ErrSushiRequired  = errors.New("sushi selection required")

	ErrTicketNotFound = errors.New("ticket not found")
	ErrTicketFinal    = errors.New("ticket is already served or canceled")
)
