package database

import "errors"

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrDuplicateBooking = errors.New("booking already exists")
	ErrUserNotFound     = errors.New("user not found")
)
