package service

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrInvalidDates       = errors.New("check-out must be after check-in")
	ErrPastDate           = errors.New("check-in cannot be in the past")
	ErrStayTooLong        = errors.New("stay is longer than allowed")
	ErrInvalidGuests      = errors.New("number of guests is not allowed for this room")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid session")
)
