package approval

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrForbidden       = errors.New("requester may not perform this action")
	ErrInvalidStatus   = errors.New("status must be approved or rejected")
	ErrSlotConflict    = errors.New("slot is occupied by another live booking")
)
