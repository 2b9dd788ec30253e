package reservation

import "errors"

var (
	ErrInvalidSlot  = errors.New("time is not a valid slot label")
	ErrHallNotFound = errors.New("hall not found")
	ErrRateLimited  = errors.New("too many reservation attempts")
)
