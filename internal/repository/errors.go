package repository

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrSlotTaken    = errors.New("slot already taken")
	ErrHallNotFound = errors.New("hall not found")
)
