package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingApproved BookingStatus = "approved"
	BookingRejected BookingStatus = "rejected"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingApproved, BookingRejected:
		return true
	}
	return false
}

type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
)

// Elevated reports whether the role auto-approves its own reservations and
// may moderate other requesters' bookings.
func (r Role) Elevated() bool {
	return r == RoleFaculty
}

// Actor is the authenticated requester an operation runs on behalf of.
type Actor struct {
	UserID string
	Name   string
	Role   Role
}

type Hall struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Type     string `json:"type"`
}

type Booking struct {
	ID       uuid.UUID     `json:"id"`
	HallID   string        `json:"hall_id"`
	Slot     string        `json:"slot"`
	Date     time.Time     `json:"date"`
	DateStr  string        `json:"date_str"`
	UserID   string        `json:"user_id"`
	UserName string        `json:"user_name"`
	Purpose  string        `json:"purpose"`
	Status   BookingStatus `json:"status"`
	Created  time.Time     `json:"created_at"`
}

type Faculty struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Dept     string `json:"dept"`
	Email    string `json:"email"`
	Status   string `json:"status"`
	Location string `json:"location"`
}

type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Name       string    `json:"name"`
	RollNumber string    `json:"roll_number,omitempty"`
	Department string    `json:"department,omitempty"`
	LastLogin  time.Time `json:"last_login"`
}
