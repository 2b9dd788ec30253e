package httpgin

import (
	"time"

	"campusport/internal/domain"
)

type ReserveRequest struct {
	HallID  string `json:"hall_id" binding:"required"`
	Slot    string `json:"slot" binding:"required"`
	Date    string `json:"date" binding:"required"`
	Purpose string `json:"purpose"`
}

type ReserveResponse struct {
	Accepted bool   `json:"accepted"`
	ID       string `json:"id,omitempty"`
	Status   string `json:"status,omitempty"`
	Message  string `json:"message"`
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

type UpdatePurposeRequest struct {
	Purpose string `json:"purpose" binding:"required"`
}

type SaveUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Name       string `json:"name" binding:"required"`
	RollNumber string `json:"roll_number"`
	Department string `json:"department"`
}

type SlotsResponse struct {
	Slots []string `json:"slots"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func (r SaveUserRequest) toUser(actor domain.Actor) domain.User {
	return domain.User{
		ID:         actor.UserID,
		Email:      r.Email,
		Role:       actor.Role,
		Name:       r.Name,
		RollNumber: r.RollNumber,
		Department: r.Department,
	}
}

func parseDay(s string) (time.Time, error) {
	return time.Parse(domain.DayKeyLayout, s)
}
