package model

import (
	"time"

	"github.com/randevya/salonbook/services/booking-service/internal/availability"
)

// Appointment statuses. Only cancelled appointments release their slot.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// CanTransition reports whether a status update may move an appointment from one status to
// another. Only pending -> confirmed -> completed is allowed; cancelling has its own flow.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusConfirmed
	case StatusConfirmed:
		return to == StatusCompleted
	default:
		return false
	}
}

type Appointment struct {
	ID            string
	SalonID       string
	ServiceID     string
	StaffID       string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Date          availability.Date
	Time          availability.TimeOfDay
	Status        string
	AccessToken   string
	CancelledAt   *time.Time
	CancelReason  string
	CreatedAt     time.Time
}

// BookingRequest is an incoming booking attempt. Date and Time are kept as the caller sent them
// (YYYY-MM-DD, HH:MM); an empty StaffID asks for automatic assignment.
type BookingRequest struct {
	SalonID       string
	ServiceID     string
	StaffID       string
	Date          string
	Time          string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}
