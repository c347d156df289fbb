package scheduling

import (
	"context"

	"github.com/randevya/salonbook/services/booking-service/internal/availability"
	"github.com/randevya/salonbook/services/booking-service/internal/model"
)

// StaffLookup loads a single staff member. ok is false when the id is unknown.
type StaffLookup interface {
	GetStaff(ctx context.Context, staffID string) (staff model.Staff, ok bool, err error)
}

// RosterLookup lists a salon's staff in the order candidates should be tried (creation order).
type RosterLookup interface {
	ListSalonStaff(ctx context.Context, salonID string) ([]model.Staff, error)
}

// BookingLookup finds a booking that holds exactly (staffID, date, time). Implementations decide
// which statuses still hold a slot; whatever they return counts as a conflict.
type BookingLookup interface {
	FindBooking(ctx context.Context, staffID string, date availability.Date, t availability.TimeOfDay) (appt model.Appointment, ok bool, err error)
}
