package scheduling

import (
	"errors"

	"github.com/randevya/salonbook/services/booking-service/internal/availability"
)

// Business outcomes of a booking attempt. Anything else returned by this package is an I/O
// failure from one of the injected lookups.
var (
	ErrStaffNotFound       = errors.New("staff member not found")
	ErrStaffSalonMismatch  = errors.New("staff member does not belong to the specified salon")
	ErrOutsideWorkingHours = errors.New("requested time is outside of staff working hours")
	ErrAlreadyBooked       = errors.New("staff already has an appointment at the requested time")
	ErrNoStaffAvailable    = errors.New("no available staff at the requested time")

	ErrInvalidDate = availability.ErrInvalidDate
	ErrInvalidTime = availability.ErrInvalidTime
)

var reasons = []struct {
	err   error
	label string
}{
	{ErrStaffNotFound, "staff_not_found"},
	{ErrStaffSalonMismatch, "staff_salon_mismatch"},
	{ErrOutsideWorkingHours, "outside_working_hours"},
	{ErrAlreadyBooked, "already_booked"},
	{ErrNoStaffAvailable, "no_staff_available"},
	{ErrInvalidDate, "invalid_date"},
	{ErrInvalidTime, "invalid_time"},
}

// Reason returns a stable label for a business rejection, or "" when err is nil or not one.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return ""
}

// IsRejection reports whether err is an expected business outcome rather than a failure.
func IsRejection(err error) bool {
	return Reason(err) != ""
}

// isSlotRejection covers the two outcomes a single staff member's slot check can produce.
func isSlotRejection(err error) bool {
	return errors.Is(err, ErrOutsideWorkingHours) || errors.Is(err, ErrAlreadyBooked)
}
