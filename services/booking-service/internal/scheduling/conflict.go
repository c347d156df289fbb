package scheduling

import (
	"context"
	"fmt"

	"github.com/randevya/salonbook/services/booking-service/internal/availability"
)

// ConflictChecker detects an existing booking on the exact same staff, date and time. Bookings at
// other times never collide, whatever the service duration.
type ConflictChecker struct {
	bookings BookingLookup
}

func NewConflictChecker(bookings BookingLookup) *ConflictChecker {
	return &ConflictChecker{bookings: bookings}
}

func (c *ConflictChecker) HasConflict(ctx context.Context, staffID string, date availability.Date, t availability.TimeOfDay) (bool, error) {
	_, ok, err := c.bookings.FindBooking(ctx, staffID, date, t)
	if err != nil {
		return false, fmt.Errorf("lookup booking for staff %s at %s %s: %w", staffID, date, t, err)
	}
	return ok, nil
}
