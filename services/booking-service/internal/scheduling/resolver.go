package scheduling

import (
	"context"

	"github.com/randevya/salonbook/services/booking-service/internal/availability"
	"github.com/randevya/salonbook/services/booking-service/internal/model"
)

// SlotResolver decides whether one staff member can take a slot. It is the only place the
// working-hours and conflict rules are combined.
type SlotResolver struct {
	conflicts *ConflictChecker
}

func NewSlotResolver(conflicts *ConflictChecker) *SlotResolver {
	return &SlotResolver{conflicts: conflicts}
}

// CanBook returns nil when the slot is bookable, ErrOutsideWorkingHours or ErrAlreadyBooked when
// it is not. Working hours are checked first and the booking lookup is skipped when they fail.
func (r *SlotResolver) CanBook(ctx context.Context, staff model.Staff, date availability.Date, t availability.TimeOfDay) error {
	if !staff.Schedule.IsWorkingAt(date, t) {
		return ErrOutsideWorkingHours
	}
	busy, err := r.conflicts.HasConflict(ctx, staff.ID, date, t)
	if err != nil {
		return err
	}
	if busy {
		return ErrAlreadyBooked
	}
	return nil
}
