package scheduling

import (
	"context"

	"github.com/randevya/salonbook/services/booking-service/internal/availability"
	"github.com/randevya/salonbook/services/booking-service/internal/model"
)

// AutoAssigner picks the first candidate, in the order given, who can take the slot.
// Candidates are evaluated one at a time; there is no load balancing.
type AutoAssigner struct {
	resolver *SlotResolver
}

func NewAutoAssigner(resolver *SlotResolver) *AutoAssigner {
	return &AutoAssigner{resolver: resolver}
}

// Assign returns the id of the first bookable candidate or ErrNoStaffAvailable. A lookup
// failure stops the search and is returned as is.
func (a *AutoAssigner) Assign(ctx context.Context, candidates []model.Staff, date availability.Date, t availability.TimeOfDay) (string, error) {
	for _, staff := range candidates {
		err := a.resolver.CanBook(ctx, staff, date, t)
		if err == nil {
			return staff.ID, nil
		}
		if !isSlotRejection(err) {
			return "", err
		}
	}
	return "", ErrNoStaffAvailable
}
