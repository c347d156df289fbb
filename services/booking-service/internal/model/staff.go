package model

import (
	"time"

	"github.com/randevya/salonbook/services/booking-service/internal/availability"
)

// Staff is a salon employee together with the weekly hours they can be booked.
type Staff struct {
	ID        string
	SalonID   string
	Name      string
	Schedule  availability.WeeklySchedule
	CreatedAt time.Time
}
