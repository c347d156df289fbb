package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/randevya/salonbook/services/booking-service/internal/availability"
	"github.com/randevya/salonbook/services/booking-service/internal/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/randevya/salonbook/services/booking-service/internal/scheduling")

// BookingValidator resolves which staff member a booking request goes to. A named staff member is
// checked on their own and rejected with a specific reason; otherwise the salon roster is searched
// first-fit and the only rejection is ErrNoStaffAvailable.
//
// The result is advisory: two concurrent requests can both pass. The appointments table's unique
// index is the final arbiter and its violation means ErrAlreadyBooked.
type BookingValidator struct {
	staff    StaffLookup
	roster   RosterLookup
	resolver *SlotResolver
	assigner *AutoAssigner
	logger   *slog.Logger
}

func NewBookingValidator(staff StaffLookup, roster RosterLookup, bookings BookingLookup, logger *slog.Logger) *BookingValidator {
	resolver := NewSlotResolver(NewConflictChecker(bookings))
	return &BookingValidator{
		staff:    staff,
		roster:   roster,
		resolver: resolver,
		assigner: NewAutoAssigner(resolver),
		logger:   logger,
	}
}

// Resolver exposes the shared slot check, e.g. for availability listings.
func (v *BookingValidator) Resolver() *SlotResolver {
	return v.resolver
}

func (v *BookingValidator) ResolveStaff(ctx context.Context, req model.BookingRequest) (string, error) {
	staffID := strings.TrimSpace(req.StaffID)
	ctx, span := tracer.Start(ctx, "scheduling.ResolveStaff", trace.WithAttributes(
		attribute.String("salon.id", req.SalonID),
		attribute.Bool("staff.explicit", staffID != ""),
	))
	defer span.End()

	resolved, err := v.resolve(ctx, req, staffID)
	if err != nil {
		if reason := Reason(err); reason != "" {
			span.SetAttributes(attribute.String("booking.rejection", reason))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, "staff resolution failed")
		}
		return "", err
	}
	span.SetAttributes(attribute.String("staff.id", resolved))
	return resolved, nil
}

func (v *BookingValidator) resolve(ctx context.Context, req model.BookingRequest, staffID string) (string, error) {
	date, err := availability.ParseDate(req.Date)
	if err != nil {
		return "", err
	}
	t, err := availability.ParseTimeOfDay(req.Time)
	if err != nil {
		return "", err
	}

	if staffID != "" {
		return v.validateStaff(ctx, req.SalonID, staffID, date, t)
	}
	return v.assignStaff(ctx, req.SalonID, date, t)
}

func (v *BookingValidator) validateStaff(ctx context.Context, salonID, staffID string, date availability.Date, t availability.TimeOfDay) (string, error) {
	staff, ok, err := v.staff.GetStaff(ctx, staffID)
	if err != nil {
		return "", fmt.Errorf("lookup staff %s: %w", staffID, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrStaffNotFound, staffID)
	}
	if staff.SalonID != salonID {
		return "", ErrStaffSalonMismatch
	}
	if err := v.resolver.CanBook(ctx, staff, date, t); err != nil {
		return "", err
	}
	return staff.ID, nil
}

func (v *BookingValidator) assignStaff(ctx context.Context, salonID string, date availability.Date, t availability.TimeOfDay) (string, error) {
	candidates, err := v.roster.ListSalonStaff(ctx, salonID)
	if err != nil {
		return "", fmt.Errorf("list staff for salon %s: %w", salonID, err)
	}
	staffID, err := v.assigner.Assign(ctx, candidates, date, t)
	if err != nil {
		return "", err
	}
	v.logger.Debug("staff auto-assigned",
		"salon_id", salonID,
		"staff_id", staffID,
		"candidates", len(candidates),
		"date", date.String(),
		"time", t.String(),
	)
	return staffID, nil
}
