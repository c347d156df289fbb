package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/randevya/salonbook/libs/db"
	"github.com/randevya/salonbook/services/booking-service/internal/availability"
	"github.com/randevya/salonbook/services/booking-service/internal/model"
)

// ErrInvalidWorkingHours marks a staff row whose stored working hours cannot be decoded.
var ErrInvalidWorkingHours = errors.New("invalid working hours")

type StaffRepository struct {
	pool   *db.Pool
	logger *slog.Logger
}

func NewStaffRepository(pool *db.Pool, logger *slog.Logger) *StaffRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &StaffRepository{pool: pool, logger: logger}
}

const staffColumns = `id::text, salon_id::text, name, working_hours, created_at`

func (r *StaffRepository) GetStaff(ctx context.Context, staffID string) (model.Staff, bool, error) {
	staff, err := scanStaff(r.pool.QueryRow(ctx, `
		SELECT `+staffColumns+`
		FROM staff
		WHERE id = $1
	`, staffID))
	if err != nil {
		if IsNotFound(err) {
			return model.Staff{}, false, nil
		}
		return model.Staff{}, false, err
	}
	return staff, true, nil
}

// ListSalonStaff returns the salon's staff in creation order, the order auto-assignment tries them in.
// A member whose working hours cannot be decoded is logged and left out.
func (r *StaffRepository) ListSalonStaff(ctx context.Context, salonID string) ([]model.Staff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+staffColumns+`
		FROM staff
		WHERE salon_id = $1
		ORDER BY created_at ASC, id ASC
	`, salonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectStaff(rows, r.logger.With("salon_id", salonID))
}

type staffRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectStaff(rows staffRows, logger *slog.Logger) ([]model.Staff, error) {
	var out []model.Staff
	for rows.Next() {
		staff, err := scanStaff(rows)
		if errors.Is(err, ErrInvalidWorkingHours) {
			logger.Warn("skipping staff with unreadable working hours", "err", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, staff)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func scanStaff(row pgx.Row) (model.Staff, error) {
	var staff model.Staff
	var hours []byte
	if err := row.Scan(&staff.ID, &staff.SalonID, &staff.Name, &hours, &staff.CreatedAt); err != nil {
		return model.Staff{}, err
	}
	schedule, err := availability.ParseSchedule(hours)
	if err != nil {
		return model.Staff{}, fmt.Errorf("staff %s: %w: %w", staff.ID, ErrInvalidWorkingHours, err)
	}
	staff.Schedule = schedule
	return staff, nil
}
