package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/randevya/salonbook/libs/db"
	"github.com/randevya/salonbook/services/booking-service/internal/availability"
	"github.com/randevya/salonbook/services/booking-service/internal/model"
)

type BookingRepository struct {
	pool *db.Pool
}

type IdempotencyRecord struct {
	SalonID         string
	IdempotencyKey  string
	AppointmentID   string
	StatusCode      int
	ResponsePayload []byte
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const appointmentColumns = `id::text, salon_id::text, service_id::text, staff_id::text,
	customer_name, customer_email, customer_phone, appointment_date, appointment_time,
	status, access_token, cancelled_at, COALESCE(cancellation_reason, ''), created_at`

// FindBooking returns the booking holding the exact staff/date/time slot. Cancelled bookings
// release their slot and are never returned.
func (r *BookingRepository) FindBooking(ctx context.Context, staffID string, date availability.Date, t availability.TimeOfDay) (model.Appointment, bool, error) {
	appt, err := scanAppointment(r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE staff_id = $1
			AND appointment_date = $2
			AND appointment_time = $3
			AND status <> 'cancelled'
		LIMIT 1
	`, staffID, dateValue(date), t.String()))
	if err != nil {
		if IsNotFound(err) {
			return model.Appointment{}, false, nil
		}
		return model.Appointment{}, false, err
	}
	return appt, true, nil
}

func (r *BookingRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, salonID, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, salonID, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (salon_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (salon_id, idempotency_key) DO NOTHING
	`, salonID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, salonID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *BookingRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, salonID, key, appointmentID string, statusCode int, response []byte) error {
	var apptID any
	if appointmentID != "" {
		apptID = appointmentID
	}
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET appointment_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE salon_id = $1 AND idempotency_key = $2
	`, salonID, key, apptID, statusCode, response)
	return err
}

// Create inserts the appointment and fills in its id, access token and creation time.
// A unique violation (IsConflict) means another booking took the slot first.
func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error {
	if appt.Status == "" {
		appt.Status = model.StatusPending
	}
	appt.AccessToken = uuid.NewString()
	return tx.QueryRow(ctx, `
		INSERT INTO appointments
			(salon_id, service_id, staff_id, customer_name, customer_email, customer_phone,
			 appointment_date, appointment_time, status, access_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id::text, created_at
	`, appt.SalonID, appt.ServiceID, appt.StaffID, appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone,
		dateValue(appt.Date), appt.Time.String(), appt.Status, appt.AccessToken).Scan(&appt.ID, &appt.CreatedAt)
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, salonID, appointmentID string) (model.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND salon_id = $2
		FOR UPDATE
	`, appointmentID, salonID))
}

// GetByAccessTokenForUpdate loads the appointment a customer holds the token for.
func (r *BookingRepository) GetByAccessTokenForUpdate(ctx context.Context, tx pgx.Tx, token string) (model.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE access_token = $1
		FOR UPDATE
	`, token))
}

// FindByAccessToken is the read-only lookup behind a customer's booking link.
func (r *BookingRepository) FindByAccessToken(ctx context.Context, token string) (model.Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE access_token = $1
	`, token))
}

// UpdateStatus moves a locked appointment to status. Callers check the transition first.
func (r *BookingRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, appointmentID, status string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2
		WHERE id = $1
	`, appointmentID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *BookingRepository) Cancel(ctx context.Context, tx pgx.Tx, appointmentID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = NULLIF($2, '')
		WHERE id = $1
		RETURNING cancelled_at
	`, appointmentID, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

// ListBySalon returns the salon's appointments inside [from, to], newest slot first.
func (r *BookingRepository) ListBySalon(ctx context.Context, salonID string, from, to availability.Date, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE salon_id = $1
			AND appointment_date BETWEEN $2 AND $3
		ORDER BY appointment_date DESC, appointment_time DESC
		LIMIT $4
	`, salonID, dateValue(from), dateValue(to), limit)
}

// ListLiveBySalon returns the salon's non-cancelled appointments inside [from, to] in slot order.
func (r *BookingRepository) ListLiveBySalon(ctx context.Context, salonID string, from, to availability.Date, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE salon_id = $1
			AND appointment_date BETWEEN $2 AND $3
			AND status <> 'cancelled'
		ORDER BY appointment_date ASC, appointment_time ASC, created_at ASC
		LIMIT $4
	`, salonID, dateValue(from), dateValue(to), limit)
}

// ListByStaff returns the non-cancelled appointments of a staff member inside [from, to] in slot order.
func (r *BookingRepository) ListByStaff(ctx context.Context, staffID string, from, to availability.Date) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE staff_id = $1
			AND appointment_date BETWEEN $2 AND $3
			AND status <> 'cancelled'
		ORDER BY appointment_date ASC, appointment_time ASC
	`, staffID, dateValue(from), dateValue(to))
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// IsConflict reports a violation of the one-booking-per-staff-slot index.
func IsConflict(err error) bool {
	return db.HasCode(err, db.CodeUniqueViolation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var day time.Time
	var clock string
	var cancelledAt *time.Time
	if err := row.Scan(
		&appt.ID,
		&appt.SalonID,
		&appt.ServiceID,
		&appt.StaffID,
		&appt.CustomerName,
		&appt.CustomerEmail,
		&appt.CustomerPhone,
		&day,
		&clock,
		&appt.Status,
		&appt.AccessToken,
		&cancelledAt,
		&appt.CancelReason,
		&appt.CreatedAt,
	); err != nil {
		return model.Appointment{}, err
	}
	t, err := availability.ParseTimeOfDay(clock)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Date = availability.DateOf(day)
	appt.Time = t
	appt.CancelledAt = cancelledAt
	return appt, nil
}

// dateValue encodes a calendar date for a Postgres date column.
func dateValue(d availability.Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (r *BookingRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, salonID, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT salon_id::text,
			idempotency_key,
			COALESCE(appointment_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE salon_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, salonID, key).Scan(
		&rec.SalonID,
		&rec.IdempotencyKey,
		&rec.AppointmentID,
		&rec.StatusCode,
		&responseText,
	)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}
