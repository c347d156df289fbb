package storage

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/randevya/salonbook/services/booking-service/internal/availability"
	"github.com/randevya/salonbook/services/booking-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, v := range r.values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		case **time.Time:
			if v != nil {
				t := v.(time.Time)
				*d = &t
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", dest[i])
		}
	}
	return nil
}

func TestErrorClassification(t *testing.T) {
	dup := fmt.Errorf("insert appointment: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsConflict(dup))
	assert.False(t, IsConflict(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsConflict(nil))

	assert.True(t, IsNotFound(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, IsNotFound(dup))
}

func TestScanAppointment(t *testing.T) {
	created := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	cancelled := created.Add(time.Hour)
	appt, err := scanAppointment(fakeRow{values: []any{
		"a1", "salon-1", "svc-1", "s1",
		"Ayşe", "ayse@example.com", "+905550000000",
		time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), "14:30",
		model.StatusCancelled, "token-1", cancelled, "sick", created,
	}})
	require.NoError(t, err)
	assert.Equal(t, availability.Date{Year: 2025, Month: time.June, Day: 18}, appt.Date)
	assert.Equal(t, availability.Clock(14, 30), appt.Time)
	require.NotNil(t, appt.CancelledAt)
	assert.Equal(t, cancelled, *appt.CancelledAt)
	assert.Equal(t, "sick", appt.CancelReason)

	_, err = scanAppointment(fakeRow{values: []any{
		"a1", "salon-1", "svc-1", "s1", "", "", "",
		time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), "2:30",
		model.StatusPending, "token-1", nil, "", created,
	}})
	assert.ErrorIs(t, err, availability.ErrInvalidTime)
}

func TestScanStaff(t *testing.T) {
	staff, err := scanStaff(fakeRow{values: []any{
		"s1", "salon-1", "Deniz",
		[]byte(`[{"day":"Wednesday","slots":[{"start":"14:00","end":"15:00"}]}]`),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)
	wed := availability.Date{Year: 2025, Month: time.June, Day: 18}
	assert.True(t, staff.Schedule.IsWorkingAt(wed, availability.Clock(14, 59)))
	assert.False(t, staff.Schedule.IsWorkingAt(wed, availability.Clock(15, 0)))

	_, err = scanStaff(fakeRow{values: []any{
		"s2", "salon-1", "Ece", []byte(`{"day":"Monday"}`), time.Now(),
	}})
	assert.ErrorIs(t, err, ErrInvalidWorkingHours)

	_, err = scanStaff(fakeRow{err: pgx.ErrNoRows})
	assert.True(t, IsNotFound(err))
}

func TestDateValue(t *testing.T) {
	d := availability.Date{Year: 2024, Month: time.February, Day: 29}
	v := dateValue(d)
	assert.Equal(t, d, availability.DateOf(v))
	assert.Equal(t, time.UTC, v.Location())
}

type fakeRows struct {
	rows []fakeRow
	pos  int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error { return r.rows[r.pos-1].Scan(dest...) }

func (r *fakeRows) Err() error { return r.err }

func staffRow(id, hours string) fakeRow {
	return fakeRow{values: []any{id, "salon-1", "Staff " + id, []byte(hours), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}}
}

func TestCollectStaff_SkipsUnreadableHours(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	roster, err := collectStaff(&fakeRows{rows: []fakeRow{
		staffRow("s1", `[{"day":"Wednesday","slots":[{"start":"14:00","end":"15:00"}]}]`),
		staffRow("s2", `[{"day":"Wednesday","slots":[{"start":"25:00","end":"26:00"}]}]`),
		staffRow("s3", `[{"day":"Wednesday","slots":[{"start":"18:00","end":"24:00"}]}]`),
	}}, logger)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "s1", roster[0].ID)
	assert.Equal(t, "s3", roster[1].ID)
	assert.Contains(t, logs.String(), "s2")

	wed := availability.Date{Year: 2025, Month: time.June, Day: 18}
	assert.True(t, roster[1].Schedule.IsWorkingAt(wed, availability.Clock(23, 30)))
}

func TestCollectStaff_ScanFailureAborts(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	_, err := collectStaff(&fakeRows{rows: []fakeRow{{err: errors.New("conn reset")}}}, logger)
	assert.EqualError(t, err, "conn reset")

	_, err = collectStaff(&fakeRows{err: errors.New("rows closed")}, logger)
	assert.EqualError(t, err, "rows closed")
}
