package availability

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-18")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2025, Month: time.June, Day: 18}, d)
	assert.Equal(t, "2025-06-18", d.String())

	for _, bad := range []string{"", "2025-6-18", "2025/06/18", "2025-02-30", "2025-13-01", "2023-02-29", "abcd-ef-gh", "0000-01-01"} {
		_, err := ParseDate(bad)
		assert.True(t, errors.Is(err, ErrInvalidDate), "expected ErrInvalidDate for %q", bad)
	}

	_, err = ParseDate("2024-02-29")
	assert.NoError(t, err, "leap day")
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("14:30")
	require.NoError(t, err)
	assert.Equal(t, Clock(14, 30), tod)
	assert.Equal(t, "14:30", tod.String())

	for _, bad := range []string{"", "24:00", "9:00", "12:60", "12-30", "1230", "ab:cd"} {
		_, err := ParseTimeOfDay(bad)
		assert.True(t, errors.Is(err, ErrInvalidTime), "expected ErrInvalidTime for %q", bad)
	}
}

func TestWeekdayOf_MatchesUTCCalendar(t *testing.T) {
	d := Date{Year: 1999, Month: time.December, Day: 25}
	for i := 0; i < 3*366; i++ {
		want := time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Weekday()
		require.Equal(t, want, WeekdayOf(d), "date %s", d)
		d = d.AddDays(1)
	}
	assert.Equal(t, time.Wednesday, WeekdayOf(Date{Year: 2025, Month: time.June, Day: 18}))
	assert.Equal(t, time.Wednesday, WeekdayOf(Date{Year: 2025, Month: time.January, Day: 1}))
	assert.Equal(t, time.Saturday, WeekdayOf(Date{Year: 2000, Month: time.January, Day: 1}))
}

func TestWeekdayOf_IgnoresLocalZone(t *testing.T) {
	saved := time.Local
	defer func() { time.Local = saved }()

	d := Date{Year: 2025, Month: time.June, Day: 18}
	for _, name := range []string{"Pacific/Kiritimati", "Pacific/Pago_Pago", "America/Los_Angeles", "Asia/Tokyo"} {
		loc, err := time.LoadLocation(name)
		if err != nil {
			t.Skipf("tzdata not available: %v", err)
		}
		time.Local = loc
		assert.Equal(t, time.Wednesday, d.Weekday(), "zone %s", name)
	}
}

func TestDateArithmetic(t *testing.T) {
	d := Date{Year: 2024, Month: time.February, Day: 28}
	assert.Equal(t, Date{Year: 2024, Month: time.February, Day: 29}, d.AddDays(1))
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 1}, d.AddDays(2))
	assert.Equal(t, Date{Year: 2023, Month: time.December, Day: 31}, Date{Year: 2024, Month: time.January, Day: 1}.AddDays(-1))

	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(40).After(d))
	assert.Equal(t, 0, d.Compare(d))
	assert.Equal(t, 29, DaysIn(2000, time.February))
	assert.Equal(t, 28, DaysIn(1900, time.February))
}

func TestParseWeekday(t *testing.T) {
	wd, err := ParseWeekday("Sunday")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd)

	_, err = ParseWeekday("wednesday")
	assert.ErrorIs(t, err, ErrInvalidWeekday)
}
