package availability

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// OpenTimes returns the start times on date, walked every step from the start of each working
// range, that are inside working hours and not in booked. The result is sorted and unique.
func OpenTimes(schedule WeeklySchedule, date Date, step time.Duration, booked []TimeOfDay) []TimeOfDay {
	stepMins := int(step / time.Minute)
	if stepMins <= 0 {
		return nil
	}

	taken := make(map[TimeOfDay]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}

	seen := map[TimeOfDay]struct{}{}
	var out []TimeOfDay
	for _, r := range schedule.RangesOn(date) {
		for t := r.Start; t < r.End; t += TimeOfDay(stepMins) {
			if _, ok := taken[t]; ok {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// View is the span of a calendar or booked-slots query.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

var ErrInvalidView = errors.New("invalid view")

func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewDay, ViewWeek, ViewMonth:
		return v, nil
	case "":
		return ViewDay, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
	}
}

// RangeFor returns the inclusive date range of view around date. Weeks run Monday to Sunday.
func RangeFor(date Date, view View) (Date, Date, error) {
	if !date.Valid() {
		return Date{}, Date{}, fmt.Errorf("%w: %s", ErrInvalidDate, date)
	}
	switch view {
	case ViewDay:
		return date, date, nil
	case ViewWeek:
		sinceMonday := (int(date.Weekday()) + 6) % 7
		from := date.AddDays(-sinceMonday)
		return from, from.AddDays(6), nil
	case ViewMonth:
		from := Date{Year: date.Year, Month: date.Month, Day: 1}
		to := Date{Year: date.Year, Month: date.Month, Day: DaysIn(date.Year, date.Month)}
		return from, to, nil
	default:
		return Date{}, Date{}, fmt.Errorf("%w: %q", ErrInvalidView, view)
	}
}
