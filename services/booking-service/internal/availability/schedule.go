package availability

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EndOfDay closes a range that runs until midnight. It is only accepted as a range end, written "24:00".
const EndOfDay = TimeOfDay(MinutesPerDay)

// TimeRange is the half-open interval [Start, End). A range with Start >= End matches nothing.
type TimeRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

type timeRangeJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r TimeRange) MarshalJSON() ([]byte, error) {
	start, err := r.Start.MarshalText()
	if err != nil {
		return nil, err
	}
	end := "24:00"
	if r.End != EndOfDay {
		b, err := r.End.MarshalText()
		if err != nil {
			return nil, err
		}
		end = string(b)
	}
	return json.Marshal(timeRangeJSON{Start: string(start), End: end})
}

func (r *TimeRange) UnmarshalJSON(b []byte) error {
	var raw timeRangeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	start, err := ParseTimeOfDay(raw.Start)
	if err != nil {
		return err
	}
	end, err := parseRangeEnd(raw.End)
	if err != nil {
		return err
	}
	*r = TimeRange{Start: start, End: end}
	return nil
}

func parseRangeEnd(s string) (TimeOfDay, error) {
	if strings.TrimSpace(s) == "24:00" {
		return EndOfDay, nil
	}
	return ParseTimeOfDay(s)
}

func (r TimeRange) Empty() bool {
	return r.Start >= r.End
}

func (r TimeRange) Contains(t TimeOfDay) bool {
	return !r.Empty() && r.Start <= t && t < r.End
}

// DayAvailability lists the working ranges for one weekday. Ranges may overlap; membership is their union.
type DayAvailability struct {
	Day   time.Weekday
	Slots []TimeRange
}

type dayAvailabilityJSON struct {
	Day   string      `json:"day"`
	Slots []TimeRange `json:"slots"`
}

func (d DayAvailability) MarshalJSON() ([]byte, error) {
	slots := d.Slots
	if slots == nil {
		slots = []TimeRange{}
	}
	return json.Marshal(dayAvailabilityJSON{Day: d.Day.String(), Slots: slots})
}

func (d *DayAvailability) UnmarshalJSON(b []byte) error {
	var raw dayAvailabilityJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	wd, err := ParseWeekday(raw.Day)
	if err != nil {
		return err
	}
	*d = DayAvailability{Day: wd, Slots: raw.Slots}
	return nil
}

func (d DayAvailability) Contains(t TimeOfDay) bool {
	for _, r := range d.Slots {
		if r.Contains(t) {
			return true
		}
	}
	return false
}

// WeeklySchedule is a recurring weekly availability. A weekday with no entry is a day off.
type WeeklySchedule []DayAvailability

// Validate rejects schedules that list the same weekday twice.
func (s WeeklySchedule) Validate() error {
	var seen [7]bool
	for _, d := range s {
		if d.Day < time.Sunday || d.Day > time.Saturday {
			return fmt.Errorf("%w: %d", ErrInvalidWeekday, int(d.Day))
		}
		if seen[d.Day] {
			return fmt.Errorf("duplicate working hours for %s", d.Day)
		}
		seen[d.Day] = true
	}
	return nil
}

// IsWorkingAt reports whether t falls inside any working range on the weekday of date.
func (s WeeklySchedule) IsWorkingAt(date Date, t TimeOfDay) bool {
	if !date.Valid() {
		return false
	}
	wd := date.Weekday()
	for _, d := range s {
		if d.Day == wd && d.Contains(t) {
			return true
		}
	}
	return false
}

// RangesOn returns the working ranges that apply to date, skipping empty ones.
func (s WeeklySchedule) RangesOn(date Date) []TimeRange {
	if !date.Valid() {
		return nil
	}
	wd := date.Weekday()
	var out []TimeRange
	for _, d := range s {
		if d.Day != wd {
			continue
		}
		for _, r := range d.Slots {
			if !r.Empty() {
				out = append(out, r)
			}
		}
	}
	return out
}

// ParseSchedule decodes the stored JSON form:
//
//	[{"day":"Wednesday","slots":[{"start":"14:00","end":"15:00"}]}]
func ParseSchedule(raw []byte) (WeeklySchedule, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s WeeklySchedule
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode working hours: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
