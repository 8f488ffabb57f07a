package calendar

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// DefaultSearchLimit bounds every day-by-day search (about ten years).
	DefaultSearchLimit = 3660
	// MaxSpanDays is the largest working-day count AddWorkingDays and EndDate
	// will walk (about a century).
	MaxSpanDays = 36600
)

var (
	// ErrNoWorkingDays is returned by Validate when no date could ever be a working day.
	ErrNoWorkingDays = errors.New("calendar has no working days")
	// ErrInvalidRecurrence wraps RRULE parse failures.
	ErrInvalidRecurrence = errors.New("invalid recurring holiday rule")
	// ErrTooManyDays is returned by CheckDays.
	ErrTooManyDays = errors.New("working-day count out of range")
)

// CheckDays rejects working-day counts whose magnitude exceeds max. A max
// of zero or above MaxSpanDays means MaxSpanDays.
func CheckDays(days float64, max int) error {
	if max <= 0 || max > MaxSpanDays {
		max = MaxSpanDays
	}
	if math.IsNaN(days) || math.Abs(days) > float64(max) {
		return fmt.Errorf("%w: %v exceeds %d", ErrTooManyDays, days, max)
	}
	return nil
}

// Direction selects how SnapToWorkingDay moves off a non-working date.
type Direction string

const (
	Nearest  Direction = "nearest"
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// ParseDirection maps a user supplied string to a Direction. Empty means Nearest.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", Nearest:
		return Nearest, nil
	case Forward, "next":
		return Forward, nil
	case Backward, "previous", "prev":
		return Backward, nil
	}
	return "", fmt.Errorf("unknown snap direction %q", s)
}

// WorkingHours is the named daily window. Date arithmetic ignores it.
type WorkingHours struct {
	Start string // "09:00"
	End   string // "17:00"
}

// Exception overrides the working/non-working classification of a single date.
type Exception struct {
	Date      time.Time
	IsWorking bool
	Reason    string
}

// WorkingCalendar defines which calendar dates count as working days.
// Callers build it once and treat it as read-only.
type WorkingCalendar struct {
	ID           string
	Name         string
	WorkingDays  []time.Weekday
	WorkingHours WorkingHours
	Holidays     []time.Time

	// RecurringHolidays holds RFC 5545 RRULE strings, e.g.
	// "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25". Rules without DTSTART are
	// anchored at 1970-01-01 UTC.
	RecurringHolidays []string

	Exceptions []Exception

	// SearchLimit caps day-by-day searches; 0 means DefaultSearchLimit.
	SearchLimit int
}

// Default returns a Monday to Friday calendar with a 09:00-17:00 day.
func Default() *WorkingCalendar {
	return &WorkingCalendar{
		ID:   "default",
		Name: "Standard",
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		WorkingHours: WorkingHours{Start: "09:00", End: "17:00"},
	}
}

// AllDays returns a calendar on which every date is a working day.
func AllDays() *WorkingCalendar {
	return &WorkingCalendar{
		ID:   "all-days",
		Name: "Every day",
		WorkingDays: []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		},
		WorkingHours: WorkingHours{Start: "00:00", End: "23:59"},
	}
}

// Validate rejects calendars that would make searches spin without end
// and recurring rules that cannot be parsed.
func (c *WorkingCalendar) Validate() error {
	for _, wd := range c.WorkingDays {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("calendar %s: weekday %d out of range", c.ID, wd)
		}
	}
	for _, r := range c.RecurringHolidays {
		if _, err := parseRule(r); err != nil {
			return fmt.Errorf("calendar %s: %w", c.ID, err)
		}
	}
	if len(c.WorkingDays) > 0 {
		return nil
	}
	for _, ex := range c.Exceptions {
		if ex.IsWorking {
			return nil
		}
	}
	return fmt.Errorf("calendar %s: %w", c.ID, ErrNoWorkingDays)
}

func (c *WorkingCalendar) searchLimit() int {
	if c.SearchLimit > 0 {
		return c.SearchLimit
	}
	return DefaultSearchLimit
}
