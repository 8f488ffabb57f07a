// Package calendar implements working-day classification and date
// arithmetic against a WorkingCalendar.
//
// All functions compare dates by calendar date (year, month, day) in the
// location of the value passed in; the time of day is carried through
// unchanged. A nil calendar behaves like Default().
//
// Searches step one day at a time. A calendar with no working weekdays and
// no working exceptions has no answer, so every search is capped at the
// calendar's SearchLimit and returns the last date it examined when the cap
// is reached. Call Validate to reject such calendars up front.
package calendar

import "time"

// IsWorkingDay reports whether date is a working day. A matching exception
// wins over both the weekday rule and the holiday lists.
func IsWorkingDay(date time.Time, cal *WorkingCalendar) bool {
	cal = orDefault(cal)

	for _, ex := range cal.Exceptions {
		if sameDate(ex.Date, date) {
			return ex.IsWorking
		}
	}
	if !cal.worksOn(date.Weekday()) {
		return false
	}
	for _, h := range cal.Holidays {
		if sameDate(h, date) {
			return false
		}
	}
	return !cal.recursOn(date)
}

// NextWorkingDay returns the first working day strictly after date.
func NextWorkingDay(date time.Time, cal *WorkingCalendar) time.Time {
	return step(date, 1, orDefault(cal))
}

// PreviousWorkingDay returns the last working day strictly before date.
func PreviousWorkingDay(date time.Time, cal *WorkingCalendar) time.Time {
	return step(date, -1, orDefault(cal))
}

func step(date time.Time, dir int, cal *WorkingCalendar) time.Time {
	cur := date.AddDate(0, 0, dir)
	for i := 0; i < cal.searchLimit() && !IsWorkingDay(cur, cal); i++ {
		cur = cur.AddDate(0, 0, dir)
	}
	return cur
}

// SnapToWorkingDay returns date when it is already a working day, otherwise
// the next, previous or closest working day depending on dir. A tie between
// next and previous resolves to next.
func SnapToWorkingDay(date time.Time, cal *WorkingCalendar, dir Direction) time.Time {
	cal = orDefault(cal)
	if IsWorkingDay(date, cal) {
		return date
	}

	switch dir {
	case Forward:
		return NextWorkingDay(date, cal)
	case Backward:
		return PreviousWorkingDay(date, cal)
	}

	next := NextWorkingDay(date, cal)
	prev := PreviousWorkingDay(date, cal)
	if date.Sub(prev) < next.Sub(date) {
		return prev
	}
	return next
}

// WorkingDays counts working days from start to end, both inclusive.
// It returns 0 when end falls on an earlier date than start.
func WorkingDays(start, end time.Time, cal *WorkingCalendar) int {
	cal = orDefault(cal)
	count := 0
	for cur := start; !dateAfter(cur, end); cur = cur.AddDate(0, 0, 1) {
		if IsWorkingDay(cur, cal) {
			count++
		}
	}
	return count
}

// AddWorkingDays moves date by days working days, backwards for negative
// values. The starting date itself is never counted. Counts beyond
// MaxSpanDays are clamped to it.
func AddWorkingDays(date time.Time, days int, cal *WorkingCalendar) time.Time {
	cal = orDefault(cal)
	dir := 1
	if days < 0 {
		dir = -1
		days = -days
	}
	if days < 0 || days > MaxSpanDays {
		days = MaxSpanDays
	}

	cur := date
	limit := cal.searchLimit() + days
	for added, steps := 0, 0; added < days && steps < limit; steps++ {
		cur = cur.AddDate(0, 0, dir)
		if IsWorkingDay(cur, cal) {
			added++
		}
	}
	return cur
}

// EndDate returns the last day of a task starting on start and lasting
// duration working days. The start day counts as the first working day, so
// a one-day task ends on its start date. Milestones (duration 0) end where
// they start, as do negative durations.
func EndDate(start time.Time, duration int, cal *WorkingCalendar) time.Time {
	if duration <= 0 {
		return start
	}
	return AddWorkingDays(start, duration-1, cal)
}

// Duration is the working-day length of the span start..end, inclusive.
func Duration(start, end time.Time, cal *WorkingCalendar) int {
	return WorkingDays(start, end, cal)
}

func (c *WorkingCalendar) worksOn(wd time.Weekday) bool {
	for _, d := range c.WorkingDays {
		if d == wd {
			return true
		}
	}
	return false
}

func orDefault(cal *WorkingCalendar) *WorkingCalendar {
	if cal == nil {
		return Default()
	}
	return cal
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// dateAfter reports whether a falls on a later calendar date than b.
func dateAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
