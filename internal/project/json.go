package project

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/joshharrison/timeloom/internal/calendar"
)

// ParseJSON decodes a project exported by the chart UI. Keys may be
// camelCase (startDate, fromTaskId) or the short snake_case forms used by the
// YAML format; dates may be strings or epoch milliseconds.
func ParseJSON(data []byte) (*Project, error) {
	return ParseJSONWithCalendar(data, nil)
}

// ParseJSONWithCalendar is ParseJSON with the calendar to use when the
// document carries none. A nil fallback means the default calendar.
func ParseJSONWithCalendar(data []byte, fallback *calendar.WorkingCalendar) (*Project, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	doc := gjson.ParseBytes(data)

	cal := fallback
	if c := doc.Get("calendar"); c.Exists() && c.IsObject() {
		parsed, err := calendarFromJSON(c)
		if err != nil {
			return nil, err
		}
		cal = parsed
	}

	var tasks []rawTask
	var parseErr error
	doc.Get("tasks").ForEach(func(_, item gjson.Result) bool {
		rt, err := taskFromJSON(item)
		if err != nil {
			parseErr = err
			return false
		}
		tasks = append(tasks, rt)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	var deps []rawDependency
	doc.Get("dependencies").ForEach(func(_, item gjson.Result) bool {
		deps = append(deps, rawDependency{
			ID:   item.Get("id").String(),
			From: first(item, "fromTaskId", "from_task_id", "from").String(),
			To:   first(item, "toTaskId", "to_task_id", "to").String(),
			Type: item.Get("type").String(),
			Lag:  item.Get("lag").Float(),
		})
		return true
	})

	return build(first(doc, "name", "title").String(), cal, tasks, deps)
}

// ParseCalendarJSON decodes a standalone JSON calendar.
func ParseCalendarJSON(raw string) (*calendar.WorkingCalendar, error) {
	if !gjson.Valid(raw) {
		return nil, errors.New("invalid JSON")
	}
	cal, err := calendarFromJSON(gjson.Parse(raw))
	if err != nil {
		return nil, err
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return cal, nil
}

func taskFromJSON(item gjson.Result) (rawTask, error) {
	rt := rawTask{
		ID:       item.Get("id").String(),
		Name:     first(item, "name", "title").String(),
		Duration: item.Get("duration").Float(),
		Type:     item.Get("type").String(),
		Progress: int(item.Get("progress").Int()),
		Parent:   first(item, "parentId", "parent_id", "parent").String(),
	}

	if v := first(item, "startDate", "start_date", "start"); v.Exists() {
		start, err := dateFromJSON(v)
		if err != nil {
			return rt, fmt.Errorf("task %s start: %w", rt.ID, err)
		}
		rt.Start = start
	}
	if v := first(item, "endDate", "end_date", "end"); v.Exists() && v.Type != gjson.Null {
		end, err := dateFromJSON(v)
		if err != nil {
			return rt, fmt.Errorf("task %s end: %w", rt.ID, err)
		}
		rt.End = end
		rt.HasEnd = true
	}
	return rt, nil
}

func calendarFromJSON(c gjson.Result) (*calendar.WorkingCalendar, error) {
	hours := first(c, "workingHours", "working_hours")
	cal := &calendar.WorkingCalendar{
		ID:   c.Get("id").String(),
		Name: c.Get("name").String(),
		WorkingHours: calendar.WorkingHours{
			Start: hours.Get("start").String(),
			End:   hours.Get("end").String(),
		},
	}
	if cal.ID == "" {
		cal.ID = "custom"
	}

	days := first(c, "workingDays", "working_days")
	if !days.Exists() {
		cal.WorkingDays = calendar.Default().WorkingDays
	}
	for _, v := range days.Array() {
		wd, err := ParseWeekday(v.String())
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", cal.ID, err)
		}
		cal.WorkingDays = append(cal.WorkingDays, wd)
	}

	for _, v := range c.Get("holidays").Array() {
		d, err := dateFromJSON(v)
		if err != nil {
			return nil, fmt.Errorf("calendar %s holiday: %w", cal.ID, err)
		}
		cal.Holidays = append(cal.Holidays, d)
	}

	for _, v := range first(c, "recurringHolidays", "recurring_holidays").Array() {
		cal.RecurringHolidays = append(cal.RecurringHolidays, v.String())
	}

	for _, v := range c.Get("exceptions").Array() {
		d, err := dateFromJSON(v.Get("date"))
		if err != nil {
			return nil, fmt.Errorf("calendar %s exception: %w", cal.ID, err)
		}
		cal.Exceptions = append(cal.Exceptions, calendar.Exception{
			Date:      d,
			IsWorking: first(v, "isWorking", "is_working", "working").Bool(),
			Reason:    v.Get("reason").String(),
		})
	}

	return cal, nil
}

// CalendarFromResult decodes a calendar object already located by gjson.
// Missing objects yield the default calendar.
func CalendarFromResult(c gjson.Result) (*calendar.WorkingCalendar, error) {
	if !c.Exists() || !c.IsObject() {
		return calendar.Default(), nil
	}
	cal, err := calendarFromJSON(c)
	if err != nil {
		return nil, err
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return cal, nil
}

// DateFromResult decodes a date given as a string or epoch milliseconds.
func DateFromResult(v gjson.Result) (time.Time, error) {
	return dateFromJSON(v)
}

func dateFromJSON(v gjson.Result) (time.Time, error) {
	switch v.Type {
	case gjson.Number:
		return FromEpochMillis(v.Int()), nil
	case gjson.String:
		return ParseDate(v.String())
	}
	return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, v.Raw)
}

// first returns the first key of obj that exists.
func first(obj gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := obj.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
