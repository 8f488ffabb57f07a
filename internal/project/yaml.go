package project

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/joshharrison/timeloom/internal/calendar"
)

type yamlProject struct {
	Name         string           `yaml:"name"`
	Calendar     *yamlCalendar    `yaml:"calendar"`
	Tasks        []yamlTask       `yaml:"tasks"`
	Dependencies []yamlDependency `yaml:"dependencies"`
}

type yamlTask struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Start    string  `yaml:"start"`
	End      string  `yaml:"end"`
	Duration float64 `yaml:"duration"`
	Type     string  `yaml:"type"`
	Progress int     `yaml:"progress"`
	Parent   string  `yaml:"parent"`
}

type yamlDependency struct {
	ID   string  `yaml:"id"`
	From string  `yaml:"from"`
	To   string  `yaml:"to"`
	Type string  `yaml:"type"`
	Lag  float64 `yaml:"lag"`
}

type yamlCalendar struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	WorkingDays  []string `yaml:"working_days"`
	WorkingHours struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"working_hours"`
	Holidays          []string        `yaml:"holidays"`
	RecurringHolidays []string        `yaml:"recurring_holidays"`
	Exceptions        []yamlException `yaml:"exceptions"`
}

type yamlException struct {
	Date    string `yaml:"date"`
	Working bool   `yaml:"working"`
	Reason  string `yaml:"reason"`
}

// ParseYAML decodes a YAML project definition.
func ParseYAML(data []byte) (*Project, error) {
	var doc yamlProject
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	var cal *calendar.WorkingCalendar
	if doc.Calendar != nil {
		c, err := doc.Calendar.toCalendar()
		if err != nil {
			return nil, err
		}
		cal = c
	}

	tasks := make([]rawTask, 0, len(doc.Tasks))
	for _, yt := range doc.Tasks {
		rt := rawTask{
			ID:       yt.ID,
			Name:     yt.Name,
			Duration: yt.Duration,
			Type:     yt.Type,
			Progress: yt.Progress,
			Parent:   yt.Parent,
		}
		if yt.Start != "" {
			start, err := ParseDate(yt.Start)
			if err != nil {
				return nil, fmt.Errorf("task %s start: %w", yt.ID, err)
			}
			rt.Start = start
		}
		if yt.End != "" {
			end, err := ParseDate(yt.End)
			if err != nil {
				return nil, fmt.Errorf("task %s end: %w", yt.ID, err)
			}
			rt.End = end
			rt.HasEnd = true
		}
		tasks = append(tasks, rt)
	}

	deps := make([]rawDependency, 0, len(doc.Dependencies))
	for _, yd := range doc.Dependencies {
		deps = append(deps, rawDependency(yd))
	}

	return build(doc.Name, cal, tasks, deps)
}

// ParseCalendarYAML decodes a standalone YAML calendar.
func ParseCalendarYAML(data []byte) (*calendar.WorkingCalendar, error) {
	var doc yamlCalendar
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	cal, err := doc.toCalendar()
	if err != nil {
		return nil, err
	}
	if err := cal.Validate(); err != nil {
		return nil, err
	}
	return cal, nil
}

func (yc *yamlCalendar) toCalendar() (*calendar.WorkingCalendar, error) {
	cal := &calendar.WorkingCalendar{
		ID:                yc.ID,
		Name:              yc.Name,
		WorkingHours:      calendar.WorkingHours{Start: yc.WorkingHours.Start, End: yc.WorkingHours.End},
		RecurringHolidays: yc.RecurringHolidays,
	}
	if cal.ID == "" {
		cal.ID = "custom"
	}

	if len(yc.WorkingDays) == 0 {
		cal.WorkingDays = calendar.Default().WorkingDays
	}
	for _, s := range yc.WorkingDays {
		wd, err := ParseWeekday(s)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", cal.ID, err)
		}
		cal.WorkingDays = append(cal.WorkingDays, wd)
	}

	for _, s := range yc.Holidays {
		d, err := ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("calendar %s holiday: %w", cal.ID, err)
		}
		cal.Holidays = append(cal.Holidays, d)
	}

	for _, ye := range yc.Exceptions {
		d, err := ParseDate(ye.Date)
		if err != nil {
			return nil, fmt.Errorf("calendar %s exception: %w", cal.ID, err)
		}
		cal.Exceptions = append(cal.Exceptions, calendar.Exception{Date: d, IsWorking: ye.Working, Reason: ye.Reason})
	}

	return cal, nil
}
