package calendar

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/teambition/rrule-go"
)

var recurrenceAnchor = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// maxCachedRules bounds the rule cache; it is emptied when full.
const maxCachedRules = 512

func parseRule(s string) (*rrule.RRule, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "RRULE:"))
	opt, err := rrule.StrToROption(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidRecurrence, s, err)
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = recurrenceAnchor
	}
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidRecurrence, s, err)
	}
	return r, nil
}

type dateKey struct {
	year  int
	month time.Month
	day   int
}

// ruleDates is a parsed rule with its occurrences expanded one UTC year at a time.
type ruleDates struct {
	rule *rrule.RRule // nil when the rule does not parse

	mu    sync.Mutex
	years map[int]map[dateKey]struct{}
}

func (rd *ruleDates) occursOn(key dateKey) bool {
	if rd.rule == nil {
		return false
	}
	rd.mu.Lock()
	defer rd.mu.Unlock()

	dates, ok := rd.years[key.year]
	if !ok {
		from := time.Date(key.year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(1, 0, 0).Add(-time.Nanosecond)
		dates = make(map[dateKey]struct{})
		for _, occ := range rd.rule.Between(from, to, true) {
			y, m, d := occ.UTC().Date()
			dates[dateKey{y, m, d}] = struct{}{}
		}
		rd.years[key.year] = dates
	}
	_, hit := dates[key]
	return hit
}

var ruleCache = struct {
	sync.Mutex
	rules map[string]*ruleDates
}{rules: make(map[string]*ruleDates)}

// lookupRule returns the cached expansion of s, parsing it on first use.
func lookupRule(s string) *ruleDates {
	ruleCache.Lock()
	defer ruleCache.Unlock()

	if rd, ok := ruleCache.rules[s]; ok {
		return rd
	}
	if len(ruleCache.rules) >= maxCachedRules {
		ruleCache.rules = make(map[string]*ruleDates)
	}
	rd := &ruleDates{years: make(map[int]map[dateKey]struct{})}
	if r, err := parseRule(s); err == nil {
		rd.rule = r
	}
	ruleCache.rules[s] = rd
	return rd
}

// recursOn reports whether any recurring holiday falls on the calendar date of d.
// Unparseable rules never match; Validate surfaces them.
func (c *WorkingCalendar) recursOn(d time.Time) bool {
	if len(c.RecurringHolidays) == 0 {
		return false
	}
	y, m, day := d.Date()
	key := dateKey{y, m, day}
	for _, s := range c.RecurringHolidays {
		if lookupRule(s).occursOn(key) {
			return true
		}
	}
	return false
}
