package calendar

import (
	"errors"
	"math"
	"testing"
	"time"
)

// 2024-01-01 is a Monday.
func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func assertDate(t *testing.T, label string, got, want time.Time) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s: expected %s, got %s", label, want.Format("Mon 2006-01-02"), got.Format("Mon 2006-01-02"))
	}
}

func TestIsWorkingDay_Weekdays(t *testing.T) {
	cal := Default()

	for d := 1; d <= 5; d++ {
		if !IsWorkingDay(day(d), cal) {
			t.Errorf("expected Jan %d to be a working day", d)
		}
	}
	if IsWorkingDay(day(6), cal) {
		t.Error("expected Saturday to be non-working")
	}
	if IsWorkingDay(day(7), cal) {
		t.Error("expected Sunday to be non-working")
	}
}

func TestIsWorkingDay_HolidayIgnoresTimeOfDay(t *testing.T) {
	cal := Default()
	cal.Holidays = []time.Time{day(3)}

	afternoon := time.Date(2024, time.January, 3, 15, 30, 0, 0, time.UTC)
	if IsWorkingDay(afternoon, cal) {
		t.Error("expected holiday to be non-working regardless of time")
	}
	if !IsWorkingDay(day(4), cal) {
		t.Error("expected day after holiday to be working")
	}
}

func TestIsWorkingDay_ExceptionOverridesHoliday(t *testing.T) {
	cal := Default()
	cal.Holidays = []time.Time{day(3)}
	cal.Exceptions = []Exception{{Date: day(3), IsWorking: true, Reason: "release crunch"}}

	if !IsWorkingDay(day(3), cal) {
		t.Error("expected working exception to override holiday")
	}
}

func TestIsWorkingDay_ExceptionOverridesWeekday(t *testing.T) {
	cal := Default()
	cal.Exceptions = []Exception{
		{Date: day(6), IsWorking: true},
		{Date: day(8), IsWorking: false},
	}

	if !IsWorkingDay(day(6), cal) {
		t.Error("expected Saturday exception to be working")
	}
	if IsWorkingDay(day(8), cal) {
		t.Error("expected Monday exception to be non-working")
	}
}

func TestIsWorkingDay_RecurringHoliday(t *testing.T) {
	cal := Default()
	cal.RecurringHolidays = []string{"FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25"}

	christmas := time.Date(2024, time.December, 25, 9, 0, 0, 0, time.UTC) // Wednesday
	if IsWorkingDay(christmas, cal) {
		t.Error("expected recurring holiday to be non-working")
	}
	if !IsWorkingDay(christmas.AddDate(0, 0, -1), cal) {
		t.Error("expected Dec 24 to be working")
	}
}

func TestIsWorkingDay_NilCalendarUsesDefault(t *testing.T) {
	if !IsWorkingDay(day(1), nil) {
		t.Error("expected Monday to be working on the default calendar")
	}
	if IsWorkingDay(day(6), nil) {
		t.Error("expected Saturday to be non-working on the default calendar")
	}
}

func TestNextAndPreviousWorkingDay(t *testing.T) {
	cal := Default()

	assertDate(t, "next after Friday", NextWorkingDay(day(5), cal), day(8))
	assertDate(t, "next after Monday", NextWorkingDay(day(1), cal), day(2))
	assertDate(t, "previous before Monday", PreviousWorkingDay(day(8), cal), day(5))
	assertDate(t, "previous before Sunday", PreviousWorkingDay(day(7), cal), day(5))
}

func TestSnapToWorkingDay(t *testing.T) {
	cal := Default()

	assertDate(t, "already working", SnapToWorkingDay(day(3), cal, Nearest), day(3))
	assertDate(t, "saturday forward", SnapToWorkingDay(day(6), cal, Forward), day(8))
	assertDate(t, "saturday backward", SnapToWorkingDay(day(6), cal, Backward), day(5))
	assertDate(t, "saturday nearest", SnapToWorkingDay(day(6), cal, Nearest), day(5))
	assertDate(t, "sunday nearest", SnapToWorkingDay(day(7), cal, Nearest), day(8))
	assertDate(t, "zero direction", SnapToWorkingDay(day(7), cal, ""), day(8))
}

func TestSnapToWorkingDay_TieFavoursNext(t *testing.T) {
	cal := Default()
	cal.Holidays = []time.Time{day(10)} // Wednesday

	assertDate(t, "tie", SnapToWorkingDay(day(10), cal, Nearest), day(11))
}

func TestWorkingDays(t *testing.T) {
	cal := Default()

	if got := WorkingDays(day(1), day(14), cal); got != 10 {
		t.Errorf("expected 10 working days in two weeks, got %d", got)
	}
	if got := WorkingDays(day(3), day(3), cal); got != 1 {
		t.Errorf("expected a single working day to count as 1, got %d", got)
	}
	if got := WorkingDays(day(6), day(7), cal); got != 0 {
		t.Errorf("expected weekend to count as 0, got %d", got)
	}
	if got := WorkingDays(day(10), day(1), cal); got != 0 {
		t.Errorf("expected reversed range to count as 0, got %d", got)
	}

	late := time.Date(2024, time.January, 1, 18, 0, 0, 0, time.UTC)
	early := time.Date(2024, time.January, 2, 8, 0, 0, 0, time.UTC)
	if got := WorkingDays(late, early, cal); got != 2 {
		t.Errorf("expected date-level inclusive count of 2, got %d", got)
	}
}

func TestAddWorkingDays(t *testing.T) {
	cal := Default()

	assertDate(t, "zero", AddWorkingDays(day(6), 0, cal), day(6))
	assertDate(t, "friday +1", AddWorkingDays(day(5), 1, cal), day(8))
	assertDate(t, "monday +5", AddWorkingDays(day(1), 5, cal), day(8))
	assertDate(t, "saturday +1", AddWorkingDays(day(6), 1, cal), day(8))
	assertDate(t, "monday -1", AddWorkingDays(day(8), -1, cal), day(5))
	assertDate(t, "wednesday -5", AddWorkingDays(day(10), -5, cal), day(3))
}

func TestAddWorkingDays_KeepsTimeOfDay(t *testing.T) {
	start := time.Date(2024, time.January, 5, 14, 45, 0, 0, time.UTC)
	got := AddWorkingDays(start, 1, Default())
	want := time.Date(2024, time.January, 8, 14, 45, 0, 0, time.UTC)
	assertDate(t, "friday afternoon +1", got, want)
}

func TestEndDate(t *testing.T) {
	cal := Default()

	assertDate(t, "milestone", EndDate(day(6), 0, cal), day(6))
	assertDate(t, "negative", EndDate(day(3), -2, cal), day(3))
	assertDate(t, "one day", EndDate(day(3), 1, cal), day(3))
	assertDate(t, "full week", EndDate(day(1), 5, cal), day(5))
	assertDate(t, "across weekend", EndDate(day(4), 3, cal), day(8))
}

func TestEndDateDurationRoundTrip(t *testing.T) {
	cal := AllDays()
	start := time.Date(2024, time.February, 26, 9, 0, 0, 0, time.UTC)

	for n := 1; n <= 60; n++ {
		end := EndDate(start, n, cal)
		if got := Duration(start, end, cal); got != n {
			t.Fatalf("n=%d: expected duration %d, got %d (end %s)", n, n, got, end.Format("2006-01-02"))
		}
	}
}

func TestEndDateDurationRoundTrip_WorkWeek(t *testing.T) {
	cal := Default()
	cal.Holidays = []time.Time{day(15)}

	for n := 1; n <= 30; n++ {
		end := EndDate(day(2), n, cal)
		if got := Duration(day(2), end, cal); got != n {
			t.Fatalf("n=%d: expected duration %d, got %d", n, n, got)
		}
	}
}

func TestSearchLimitStopsDegenerateCalendar(t *testing.T) {
	cal := &WorkingCalendar{ID: "never", SearchLimit: 10}

	got := NextWorkingDay(day(1), cal)
	assertDate(t, "bounded next", got, day(12))

	got = AddWorkingDays(day(1), 3, cal)
	if !got.After(day(1)) {
		t.Errorf("expected bounded add to move forward, got %s", got)
	}
}

func TestValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("unexpected error for default calendar: %v", err)
	}

	empty := &WorkingCalendar{ID: "empty"}
	if err := empty.Validate(); !errors.Is(err, ErrNoWorkingDays) {
		t.Errorf("expected ErrNoWorkingDays, got %v", err)
	}

	onlyException := &WorkingCalendar{
		ID:         "one-off",
		Exceptions: []Exception{{Date: day(6), IsWorking: true}},
	}
	if err := onlyException.Validate(); err != nil {
		t.Errorf("expected working exception to satisfy Validate, got %v", err)
	}

	badRule := Default()
	badRule.RecurringHolidays = []string{"FREQ=SOMETIMES"}
	if err := badRule.Validate(); !errors.Is(err, ErrInvalidRecurrence) {
		t.Errorf("expected ErrInvalidRecurrence, got %v", err)
	}

	badDay := &WorkingCalendar{ID: "bad", WorkingDays: []time.Weekday{9}}
	if err := badDay.Validate(); err == nil {
		t.Error("expected out-of-range weekday to be rejected")
	}
}

func TestParseDirection(t *testing.T) {
	cases := map[string]Direction{
		"":         Nearest,
		"nearest":  Nearest,
		"Forward":  Forward,
		"next":     Forward,
		"backward": Backward,
		"prev":     Backward,
	}
	for in, want := range cases {
		got, err := ParseDirection(in)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("%q: expected %s, got %s", in, want, got)
		}
	}

	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("expected error for unknown direction")
	}
}

func TestAddWorkingDays_ClampsHugeCounts(t *testing.T) {
	never := &WorkingCalendar{ID: "never", SearchLimit: 10}
	for _, n := range []int{math.MaxInt, math.MinInt, -math.MaxInt} {
		got := AddWorkingDays(day(1), n, never)
		span := got.Sub(day(1)).Hours() / 24
		if math.Abs(span) > float64(MaxSpanDays+10) {
			t.Errorf("%d: expected walk bounded by %d days, moved %.0f", n, MaxSpanDays+10, span)
		}
		if span == 0 {
			t.Errorf("%d: expected date to move", n)
		}
	}

	got := AddWorkingDays(day(1), math.MaxInt, Default())
	want := AddWorkingDays(day(1), MaxSpanDays, Default())
	assertDate(t, "clamped add", got, want)
}

func TestCheckDays(t *testing.T) {
	if err := CheckDays(250, 365); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := CheckDays(-365, 365); err != nil {
		t.Errorf("unexpected error at bound: %v", err)
	}
	for _, n := range []float64{366, -366, 5e9, math.NaN(), math.Inf(1)} {
		if err := CheckDays(n, 365); !errors.Is(err, ErrTooManyDays) {
			t.Errorf("%v: expected ErrTooManyDays, got %v", n, err)
		}
	}
	if err := CheckDays(MaxSpanDays+1, 0); err == nil {
		t.Error("expected zero max to fall back to MaxSpanDays")
	}
}

func TestRecurringHolidayWeekly(t *testing.T) {
	cal := Default()
	cal.RecurringHolidays = []string{"FREQ=WEEKLY;BYDAY=WE"}

	end := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	// 262 weekdays in 2024, 52 of them Wednesdays.
	if got := WorkingDays(day(1), end, cal); got != 210 {
		t.Errorf("expected 210 working days, got %d", got)
	}
	if lookupRule("FREQ=WEEKLY;BYDAY=WE") != lookupRule("FREQ=WEEKLY;BYDAY=WE") {
		t.Error("expected parsed rule to be reused")
	}
}

func TestRecurringHolidayScan_IsFast(t *testing.T) {
	cal := Default()
	cal.RecurringHolidays = []string{"FREQ=WEEKLY;BYDAY=WE", "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25"}

	end := day(1).AddDate(20, 0, 0)
	began := time.Now()
	WorkingDays(day(1), end, cal)
	if elapsed := time.Since(began); elapsed > time.Second {
		t.Errorf("expected twenty-year scan under 1s, took %s", elapsed)
	}
}

func BenchmarkWorkingDays_RecurringHoliday(b *testing.B) {
	cal := Default()
	cal.RecurringHolidays = []string{"FREQ=WEEKLY;BYDAY=WE"}
	end := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)

	for i := 0; i < b.N; i++ {
		WorkingDays(day(1), end, cal)
	}
}
