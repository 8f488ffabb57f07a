package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshharrison/timeloom/internal/calendar"
	"github.com/joshharrison/timeloom/internal/project"
	"github.com/joshharrison/timeloom/internal/ui"
)

func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Working-day arithmetic against the configured calendar",
	}

	cmd.AddCommand(dateCmd("is-working <date>", "Report whether a date is a working day",
		func(cal *calendar.WorkingCalendar, d time.Time) error {
			ok := calendar.IsWorkingDay(d, cal)
			if flagJSON {
				return outputJSON(map[string]any{"date": d, "is_working_day": ok})
			}
			if ok {
				fmt.Printf("%s %s is a working day\n", ui.Green("✓"), d.Format("2006-01-02 Mon"))
			} else {
				fmt.Printf("%s %s is not a working day\n", ui.Red("✗"), d.Format("2006-01-02 Mon"))
			}
			return nil
		}))
	cmd.AddCommand(dateCmd("next <date>", "First working day after a date",
		func(cal *calendar.WorkingCalendar, d time.Time) error {
			return printDate(calendar.NextWorkingDay(d, cal))
		}))
	cmd.AddCommand(dateCmd("prev <date>", "Last working day before a date",
		func(cal *calendar.WorkingCalendar, d time.Time) error {
			return printDate(calendar.PreviousWorkingDay(d, cal))
		}))
	cmd.AddCommand(snapCmd())
	cmd.AddCommand(countCmd("add <date> <days>", "Move a date by working days (negative moves back)",
		func(cal *calendar.WorkingCalendar, d time.Time, n int) error {
			return printDate(calendar.AddWorkingDays(d, n, cal))
		}))
	cmd.AddCommand(countCmd("end-date <start> <duration>", "Last day of a task lasting duration working days",
		func(cal *calendar.WorkingCalendar, d time.Time, n int) error {
			return printDate(calendar.EndDate(d, n, cal))
		}))
	cmd.AddCommand(durationCmd())

	return cmd
}

// dateCmd builds a subcommand taking a single date argument.
func dateCmd(use, short string, run func(*calendar.WorkingCalendar, time.Time) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := loadCalendar()
			if err != nil {
				return err
			}
			d, err := project.ParseDate(args[0])
			if err != nil {
				return err
			}
			return run(cal, d)
		},
	}
}

// countCmd builds a subcommand taking a date and a day count.
func countCmd(use, short string, run func(*calendar.WorkingCalendar, time.Time, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := loadCalendar()
			if err != nil {
				return err
			}
			d, err := project.ParseDate(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid day count %q", args[1])
			}
			maxDays := 0
			if cfg != nil {
				maxDays = cfg.MaxDays
			}
			if err := calendar.CheckDays(float64(n), maxDays); err != nil {
				return err
			}
			return run(cal, d, n)
		},
	}
}

func snapCmd() *cobra.Command {
	var flagDirection string

	cmd := dateCmd("snap <date>", "Move a date onto a working day",
		func(cal *calendar.WorkingCalendar, d time.Time) error {
			dir, err := calendar.ParseDirection(flagDirection)
			if err != nil {
				return err
			}
			return printDate(calendar.SnapToWorkingDay(d, cal, dir))
		})
	cmd.Flags().StringVar(&flagDirection, "direction", "nearest", "next, prev or nearest")
	return cmd
}

func durationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duration <start> <end>",
		Short: "Count working days from start to end, inclusive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := loadCalendar()
			if err != nil {
				return err
			}
			start, err := project.ParseDate(args[0])
			if err != nil {
				return err
			}
			end, err := project.ParseDate(args[1])
			if err != nil {
				return err
			}
			n := calendar.Duration(start, end, cal)
			if flagJSON {
				return outputJSON(map[string]int{"working_days": n})
			}
			fmt.Printf("%s working days\n", ui.Bold(n))
			return nil
		},
	}
}

func printDate(d time.Time) error {
	if flagJSON {
		return outputJSON(map[string]time.Time{"date": d})
	}
	fmt.Println(d.Format("2006-01-02 Mon"))
	return nil
}
