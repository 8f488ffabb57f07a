// Package mcp exposes the scheduler and calendar utilities as MCP tools over
// stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/joshharrison/timeloom/internal/calendar"
	"github.com/joshharrison/timeloom/internal/cpm"
	"github.com/joshharrison/timeloom/internal/project"
	"github.com/joshharrison/timeloom/internal/reporter"
	"github.com/joshharrison/timeloom/internal/telemetry"
)

const calendarArgHelp = "Working calendar as a JSON object (workingDays, holidays, recurringHolidays, exceptions). Defaults to the server calendar."

// NewServer creates a new MCP server. cal is used when a call carries no
// calendar; nil means Monday to Friday. maxDays bounds the day counts the
// add and end-date tools accept; 0 means calendar.MaxSpanDays.
func NewServer(cal *calendar.WorkingCalendar, maxDays int, logger zerolog.Logger) *server.MCPServer {
	if cal == nil {
		cal = calendar.Default()
	}
	s := server.NewMCPServer("Timeloom", "0.1.0")
	h := &handlers{cal: cal, maxDays: maxDays, logger: logger}

	s.AddTool(mcp.NewTool("calculate_critical_path",
		mcp.WithDescription("Compute early/late dates, total slack and the critical path for a task list. Returns JSON."),
		mcp.WithString("project", mcp.Description("Project JSON: {tasks: [{id, name, startDate, endDate|duration, type}], dependencies: [{fromTaskId, toTaskId, type, lag}], calendar?}"), mcp.Required()),
	), h.criticalPath)

	s.AddTool(mcp.NewTool("is_working_day",
		mcp.WithDescription("Report whether a date is a working day."),
		mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD or RFC 3339)"), mcp.Required()),
		mcp.WithString("calendar", mcp.Description(calendarArgHelp)),
	), h.isWorkingDay)

	s.AddTool(mcp.NewTool("snap_to_working_day",
		mcp.WithDescription("Move a date onto the nearest working day."),
		mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD or RFC 3339)"), mcp.Required()),
		mcp.WithString("direction", mcp.Description("next, prev or nearest (default nearest; ties go to next)")),
		mcp.WithString("calendar", mcp.Description(calendarArgHelp)),
	), h.snap)

	s.AddTool(mcp.NewTool("add_working_days",
		mcp.WithDescription("Move a date by a number of working days. Negative values move backward."),
		mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD or RFC 3339)"), mcp.Required()),
		mcp.WithNumber("days", mcp.Description("Working days to add"), mcp.Required()),
		mcp.WithString("calendar", mcp.Description(calendarArgHelp)),
	), h.addWorkingDays)

	s.AddTool(mcp.NewTool("calculate_end_date",
		mcp.WithDescription("Last day of a task that starts on start and lasts duration working days."),
		mcp.WithString("start", mcp.Description("Start date"), mcp.Required()),
		mcp.WithNumber("duration", mcp.Description("Duration in working days"), mcp.Required()),
		mcp.WithString("calendar", mcp.Description(calendarArgHelp)),
	), h.endDate)

	s.AddTool(mcp.NewTool("calculate_duration",
		mcp.WithDescription("Count working days between start and end, inclusive."),
		mcp.WithString("start", mcp.Description("Start date"), mcp.Required()),
		mcp.WithString("end", mcp.Description("End date"), mcp.Required()),
		mcp.WithString("calendar", mcp.Description(calendarArgHelp)),
	), h.duration)

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

type handlers struct {
	cal     *calendar.WorkingCalendar
	maxDays int
	logger  zerolog.Logger
}

func (h *handlers) criticalPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := mcp.ParseString(request, "project", "")
	p, err := project.ParseJSONWithCalendar([]byte(raw), h.cal)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := cpm.Analyze(p.Tasks, p.Dependencies)
	telemetry.ObserveResult(res)
	if !res.Converged {
		h.logger.Warn().Strs("cycle", res.Cycle).Msg("schedule did not converge")
	}

	data, err := reporter.New(p.Tasks, res).JSON()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *handlers) isWorkingDay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cal, date, err := h.dateArgs(request, "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"date":           date,
		"is_working_day": calendar.IsWorkingDay(date, cal),
	})
}

func (h *handlers) snap(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cal, date, err := h.dateArgs(request, "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, err := calendar.ParseDirection(mcp.ParseString(request, "direction", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"date": calendar.SnapToWorkingDay(date, cal, dir)})
}

func (h *handlers) addWorkingDays(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cal, date, err := h.dateArgs(request, "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days, err := h.dayCount(request, "days")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"date": calendar.AddWorkingDays(date, days, cal)})
}

func (h *handlers) endDate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cal, start, err := h.dateArgs(request, "start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	duration, err := h.dayCount(request, "duration")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"end": calendar.EndDate(start, duration, cal)})
}

func (h *handlers) duration(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cal, start, err := h.dateArgs(request, "start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := project.ParseDate(mcp.ParseString(request, "end", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("end: %v", err)), nil
	}
	return jsonResult(map[string]any{"working_days": calendar.Duration(start, end, cal)})
}

// dateArgs resolves the calendar argument and parses the named date argument.
func (h *handlers) dateArgs(request mcp.CallToolRequest, key string) (*calendar.WorkingCalendar, time.Time, error) {
	cal := h.cal
	if raw := mcp.ParseString(request, "calendar", ""); raw != "" {
		if !gjson.Valid(raw) {
			return nil, time.Time{}, fmt.Errorf("calendar: invalid JSON")
		}
		c, err := project.CalendarFromResult(gjson.Parse(raw))
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("calendar: %w", err)
		}
		cal = c
	}

	date, err := project.ParseDate(mcp.ParseString(request, key, ""))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return cal, date, nil
}

func (h *handlers) dayCount(request mcp.CallToolRequest, key string) (int, error) {
	n := mcp.ParseFloat64(request, key, 0)
	if err := calendar.CheckDays(n, h.maxDays); err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return int(n), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
