package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/joshharrison/timeloom/internal/calendar"
	"github.com/joshharrison/timeloom/internal/cpm"
	"github.com/joshharrison/timeloom/internal/project"
	"github.com/joshharrison/timeloom/internal/reporter"
	"github.com/joshharrison/timeloom/internal/telemetry"
)

type criticalPathResponse struct {
	ID string `json:"id"`
	*reporter.Report
}

func (s *Server) handleCriticalPath(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readBody(w, r)
	if !ok {
		return
	}

	p, err := project.ParseJSONWithCalendar(data, s.calendar)
	if err != nil {
		writeInvalid(w, "invalid_project", err)
		return
	}

	res := cpm.Analyze(p.Tasks, p.Dependencies)
	telemetry.ObserveResult(res)
	s.logDiagnostics(res)

	g := toGraph(p.Tasks, p.Dependencies, res)
	s.mu.Lock()
	s.graph = g
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, criticalPathResponse{
		ID:     g.Metadata.ID,
		Report: reporter.New(p.Tasks, res).Report(),
	})
}

func (s *Server) logDiagnostics(res *cpm.Result) {
	for _, d := range res.SkippedDependencies {
		s.logger.Warn().Str("from", d.From).Str("to", d.To).Msg("dependency references unknown task")
	}
	if len(res.Cycle) > 0 {
		s.logger.Warn().Strs("cycle", res.Cycle).Msg("dependency cycle")
	}
	if !res.Converged {
		s.logger.Warn().
			Int("forward_sweeps", res.ForwardSweeps).
			Int("backward_sweeps", res.BackwardSweeps).
			Msg("schedule did not converge")
	}
}

// calendarRequest is the decoded body shared by the calendar endpoints.
type calendarRequest struct {
	cal       *calendar.WorkingCalendar
	date      time.Time
	end       time.Time
	hasEnd    bool
	days      int
	direction calendar.Direction
}

// decodeCalendarRequest reads {calendar?, date, end?, days?, direction?}.
// On failure it has already written the response.
func (s *Server) decodeCalendarRequest(w http.ResponseWriter, r *http.Request) (*calendarRequest, bool) {
	data, ok := s.readBody(w, r)
	if !ok {
		return nil, false
	}
	if !gjson.ValidBytes(data) {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return nil, false
	}
	doc := gjson.ParseBytes(data)

	days := doc.Get("days").Float()
	if err := calendar.CheckDays(days, s.cfg.MaxDays); err != nil {
		writeInvalid(w, "invalid_days", err)
		return nil, false
	}
	req := &calendarRequest{cal: s.calendar, days: int(days)}

	if c := doc.Get("calendar"); c.Exists() {
		cal, err := project.CalendarFromResult(c)
		if err != nil {
			writeInvalid(w, "invalid_calendar", err)
			return nil, false
		}
		if cal.SearchLimit == 0 {
			cal.SearchLimit = s.cfg.SearchLimitDays
		}
		req.cal = cal
	}

	date := doc.Get("date")
	if !date.Exists() {
		writeError(w, http.StatusBadRequest, "missing_date")
		return nil, false
	}
	d, err := project.DateFromResult(date)
	if err != nil {
		writeInvalid(w, "invalid_date", err)
		return nil, false
	}
	req.date = d

	if end := doc.Get("end"); end.Exists() {
		e, err := project.DateFromResult(end)
		if err != nil {
			writeInvalid(w, "invalid_date", err)
			return nil, false
		}
		req.end = e
		req.hasEnd = true
	}

	dir, err := calendar.ParseDirection(doc.Get("direction").String())
	if err != nil {
		writeInvalid(w, "invalid_direction", err)
		return nil, false
	}
	req.direction = dir

	return req, true
}

type dateResponse struct {
	Date time.Time `json:"date"`
}

func (s *Server) handleIsWorkingDay(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCalendarRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":           req.date,
		"is_working_day": calendar.IsWorkingDay(req.date, req.cal),
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCalendarRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dateResponse{Date: calendar.NextWorkingDay(req.date, req.cal)})
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCalendarRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dateResponse{Date: calendar.PreviousWorkingDay(req.date, req.cal)})
}

func (s *Server) handleSnap(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCalendarRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dateResponse{Date: calendar.SnapToWorkingDay(req.date, req.cal, req.direction)})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCalendarRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dateResponse{Date: calendar.AddWorkingDays(req.date, req.days, req.cal)})
}

func (s *Server) handleEndDate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCalendarRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dateResponse{Date: calendar.EndDate(req.date, req.days, req.cal)})
}

func (s *Server) handleDuration(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeCalendarRequest(w, r)
	if !ok {
		return
	}
	if !req.hasEnd {
		writeError(w, http.StatusBadRequest, "missing_end")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"working_days": calendar.Duration(req.date, req.end, req.cal)})
}

// readBody reads the request body, answering 413 when the limit is exceeded.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "read_failed")
		return nil, false
	}
	return data, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeInvalid is a 400 that carries the validation message.
func writeInvalid(w http.ResponseWriter, code string, err error) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": code, "message": err.Error()})
}
