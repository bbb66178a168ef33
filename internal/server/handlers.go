package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/persona-agent/internal/calendar"
	"github.com/persona-agent/internal/compliance"
	"github.com/persona-agent/internal/planner"
	"github.com/persona-agent/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]interface{}{
		"status": "ok",
		"time":   s.now().Format(time.RFC3339),
	})
}

type diagnoseRequest struct {
	Text string `json:"text"`
}

type outputView struct {
	Task    string `json:"task"`
	Text    string `json:"text,omitempty"`
	Failure string `json:"failure,omitempty"`
	Display string `json:"display"`
}

func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req diagnoseRequest
	if err := decodeBody(r, &req); err != nil {
		writeCode(w, http.StatusBadRequest, CodeInvalidParams, err.Error(), nil)
		return
	}

	d, err := s.deps.Diagnoser.Diagnose(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	outputs := make([]outputView, 0, len(d.Outputs))
	for _, o := range d.Outputs {
		outputs = append(outputs, outputView{
			Task:    o.Task,
			Text:    o.Text,
			Failure: string(o.Kind),
			Display: o.Display(),
		})
	}
	writeSuccess(w, map[string]interface{}{
		"id":         d.ID,
		"scores":     d.Scores,
		"aggregate":  d.Aggregate,
		"outputs":    outputs,
		"risk_words": d.RiskWords,
		"created_at": d.CreatedAt,
	})
}

func (s *Server) handleListDiagnoses(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Repository.ListDiagnoses(r.Context(), queryInt(r, "limit", 20))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, rows)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var input planner.Input
	if err := decodeBody(r, &input); err != nil {
		writeCode(w, http.StatusBadRequest, CodeInvalidParams, err.Error(), nil)
		return
	}

	session, err := s.deps.Persona.Analyze(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	filter := storage.DefaultSessionFilter()
	filter.Limit = queryInt(r, "limit", filter.Limit)
	if industry := r.URL.Query().Get("industry"); industry != "" {
		filter.Industry = &industry
	}

	rows, err := s.deps.Repository.ListSessions(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sessions := make([]*planner.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, planner.SessionFromRecord(row))
	}
	writeSuccess(w, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Persona.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, session)
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Persona.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Persona.HotTopics(r.Context(), session); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, session)
}

// handleCalendar returns the schedule as JSON data, or as a file when
// ?format= is csv, xlsx or json
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	session, err := s.deps.Persona.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start := s.now()
	if v := r.URL.Query().Get("start"); v != "" {
		start, err = time.ParseInLocation(calendar.DateLayout, v, time.Local)
		if err != nil {
			writeCode(w, http.StatusBadRequest, CodeInvalidParams, "start must be YYYY-MM-DD", nil)
			return
		}
	}
	entries := session.Calendar(start, s.deps.Platforms)

	format := r.URL.Query().Get("format")
	if format == "" {
		writeSuccess(w, entries)
		return
	}

	write, err := calendar.Writer(format)
	if err != nil {
		writeCode(w, http.StatusBadRequest, CodeInvalidParams, err.Error(), nil)
		return
	}
	w.Header().Set("Content-Type", calendar.ContentType(format))
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s.%s"`, calendar.BaseName, strings.ToLower(format)))
	if err := write(w, entries); err != nil {
		s.log.Error().Err(err).Str("format", format).Msg("Failed to write calendar")
	}
}

func (s *Server) handleBrand(w http.ResponseWriter, r *http.Request) {
	var brief planner.BrandBrief
	if err := decodeBody(r, &brief); err != nil {
		writeCode(w, http.StatusBadRequest, CodeInvalidParams, err.Error(), nil)
		return
	}

	result, err := s.deps.Strategist.Plan(r.Context(), brief)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, result)
}

type compareRequest struct {
	Platform string   `json:"platform"`
	Accounts []string `json:"accounts"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if err := decodeBody(r, &req); err != nil {
		writeCode(w, http.StatusBadRequest, CodeInvalidParams, err.Error(), nil)
		return
	}

	cmp, err := s.deps.Social.Compare(r.Context(), req.Platform, req.Accounts)
	if err != nil {
		writeCode(w, http.StatusBadRequest, CodeInvalidParams, err.Error(), nil)
		return
	}

	errs := make([]string, 0)
	for _, e := range cmp.Errors() {
		errs = append(errs, e.Error())
	}
	writeSuccess(w, map[string]interface{}{
		"platform": cmp.Platform,
		"rows":     cmp.Rows(),
		"errors":   errs,
	})
}

type autoCorrectRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAutoCorrect(w http.ResponseWriter, r *http.Request) {
	var req autoCorrectRequest
	if err := decodeBody(r, &req); err != nil {
		writeCode(w, http.StatusBadRequest, CodeInvalidParams, err.Error(), nil)
		return
	}
	writeSuccess(w, map[string]interface{}{
		"text":     compliance.AutoCorrect(req.Text),
		"findings": compliance.Findings(req.Text),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	filter := storage.DefaultHistoryFilter()
	filter.Limit = queryInt(r, "limit", filter.Limit)
	if account := r.URL.Query().Get("account"); account != "" {
		filter.AccountName = &account
	}

	rows, err := s.deps.Repository.ListHistory(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeSuccess(w, rows)
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
