package api

import (
	"errors"
	"net/http"

	"github.com/alexanderramin/vigil/internal/aggregate"
	"github.com/alexanderramin/vigil/internal/domain"
	"github.com/alexanderramin/vigil/internal/monitor"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("writing response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) today() domain.Date {
	return domain.DateOf(s.now())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h := s.reader.Health()
	status := http.StatusOK
	if h.Status != monitor.HealthOK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.reader.GetConfig())
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	s.writeDay(w, r, s.today())
}

func (s *Server) handleDate(w http.ResponseWriter, r *http.Request) {
	date, err := domain.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeDay(w, r, date)
}

func (s *Server) writeDay(w http.ResponseWriter, r *http.Request, date domain.Date) {
	l, err := s.reader.GetDay(r.Context(), date)
	if err != nil {
		log.Error().Err(err).Str("date", date.String()).Msg("reading daily log")
		writeError(w, http.StatusInternalServerError, "reading daily log failed")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	p, err := aggregate.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	today := s.today()
	start, end := aggregate.Bounds(p, today, today)
	s.writeRange(w, r, start, end)
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := domain.ParseDate(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	end, err := domain.ParseDate(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end: "+err.Error())
		return
	}
	s.writeRange(w, r, start, end)
}

func (s *Server) writeRange(w http.ResponseWriter, r *http.Request, start, end domain.Date) {
	sum, err := s.reader.GetRange(r.Context(), start, end)
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		log.Error().Err(err).Str("start", start.String()).Str("end", end.String()).Msg("summarizing range")
		writeError(w, http.StatusInternalServerError, "summarizing range failed")
	default:
		writeJSON(w, http.StatusOK, sum)
	}
}
