// Package server exposes the calendar core over a JSON HTTP API plus the
// public ICS and Atom feeds.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/meetverse/eventcal/feed"
	"github.com/meetverse/eventcal/recurrence"
	"github.com/meetverse/eventcal/storage"
)

const (
	headerContentType = "Content-Type"

	mimeTypeJSON     = "application/json; charset=utf-8"
	mimeTypeCalendar = "text/calendar; charset=utf-8"
	mimeTypeAtom     = "application/atom+xml; charset=utf-8"
)

// instanceDateRe is the contract on instance-date inputs: ISO calendar
// dates only, no time component.
var instanceDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Server routes calendar API requests.
type Server struct {
	store  storage.Storage
	engine *recurrence.Engine
	feeds  *feed.Generator
	logger *slog.Logger
	mux    *http.ServeMux

	// now is the injectable clock used for "today" checks such as
	// past-instance cancellation.
	now func() time.Time
}

// New creates the API server. A nil logger discards request logs.
func New(store storage.Storage, feeds *feed.Generator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		store:  store,
		engine: recurrence.NewEngine(logger),
		feeds:  feeds,
		logger: logger,
		mux:    http.NewServeMux(),
		now:    time.Now,
	}

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	s.mux.HandleFunc("PUT /api/events/{id}", s.handleUpdateEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)
	s.mux.HandleFunc("GET /api/events/{id}/rule", s.handleDescribeRule)

	s.mux.HandleFunc("GET /api/occurrences", s.handleAllOccurrences)
	s.mux.HandleFunc("GET /api/events/{id}/occurrences", s.handleEventOccurrences)

	s.mux.HandleFunc("POST /api/events/{id}/exceptions", s.handleAddException)
	s.mux.HandleFunc("DELETE /api/events/{id}/exceptions/{date}", s.handleRemoveException)
	s.mux.HandleFunc("PUT /api/events/{id}/overrides/{date}", s.handleSetOverride)
	s.mux.HandleFunc("DELETE /api/events/{id}/overrides/{date}", s.handleClearOverride)
	s.mux.HandleFunc("POST /api/events/{id}/cancel", s.handleCancelInstance)
	s.mux.HandleFunc("POST /api/events/{id}/restore", s.handleRestoreInstance)

	s.mux.HandleFunc("GET /calendar.ics", s.handleICSFeed)
	s.mux.HandleFunc("GET /feed.atom", s.handleAtomFeed)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("received request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleICSFeed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(headerContentType, mimeTypeCalendar)
	if err := s.feeds.WriteICS(r.Context(), w); err != nil {
		s.logger.Error("failed to render ICS feed", "error", err)
	}
}

func (s *Server) handleAtomFeed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(headerContentType, mimeTypeAtom)
	if err := s.feeds.WriteAtom(r.Context(), w); err != nil {
		s.logger.Error("failed to render Atom feed", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(headerContentType, mimeTypeJSON)
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}

// writeOpError maps core and storage errors onto HTTP statuses, passing
// the error text through so the UI can display the reason verbatim.
func (s *Server) writeOpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recurrence.ErrDuplicateException),
		errors.Is(err, recurrence.ErrOverrideConflict),
		errors.Is(err, recurrence.ErrExcludedInstance):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, recurrence.ErrMissingInstanceDate):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, recurrence.ErrPastInstance):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case storage.IsNotFound(err):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseInstanceDate validates a date input against the API contract and
// parses it.
func parseInstanceDate(raw string) (recurrence.Date, bool) {
	if !instanceDateRe.MatchString(raw) {
		return recurrence.Date{}, false
	}
	d, err := recurrence.ParseDate(raw)
	if err != nil {
		return recurrence.Date{}, false
	}
	return d, true
}

// today returns the current date in the event's timezone, for the
// past-instance cancellation check.
func (s *Server) today(event *storage.Event) recurrence.Date {
	loc := time.UTC
	if event.TimeZone != "" {
		if l, err := time.LoadLocation(event.TimeZone); err == nil {
			loc = l
		}
	}
	return recurrence.DateOf(s.now().In(loc))
}
