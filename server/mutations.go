package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/samber/mo"

	"github.com/meetverse/eventcal/recurrence"
	"github.com/meetverse/eventcal/storage"
)

// mutateSeries loads the event, applies fn to its series snapshot and
// persists the result. fn must be a pure transformation in the resolver's
// style; last write wins at the storage layer.
func (s *Server) mutateSeries(w http.ResponseWriter, r *http.Request,
	fn func(*storage.Event, recurrence.Series) (recurrence.Series, error)) {

	event, err := s.store.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeOpError(w, err)
		return
	}

	series, err := fn(event, event.Series())
	if err != nil {
		s.writeOpError(w, err)
		return
	}

	event.ApplySeries(series)
	if err := s.store.UpdateEvent(r.Context(), event); err != nil {
		s.writeOpError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, event)
}

type exceptionRequest struct {
	Date string `json:"date"`
}

func (s *Server) handleAddException(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req exceptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	date, ok := parseInstanceDate(req.Date)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD form")
		return
	}

	s.mutateSeries(w, r, func(_ *storage.Event, series recurrence.Series) (recurrence.Series, error) {
		return recurrence.AddExceptionDate(series, date)
	})
}

func (s *Server) handleRemoveException(w http.ResponseWriter, r *http.Request) {
	date, ok := parseInstanceDate(r.PathValue("date"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD form")
		return
	}

	s.mutateSeries(w, r, func(_ *storage.Event, series recurrence.Series) (recurrence.Series, error) {
		return recurrence.RemoveExceptionDate(series, date), nil
	})
}

// overrideRequest is the partial field set of a changed instance. Absent
// fields keep their generated values (with the series-default fallback for
// title and description).
type overrideRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
}

func (s *Server) handleSetOverride(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	date, ok := parseInstanceDate(r.PathValue("date"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD form")
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	override := recurrence.Override{
		Date:        date,
		Type:        recurrence.OverrideChanged,
		Title:       mo.PointerToOption(req.Title),
		Description: mo.PointerToOption(req.Description),
		Location:    mo.PointerToOption(req.Location),
		Start:       mo.PointerToOption(req.Start),
		End:         mo.PointerToOption(req.End),
	}

	s.mutateSeries(w, r, func(_ *storage.Event, series recurrence.Series) (recurrence.Series, error) {
		return recurrence.SetOverride(series, override)
	})
}

func (s *Server) handleClearOverride(w http.ResponseWriter, r *http.Request) {
	date, ok := parseInstanceDate(r.PathValue("date"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "date must be in YYYY-MM-DD form")
		return
	}

	s.mutateSeries(w, r, func(_ *storage.Event, series recurrence.Series) (recurrence.Series, error) {
		return recurrence.RestoreInstance(series, date)
	})
}

type cancelRequest struct {
	InstanceDate string `json:"instanceDate"`
	Reason       string `json:"reason"`
}

func (s *Server) handleCancelInstance(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	// The resolver requires a present instance date; reject before it.
	if req.InstanceDate == "" {
		s.writeError(w, http.StatusBadRequest, recurrence.ErrMissingInstanceDate.Error())
		return
	}
	date, ok := parseInstanceDate(req.InstanceDate)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "instanceDate must be in YYYY-MM-DD form")
		return
	}

	s.mutateSeries(w, r, func(event *storage.Event, series recurrence.Series) (recurrence.Series, error) {
		return recurrence.CancelInstance(series, date, req.Reason, s.today(event))
	})
}

func (s *Server) handleRestoreInstance(w http.ResponseWriter, r *http.Request) {
	// The instance date is a query parameter by contract.
	raw := r.URL.Query().Get("instanceDate")
	if raw == "" {
		s.writeError(w, http.StatusBadRequest, recurrence.ErrMissingInstanceDate.Error())
		return
	}
	date, ok := parseInstanceDate(raw)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "instanceDate must be in YYYY-MM-DD form")
		return
	}

	s.mutateSeries(w, r, func(_ *storage.Event, series recurrence.Series) (recurrence.Series, error) {
		return recurrence.RestoreInstance(series, date)
	})
}
