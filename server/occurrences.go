package server

import (
	"net/http"
	"sort"

	"github.com/meetverse/eventcal/recurrence"
)

// parseWindow extracts the required start/end query parameters of an
// occurrence request.
func (s *Server) parseWindow(w http.ResponseWriter, r *http.Request) (start, end recurrence.Date, ok bool) {
	start, okStart := parseInstanceDate(r.URL.Query().Get("start"))
	end, okEnd := parseInstanceDate(r.URL.Query().Get("end"))
	if !okStart || !okEnd {
		s.writeError(w, http.StatusBadRequest, "start and end must be dates in YYYY-MM-DD form")
		return recurrence.Date{}, recurrence.Date{}, false
	}
	if end.Before(start) {
		s.writeError(w, http.StatusBadRequest, "end must not be before start")
		return recurrence.Date{}, recurrence.Date{}, false
	}
	return start, end, true
}

func (s *Server) handleEventOccurrences(w http.ResponseWriter, r *http.Request) {
	start, end, ok := s.parseWindow(w, r)
	if !ok {
		return
	}

	event, err := s.store.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeOpError(w, err)
		return
	}

	series := event.Series()
	occurrences := s.engine.Expand(series, start, end)
	occurrences = recurrence.ApplyOverrides(occurrences, series)
	s.writeJSON(w, http.StatusOK, occurrences)
}

func (s *Server) handleAllOccurrences(w http.ResponseWriter, r *http.Request) {
	start, end, ok := s.parseWindow(w, r)
	if !ok {
		return
	}

	events, err := s.store.ListEvents(r.Context())
	if err != nil {
		s.writeOpError(w, err)
		return
	}

	occurrences := make([]recurrence.Occurrence, 0)
	for _, event := range events {
		series := event.Series()
		expanded := s.engine.Expand(series, start, end)
		occurrences = append(occurrences, recurrence.ApplyOverrides(expanded, series)...)
	}
	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].Start.Before(occurrences[j].Start)
	})
	s.writeJSON(w, http.StatusOK, occurrences)
}
